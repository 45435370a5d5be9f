package core

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/facebookgo/clock"
	"golang.org/x/crypto/argon2"

	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/model"
)

// ErrInvalidCredentials is returned by Login for an unknown email or a wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

const tokenTTL = 24 * time.Hour

type AuthService struct {
	profiles  *ProfileService
	jwtSecret []byte
	jwtIssuer string
	clock     clock.Clock
}

func NewAuthService(profiles *ProfileService, jwtSecret, jwtIssuer string, clk clock.Clock) *AuthService {
	if clk == nil {
		clk = clock.New()
	}
	return &AuthService{
		profiles:  profiles,
		jwtSecret: []byte(jwtSecret),
		jwtIssuer: jwtIssuer,
		clock:     clk,
	}
}

// Login authenticates a profile by email and password, returning a JWT on success.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *model.Profile, error) {
	profile, err := s.profiles.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("login: %w", err)
	}

	if !verifyArgon2(password, profile.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.IssueToken(profile)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}

	return token, profile, nil
}

// IssueToken creates a signed JWT for the given profile.
func (s *AuthService) IssueToken(profile *model.Profile) (string, error) {
	now := s.clock.Now()
	claims := model.JWTClaims{
		Sub:            profile.ID,
		Email:          profile.Email,
		Role:           profile.Role,
		OrganizationID: profile.OrganizationID,
		Iat:            now.Unix(),
		Exp:            now.Add(tokenTTL).Unix(),
		Iss:            s.jwtIssuer,
	}
	return s.signJWT(claims)
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*model.JWTClaims, error) {
	parts := strings.Split(tokenStr, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("invalid token format")
	}

	signingInput := parts[0] + "." + parts[1]
	expectedSig := s.hmacSign([]byte(signingInput))
	actualSig, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, fmt.Errorf("invalid signature encoding")
	}
	if subtle.ConstantTimeCompare(expectedSig, actualSig) != 1 {
		return nil, fmt.Errorf("invalid signature")
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("invalid payload encoding")
	}

	var claims model.JWTClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("invalid claims: %w", err)
	}

	if s.clock.Now().Unix() > claims.Exp {
		return nil, fmt.Errorf("token expired")
	}
	if s.jwtIssuer != "" && claims.Iss != s.jwtIssuer {
		return nil, fmt.Errorf("unexpected issuer %q", claims.Iss)
	}

	return &claims, nil
}

func (s *AuthService) signJWT(claims model.JWTClaims) (string, error) {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))

	claimsJSON, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	payload := base64.RawURLEncoding.EncodeToString(claimsJSON)

	signingInput := header + "." + payload
	sig := base64.RawURLEncoding.EncodeToString(s.hmacSign([]byte(signingInput)))

	return signingInput + "." + sig, nil
}

func (s *AuthService) hmacSign(data []byte) []byte {
	mac := hmac.New(sha256.New, s.jwtSecret)
	mac.Write(data)
	return mac.Sum(nil)
}

// HashPassword returns a PHC-format argon2id hash of password.
func HashPassword(password string) (string, error) {
	const (
		memory      = 64 * 1024
		iterations  = 3
		parallelism = 4
	)
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, 32)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, memory, iterations, parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

// verifyArgon2 checks a password against a PHC-format argon2id hash.
// Format: $argon2id$v=19$m=65536,t=3,p=4$<salt>$<hash>
func verifyArgon2(password, hash string) bool {
	parts := strings.Split(hash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false
	}

	paramParts := strings.Split(parts[3], ",")
	if len(paramParts) != 3 {
		return false
	}

	memory, err := parseParam(paramParts[0], "m=")
	if err != nil {
		return false
	}
	iterations, err := parseParam(paramParts[1], "t=")
	if err != nil {
		return false
	}
	parallelism, err := parseParam(paramParts[2], "p=")
	if err != nil {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	expectedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}

	computed := argon2.IDKey([]byte(password), salt, uint32(iterations), uint32(memory), uint8(parallelism), uint32(len(expectedHash)))
	return subtle.ConstantTimeCompare(computed, expectedHash) == 1
}

func parseParam(s, prefix string) (int, error) {
	if !strings.HasPrefix(s, prefix) {
		return 0, fmt.Errorf("missing prefix %s", prefix)
	}
	return strconv.Atoi(s[len(prefix):])
}
