package model

type JWTClaims struct {
	Sub            string  `json:"sub"`
	Email          string  `json:"email"`
	Role           string  `json:"role"`
	OrganizationID *string `json:"organization_id,omitempty"`
	Exp            int64   `json:"exp"`
	Iat            int64   `json:"iat"`
	Iss            string  `json:"iss"`
}
