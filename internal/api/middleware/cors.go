package middleware

import (
	"net/http"
	"strings"
)

const (
	corsAllowMethods = "GET, POST, OPTIONS"
	corsAllowHeaders = "Authorization, Content-Type"
)

// corsPolicy matches request origins against exact origins and
// "scheme://*.domain" wildcards used for preview deployments.
type corsPolicy struct {
	exact    map[string]bool
	suffixes []corsSuffix
}

type corsSuffix struct {
	scheme string
	domain string
}

func newCORSPolicy(origins []string) corsPolicy {
	p := corsPolicy{exact: make(map[string]bool, len(origins))}
	for _, o := range origins {
		o = strings.TrimRight(o, "/")
		scheme, host, ok := strings.Cut(o, "://")
		if ok && strings.HasPrefix(host, "*.") {
			p.suffixes = append(p.suffixes, corsSuffix{scheme: scheme, domain: host[1:]})
			continue
		}
		p.exact[o] = true
	}
	return p
}

func (p corsPolicy) allows(origin string) bool {
	if origin == "" {
		return false
	}
	if p.exact[origin] {
		return true
	}
	scheme, host, ok := strings.Cut(origin, "://")
	if !ok {
		return false
	}
	for _, s := range p.suffixes {
		if scheme == s.scheme && strings.HasSuffix(host, s.domain) && len(host) > len(s.domain) {
			return true
		}
	}
	return false
}

// CORS answers preflight requests and sets credentialed CORS headers for
// allowed dashboard origins.
func CORS(origins []string) func(http.Handler) http.Handler {
	policy := newCORSPolicy(origins)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Vary", "Origin")
			origin := r.Header.Get("Origin")
			if policy.allows(origin) {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
				h.Set("Access-Control-Allow-Methods", corsAllowMethods)
				h.Set("Access-Control-Max-Age", "86400")
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
