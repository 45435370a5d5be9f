package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"

	mw "github.com/chrizleebear13/Revisentwebsite-sub001/internal/api/middleware"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/model"
)

// newRequest creates a new HTTP request with an optional JSON body.
func newRequest(method, target string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	r := httptest.NewRequest(method, target, &buf)
	r.Header.Set("Content-Type", "application/json")
	return r
}

// newRequestRaw creates a new HTTP request with a raw string body.
func newRequestRaw(method, target, body string) *http.Request {
	r := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

// withChiURLParam adds a chi URL parameter to the request context.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// decodeErrorResponse parses the JSON error response body into a map.
func decodeErrorResponse(rec *httptest.ResponseRecorder) map[string]string {
	var body map[string]string
	json.Unmarshal(rec.Body.Bytes(), &body)
	return body
}

func strPtr(s string) *string { return &s }

func adminClaims() *model.JWTClaims {
	return &model.JWTClaims{Sub: "admin-1", Email: "admin@revisent.test", Role: model.RoleAdmin}
}

func clientClaims(orgID string) *model.JWTClaims {
	c := &model.JWTClaims{Sub: "client-1", Email: "client@acme.test", Role: model.RoleClient}
	if orgID != "" {
		c.OrganizationID = strPtr(orgID)
	}
	return c
}

func withClaims(r *http.Request, claims *model.JWTClaims) *http.Request {
	return r.WithContext(mw.WithClaims(r.Context(), claims))
}
