package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/rentpoint/backend/internal/handler"
	"github.com/rentpoint/backend/internal/middleware"
)

const testSecret = "handler-test-secret"

// newTestHandler wires a Server behind the authenticator, mirroring how
// main.go mounts the route tree in production.
func newTestHandler(sessions handler.SessionServicer, itemTypes handler.ItemTypeServicer, items handler.ItemServicer, strikes handler.StrikeServicer) http.Handler {
	srv := handler.NewServer(sessions, itemTypes, items, strikes)
	return middleware.NewAuthenticator(testSecret)(srv.Routes())
}

// signToken issues a short-lived HS256 token for the given user and scopes.
func signToken(t *testing.T, userID int64, scopes ...string) string {
	t.Helper()
	claims := middleware.Claims{
		UserID: userID,
		Scopes: scopes,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

// doRequest performs a request against the handler with the given bearer
// token; pass an empty token to send no Authorization header.
func doRequest(h http.Handler, method, target, token string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

// decodeBody unmarshals the recorded response body into target.
func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, target any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), target))
}
