package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const testSecret = "unit-test-secret"

func signedToken(t *testing.T, claims TokenClaims) string {
	t.Helper()
	token, err := SignJWT(testSecret, claims)
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	return token
}

func TestAuthJWTPopulatesContext(t *testing.T) {
	token := signedToken(t, TokenClaims{
		Sub:       "user-42",
		Locale:    "ID",
		CanUpload: true,
		Exp:       time.Now().Add(time.Hour).Unix(),
	})

	var gotUser, gotLocale string
	var gotUpload bool
	handler := AuthJWT(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = UserIDFromContext(r.Context())
		gotLocale = LocaleFromContext(r.Context())
		gotUpload = CanUploadFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if gotUser != "user-42" || gotLocale != "id" || !gotUpload {
		t.Fatalf("context = %q / %q / %v", gotUser, gotLocale, gotUpload)
	}
}

func TestAuthJWTRejectsBadTokens(t *testing.T) {
	expired := signedToken(t, TokenClaims{Sub: "user-1", Exp: time.Now().Add(-time.Minute).Unix()})
	tampered := signedToken(t, TokenClaims{Sub: "user-1"}) + "x"

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"expired", "Bearer " + expired},
		{"tampered signature", "Bearer " + tampered},
		{"garbage", "Bearer not.a.token"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler := AuthJWT(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler must not run")
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestVerifyNonceDayWindow(t *testing.T) {
	now := time.Date(2025, 6, 10, 0, 5, 0, 0, time.UTC)
	yesterdayNonce := SignNonce(testSecret, "user-1", now.AddDate(0, 0, -1))
	todayNonce := SignNonce(testSecret, "user-1", now)

	if !VerifyNonce(testSecret, "user-1", todayNonce, now) {
		t.Fatal("current nonce rejected")
	}
	if !VerifyNonce(testSecret, "user-1", yesterdayNonce, now) {
		t.Fatal("previous day's nonce rejected inside the grace window")
	}
	if VerifyNonce(testSecret, "user-1", yesterdayNonce, now.AddDate(0, 0, 1)) {
		t.Fatal("stale nonce accepted")
	}
	if VerifyNonce(testSecret, "user-2", todayNonce, now) {
		t.Fatal("nonce accepted for a different user")
	}
	if VerifyNonce(testSecret, "user-1", "", now) {
		t.Fatal("empty nonce accepted")
	}
}

func TestRequireUploadCapability(t *testing.T) {
	run := func(method string, canUpload bool) int {
		handler := RequireUploadCapability()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))
		req := httptest.NewRequest(method, "/", nil)
		ctx := ContextWithUserID(req.Context(), "user-9")
		ctx = context.WithValue(ctx, canUploadKey, canUpload)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req.WithContext(ctx))
		return rec.Code
	}

	if code := run(http.MethodGet, false); code != http.StatusNoContent {
		t.Fatalf("GET without capability = %d, want pass-through", code)
	}
	if code := run(http.MethodPost, true); code != http.StatusNoContent {
		t.Fatalf("POST with capability = %d, want 204", code)
	}
	if code := run(http.MethodPost, false); code != http.StatusForbidden {
		t.Fatalf("POST without capability = %d, want 403", code)
	}
}

func TestRequireNonce(t *testing.T) {
	now := time.Now()
	nonce := SignNonce(testSecret, "user-9", now)

	run := func(method, nonceHeader string) int {
		handler := RequireNonce(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))
		req := httptest.NewRequest(method, "/", nil)
		req = req.WithContext(ContextWithUserID(req.Context(), "user-9"))
		if nonceHeader != "" {
			req.Header.Set(NonceHeader, nonceHeader)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := run(http.MethodGet, ""); code != http.StatusNoContent {
		t.Fatalf("GET without nonce = %d, want pass-through", code)
	}
	if code := run(http.MethodPost, nonce); code != http.StatusNoContent {
		t.Fatalf("POST with nonce = %d, want 204", code)
	}
	if code := run(http.MethodPost, ""); code != http.StatusForbidden {
		t.Fatalf("POST without nonce = %d, want 403", code)
	}
	if code := run(http.MethodPost, "bogus"); code != http.StatusForbidden {
		t.Fatalf("POST with bad nonce = %d, want 403", code)
	}
}
