package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/lumiself/ai-influencer-studio/internal/domain"
)

type TokenClaims struct {
	Sub       string `json:"sub"`
	Locale    string `json:"locale"`
	CanUpload bool   `json:"can_upload"`
	Exp       int64  `json:"exp"`
	Issuer    string `json:"iss"`
	Audience  string `json:"aud"`
}

type userKey string

const (
	userIDKey    userKey = "user_id"
	canUploadKey userKey = "can_upload"
)

// NonceHeader carries the per-user anti-forgery token on mutating requests.
const NonceHeader = "X-AIS-Nonce"

func SignJWT(secret string, claims TokenClaims) (string, error) {
	header := map[string]string{"alg": "HS256", "typ": "JWT"}
	headerJSON, _ := json.Marshal(header)
	payloadJSON, _ := json.Marshal(claims)
	headerEnc := base64.RawURLEncoding.EncodeToString(headerJSON)
	payloadEnc := base64.RawURLEncoding.EncodeToString(payloadJSON)
	data := headerEnc + "." + payloadEnc
	sig := hmacSign(secret, data)
	return data + "." + sig, nil
}

func hmacSign(secret, data string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(data))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func VerifyJWT(secret, token string) (*TokenClaims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, errors.New("invalid token")
	}
	expected := hmacSign(secret, parts[0]+"."+parts[1])
	if !hmac.Equal([]byte(expected), []byte(parts[2])) {
		return nil, errors.New("invalid signature")
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, err
	}
	var claims TokenClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, err
	}
	if claims.Exp != 0 && time.Now().Unix() > claims.Exp {
		return nil, errors.New("token expired")
	}
	return &claims, nil
}

// SignNonce derives an anti-forgery token bound to the user and the current
// day. A stolen nonce stops working at the next UTC day boundary.
func SignNonce(secret, userID string, now time.Time) string {
	return hmacSign(secret, userID+"|"+now.UTC().Format("2006-01-02"))
}

// VerifyNonce accepts the current day's nonce and the previous day's, so a
// token issued just before midnight stays usable.
func VerifyNonce(secret, userID, nonce string, now time.Time) bool {
	if nonce == "" {
		return false
	}
	today := SignNonce(secret, userID, now)
	yesterday := SignNonce(secret, userID, now.AddDate(0, 0, -1))
	return hmac.Equal([]byte(nonce), []byte(today)) || hmac.Equal([]byte(nonce), []byte(yesterday))
}

func AuthJWT(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "missing authorization", http.StatusUnauthorized)
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				http.Error(w, "invalid authorization", http.StatusUnauthorized)
				return
			}
			claims, err := VerifyJWT(secret, parts[1])
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), userIDKey, claims.Sub)
			ctx = context.WithValue(ctx, canUploadKey, claims.CanUpload)
			if claims.Locale != "" {
				ctx = context.WithValue(ctx, LocaleKey, normalizeLocale(claims.Locale))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUploadCapability rejects mutating requests whose token lacks the
// upload capability. Every route that triggers provider work or writes media
// sits behind it; safe methods pass through untouched.
func RequireUploadCapability() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}
			if !CanUploadFromContext(r.Context()) {
				http.Error(w, domain.ErrPermissionDenied.Error(), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireNonce rejects mutating requests missing a valid anti-forgery token.
// Safe methods pass through untouched.
func RequireNonce(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}
			userID := UserIDFromContext(r.Context())
			if !VerifyNonce(secret, userID, r.Header.Get(NonceHeader), time.Now()) {
				http.Error(w, "invalid nonce", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey).(string); ok {
		return v
	}
	return ""
}

func CanUploadFromContext(ctx context.Context) bool {
	if v, ok := ctx.Value(canUploadKey).(bool); ok {
		return v
	}
	return false
}

func ContextWithUserID(ctx context.Context, userID string) context.Context {
	if strings.TrimSpace(userID) == "" {
		return ctx
	}
	return context.WithValue(ctx, userIDKey, userID)
}
