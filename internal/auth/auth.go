package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/good-deeds/board/internal/session"
)

// CookieName is the session cookie set by the page login.
const CookieName = "session"

// Identity is the authenticated user of a request.
type Identity struct {
	UserID    int
	Username  string
	TokenID   string
	ExpiresAt time.Time
}

type ctxKey struct{}

// WithIdentity returns a context carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// CurrentUser returns the identity attached by Gateway.Identify, if any.
func CurrentUser(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

// Gateway turns request credentials into an Identity.
type Gateway struct {
	issuer   *Issuer
	denylist session.Denylist
	secure   bool
}

// NewGateway returns a Gateway. secure marks the session cookie Secure (set it when serving TLS).
func NewGateway(issuer *Issuer, denylist session.Denylist, secure bool) *Gateway {
	return &Gateway{issuer: issuer, denylist: denylist, secure: secure}
}

func (g *Gateway) Issuer() *Issuer { return g.issuer }

// Identify attaches the identity of a valid, unrevoked token to the request
// context. Requests without one pass through anonymously.
func (g *Gateway) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := tokenFromRequest(r)
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}
		claims, err := g.issuer.Parse(raw)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		revoked, err := g.denylist.Revoked(r.Context(), claims.ID)
		if err != nil {
			slog.Warn("session denylist unavailable", "error", err)
		}
		if revoked || err != nil {
			next.ServeHTTP(w, r)
			return
		}

		id := Identity{
			UserID:    claims.UserID,
			Username:  claims.Username,
			TokenID:   claims.ID,
			ExpiresAt: claims.ExpiresAt.Time,
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// RequireAuthenticated serves unauthorized to anonymous requests.
func RequireAuthenticated(unauthorized http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := CurrentUser(r.Context()); !ok {
				unauthorized.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Revoke denies id's token for the rest of its lifetime.
func (g *Gateway) Revoke(ctx context.Context, id Identity) error {
	return g.denylist.Revoke(ctx, id.TokenID, id.ExpiresAt)
}

// SetCookie stores token in the session cookie.
func (g *Gateway) SetCookie(w http.ResponseWriter, token string, claims *Claims) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  claims.ExpiresAt.Time,
		HttpOnly: true,
		Secure:   g.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (g *Gateway) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   g.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// tokenFromRequest prefers a Bearer header over the session cookie.
func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}
