// gemchat/middlewares/session.go
package middlewares

import (
	"context"
	"net/http"
	"time"

	"gemchat/gemchat/config"
	"gemchat/gemchat/sources/session"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const IdentityKey contextKey = "identity"

// CookieName holds the signed session token. The token only carries the
// opaque session id; the identity itself lives server-side in the store.
const CookieName = "gemchat_session"

// SessionMiddleware provisions a guest identity for any request that does
// not present a valid session, sets the 7-day cookie, and threads the
// immutable identity value through the request context.
func SessionMiddleware(cfg config.Config, sessions *session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cookie, err := r.Cookie(CookieName); err == nil {
				if sid, ok := parseSessionToken(cookie.Value, cfg.SessionSecret); ok {
					if identity, found := sessions.Get(sid); found {
						next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), identity)))
						return
					}
				}
			}

			// No usable session: mint a fresh guest.
			sid, identity := sessions.Mint()
			token, err := signSessionToken(sid, cfg.SessionSecret)
			if err != nil {
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}
			http.SetCookie(w, &http.Cookie{
				Name:     CookieName,
				Value:    token,
				Path:     "/",
				MaxAge:   int(session.TTL / time.Second),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), identity)))
		})
	}
}

// IdentityFrom returns the identity attached by SessionMiddleware.
func IdentityFrom(ctx context.Context) (session.Identity, bool) {
	identity, ok := ctx.Value(IdentityKey).(session.Identity)
	return identity, ok
}

func withIdentity(ctx context.Context, identity session.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}

func signSessionToken(sessionID, secret string) (string, error) {
	claims := jwt.MapClaims{
		"sid": sessionID,
		"exp": time.Now().Add(session.TTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func parseSessionToken(tokenStr, secret string) (string, bool) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return "", false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", false
	}
	sid, ok := claims["sid"].(string)
	if !ok || sid == "" {
		return "", false
	}
	return sid, true
}
