package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"crop-catch/internal/session"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	// SessionTokenKey is the cookie session field holding the access token.
	SessionTokenKey = "access_token"

	identityKey = "CurrentIdentity"
	tokenKey    = "SessionToken"
)

type Resolver interface {
	Resolve(ctx context.Context, token string) (*session.Identity, error)
}

// InjectIdentity resolves the session token, from the cookie session or a
// Bearer header, and stores the identity on the context. An invalid token
// is dropped from the cookie; a failed lookup aborts with 500 and leaves the
// cookie alone.
func InjectIdentity(r Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)

		token, fromCookie := "", false
		if raw, ok := sess.Get(SessionTokenKey).(string); ok && raw != "" {
			token, fromCookie = raw, true
		} else if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
			token = strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
		}

		if token != "" {
			id, err := r.Resolve(c.Request.Context(), token)
			switch {
			case err == nil:
				c.Set(identityKey, id)
				c.Set(tokenKey, token)
			case !errors.Is(err, session.ErrInvalidToken):
				log.Printf("[session] resolve failed: %v", err)
				abortJSON(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
				return
			case fromCookie:
				sess.Delete(SessionTokenKey)
				if err := sess.Save(); err != nil {
					log.Printf("[session] failed to clear stale cookie: %v", err)
				}
			}
		}

		c.Next()
	}
}

// CurrentIdentity returns the signed-in identity, or nil.
func CurrentIdentity(c *gin.Context) *session.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	id, _ := v.(*session.Identity)
	return id
}

// CurrentToken returns the token the identity was resolved from.
func CurrentToken(c *gin.Context) string {
	return c.GetString(tokenKey)
}
