package middleware

import (
	"context"
	"net/http"
	"strings"

	"crop-catch/internal/guard"
	"crop-catch/internal/session"

	"github.com/gin-gonic/gin"
)

// TrailHeader carries the guard states visited for the request.
const TrailHeader = "X-Guard-Trail"

const decisionKey = "GuardDecision"

type Mode int

const (
	// ModePage answers failures with redirects.
	ModePage Mode = iota
	// ModeAPI answers failures with JSON errors.
	ModeAPI
)

type Evaluator interface {
	Evaluate(ctx context.Context, id *session.Identity) guard.Decision
}

// Require runs g for every request and stops the chain unless the
// decision is authorized. The guard's scope decides whether a signed-in
// identity is enough or the admin role is needed.
func Require(g Evaluator, mode Mode) gin.HandlerFunc {
	return func(c *gin.Context) {
		d := g.Evaluate(c.Request.Context(), CurrentIdentity(c))
		c.Set(decisionKey, d)
		c.Header(TrailHeader, trail(d))

		if d.Allowed() {
			c.Next()
			return
		}
		if d.Discarded {
			// nobody is waiting for the answer
			c.Abort()
			return
		}

		switch d.State {
		case guard.StateUnauthenticated:
			deny(c, mode, "/auth", http.StatusUnauthorized, "UNAUTHENTICATED", "Not authenticated")
		case guard.StateTimedOut:
			deny(c, mode, "/", http.StatusForbidden, "UNAUTHORIZED", "Role check timed out")
		default:
			deny(c, mode, "/", http.StatusForbidden, "UNAUTHORIZED", "Unauthorized access")
		}
	}
}

// Decision returns the guard decision recorded for the request.
func Decision(c *gin.Context) (guard.Decision, bool) {
	v, ok := c.Get(decisionKey)
	if !ok {
		return guard.Decision{}, false
	}
	d, ok := v.(guard.Decision)
	return d, ok
}

func deny(c *gin.Context, mode Mode, location string, status int, code, message string) {
	if mode == ModePage {
		c.Redirect(http.StatusFound, location)
		c.Abort()
		return
	}
	abortJSON(c, status, code, message)
}

func abortJSON(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": gin.H{"code": code, "message": message}})
}

func trail(d guard.Decision) string {
	parts := make([]string, len(d.Trail))
	for i, s := range d.Trail {
		parts[i] = string(s)
	}
	return strings.Join(parts, ",")
}
