package middleware

import (
	"net/http"
	"strings"

	"travelagency/internal/domain"

	"github.com/gin-gonic/gin"
)

const (
	actorKey = "actor"
	roleKey  = "userRole"
)

// TokenParser turns a bearer token into the caller identity.
type TokenParser interface {
	ParseActor(token string) (domain.Actor, error)
}

// Auth reads an optional bearer token. Requests without one continue as the
// anonymous actor; a present but invalid token is rejected.
func Auth(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			c.Set(actorKey, domain.Anonymous)
			c.Next()
			return
		}

		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			abortUnauthorized(c, "malformed authorization header")
			return
		}
		actor, err := parser.ParseActor(strings.TrimSpace(token))
		if err != nil {
			abortUnauthorized(c, err.Error())
			return
		}
		c.Set(actorKey, actor)
		c.Set(roleKey, actor.Role)
		c.Next()
	}
}

// RequireStaff rejects anonymous callers.
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		if actor, ok := ActorFrom(c); !ok || !actor.IsStaff() {
			abortUnauthorized(c, "login required")
			return
		}
		c.Next()
	}
}

// ActorFrom returns the identity set by Auth.
func ActorFrom(c *gin.Context) (domain.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return domain.Anonymous, false
	}
	actor, ok := v.(domain.Actor)
	return actor, ok
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":      msg,
		"code":       "unauthorized",
		"request_id": GetRequestID(c),
	})
}
