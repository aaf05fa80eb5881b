package httpx

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	ridKey   = "rid"
	actorKey = "actor"
)

// Actor identifies the authenticated caller. The auth gateway in front of the
// API resolves the token and forwards identity as headers; RequireActor is the
// only place they are read, everything downstream gets an explicit value.
type Actor struct {
	ID   string
	Role string
}

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-ID")
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(ridKey, rid)
		c.Writer.Header().Set("X-Request-ID", rid)
		c.Next()
	}
}

// RequireActor rejects requests without a resolved identity.
func RequireActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		a := Actor{
			ID:   c.GetHeader("X-Actor-Id"),
			Role: c.GetHeader("X-Actor-Role"),
		}
		if a.ID == "" || a.Role == "" {
			Fail(c, http.StatusUnauthorized, "missing actor identity")
			c.Abort()
			return
		}
		c.Set(actorKey, a)
		c.Next()
	}
}

// ActorFrom returns the actor attached by RequireActor.
func ActorFrom(c *gin.Context) Actor {
	v, _ := c.Get(actorKey)
	a, _ := v.(Actor)
	return a
}

// Logger writes one line per request. The actor shows up once RequireActor has
// resolved it; anonymous endpoints (healthz) log a dash.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		rid, _ := c.Get(ridKey)
		who := "-"
		if a := ActorFrom(c); a.ID != "" {
			who = a.ID + "/" + a.Role
		}
		log.Printf("[http] rid=%v actor=%s %s %s status=%d dur=%s",
			rid, who, c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
