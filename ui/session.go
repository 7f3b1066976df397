package ui

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sedes/app"
	"sedes/domain/core"
)

const (
	sessionCookie = "sedes_session"
	sessionKey    = "session"
)

// sessionMiddleware attaches the caller's Session, issuing a cookie for new
// clients. Unknown or malformed cookies start a fresh session.
func (s *Server) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var sess *app.Session
		if raw, err := c.Cookie(sessionCookie); err == nil {
			if id, err := core.ParseSessionID(raw); err == nil {
				sess = s.service.Session(id)
			}
		}
		if sess == nil {
			sess = s.service.NewSession()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(sessionCookie, sess.ID().String(), int(s.options.SessionTTL.Seconds()), "/", "", false, true)
		}
		c.Set(sessionKey, sess)
		c.Next()
	}
}

func sessionFrom(c *gin.Context) *app.Session {
	return c.MustGet(sessionKey).(*app.Session)
}
