package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Middleware guards routes with HTTP Basic credentials and/or a bearer token.
// A request passes when it satisfies either configured scheme. When neither
// scheme is configured the middleware lets everything through.
type Middleware struct {
	username string
	password string
	token    string
}

func New(username, password, token string) *Middleware {
	return &Middleware{username: username, password: password, token: token}
}

func (m *Middleware) Enabled() bool {
	return (m.username != "" && m.password != "") || m.token != ""
}

// GinAuth returns a Gin middleware enforcing the configured credentials.
func (m *Middleware) GinAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.Enabled() {
			c.Next()
			return
		}
		if m.authenticate(c.Request) {
			c.Next()
			return
		}
		c.Header("WWW-Authenticate", `Basic realm="sitekeeper"`)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
	}
}

func (m *Middleware) authenticate(r *http.Request) bool {
	if m.token != "" {
		h := r.Header.Get("Authorization")
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(m.token)) == 1 {
				return true
			}
		}
	}
	if m.username != "" && m.password != "" {
		user, pass, ok := r.BasicAuth()
		if ok {
			userOK := subtle.ConstantTimeCompare([]byte(user), []byte(m.username)) == 1
			passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(m.password)) == 1
			if userOK && passOK {
				return true
			}
		}
	}
	return false
}
