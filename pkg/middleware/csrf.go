package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// CSRFCookieName carries the double-submit token; it is readable by the
	// frontend so it can echo the value in the header.
	CSRFCookieName = "jargoyle_csrf"
	// CSRFHeaderName is the request header the token must be echoed in.
	CSRFHeaderName = "X-CSRF-Token"
)

// CSRF enforces double-submit-cookie protection for mutating requests.
// Paths under apiPrefix are exempt: the SPA sends JSON via fetch, not HTML
// form submissions, so CSRF protection there is unnecessary.
func CSRF(apiPrefix string) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			// issue a token on safe requests so later form posts can echo it
			if _, err := c.Cookie(CSRFCookieName); err != nil {
				if tok, err := newCSRFToken(); err == nil {
					c.SetCookie(CSRFCookieName, tok, 0, "/", "", false, false)
				}
			}
			c.Next()
			return
		}

		if strings.HasPrefix(c.Request.URL.Path, apiPrefix) {
			c.Next()
			return
		}

		cookie, err := c.Cookie(CSRFCookieName)
		header := c.GetHeader(CSRFHeaderName)
		if err != nil || cookie == "" || header == "" ||
			subtle.ConstantTimeCompare([]byte(cookie), []byte(header)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "CSRF token missing or invalid"})
			return
		}
		c.Next()
	}
}

func newCSRFToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
