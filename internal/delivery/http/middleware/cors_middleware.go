package middleware

import (
	"net/http"

	"subsonic-backend/internal/delivery/http/response"
	"subsonic-backend/pkg/security"

	"github.com/gin-gonic/gin"
)

const MsgOriginRejected = "Origen no permitido"

// CORSMiddleware lets the static site post the contact form cross-origin.
// Localhost origins are only accepted outside production. Requests from any
// other non-empty origin are refused, preflighted or not.
func CORSMiddleware(allowedOrigins []string, isProduction bool) gin.HandlerFunc {
	allowed := make(map[string]bool, len(allowedOrigins)+3)
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	devOrigins := map[string]bool{
		"http://localhost:3000": true,
		"http://localhost:4321": true,
		"http://127.0.0.1:3000": true,
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		// Empty origin (same-origin requests, curl) - allow
		isAllowed := origin == "" || allowed[origin] || (!isProduction && devOrigins[origin])

		if isAllowed && origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Headers", "Content-Type, Accept, Origin, X-Requested-With, X-Request-ID")
			c.Header("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			c.Header("Access-Control-Max-Age", "86400")
		}
		c.Header("Vary", "Origin")

		if !isAllowed {
			if sl := security.DefaultLogger(); sl != nil {
				sl.LogOriginRejected(c.Request.Context(), origin, c.ClientIP(), c.GetString("RequestID"))
			}
		}

		if c.Request.Method == http.MethodOptions {
			if isAllowed {
				c.AbortWithStatus(http.StatusNoContent)
			} else {
				c.AbortWithStatus(http.StatusForbidden)
			}
			return
		}

		// Simple requests (text/plain POSTs) never preflight, so refuse them here.
		if !isAllowed {
			response.AbortWithError(c, http.StatusForbidden, MsgOriginRejected)
			return
		}

		c.Next()
	}
}
