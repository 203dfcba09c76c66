package response

import (
	"github.com/gin-gonic/gin"
)

// Message is the success body the site form expects.
type Message struct {
	Message string `json:"message"`
}

// Failure is the error body the site form expects.
type Failure struct {
	Error string `json:"error"`
}

// Success sends a success response
func Success(c *gin.Context, code int, message string) {
	setRequestID(c)
	c.JSON(code, Message{Message: message})
}

// Error sends an error response
func Error(c *gin.Context, code int, message string) {
	setRequestID(c)
	c.JSON(code, Failure{Error: message})
}

// AbortWithError sends an error response and stops the handler chain.
func AbortWithError(c *gin.Context, code int, message string) {
	setRequestID(c)
	c.AbortWithStatusJSON(code, Failure{Error: message})
}

// The body shape is fixed by the site, so the request id travels as a header.
func setRequestID(c *gin.Context) {
	if id := c.GetString("RequestID"); id != "" {
		c.Header("X-Request-ID", id)
	}
}
