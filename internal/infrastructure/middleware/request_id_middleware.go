package middleware

import (
	"github.com/gin-gonic/gin"

	"streampool/pkg/utils"
)

const requestIDHeader = "X-Request-ID"

// RequestIDMiddleware tags every request with an id so log lines from one
// request can be correlated. An id supplied by the caller is kept.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = utils.GenerateRequestID()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}
