package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yukikurage/task-tracker-api/internal/constants"
)

// RequestID tags every request with an id, reusing a valid incoming X-Request-ID
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(constants.HeaderRequestID)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}

		c.Set(constants.ContextKeyRequestID, requestID)
		c.Header(constants.HeaderRequestID, requestID)
		c.Next()
	}
}

// GetRequestID retrieves the current request ID from context
func GetRequestID(c *gin.Context) (string, bool) {
	requestID, exists := c.Get(constants.ContextKeyRequestID)
	if !exists {
		return "", false
	}

	id, ok := requestID.(string)
	return id, ok
}
