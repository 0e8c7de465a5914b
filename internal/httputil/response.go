// Package httputil provides shared HTTP response helpers.
package httputil

import "github.com/gin-gonic/gin"

// errorBody is the inner object of the error envelope.
type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// RespondError writes the standard error envelope and aborts the request.
// Every error leaves the API as {"error":{code,message,details}} so
// clients can switch on one shape.
func RespondError(c *gin.Context, status int, code, message string, details ...any) {
	body := errorBody{
		Code:    code,
		Message: message,
	}
	if len(details) > 0 && details[0] != nil {
		body.Details = details[0]
	}

	if rid, exists := c.Get("request_id"); exists {
		if s, ok := rid.(string); ok {
			body.RequestID = s
		}
	}

	c.AbortWithStatusJSON(status, gin.H{"error": body})
}
