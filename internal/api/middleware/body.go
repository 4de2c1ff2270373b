package middleware

import (
	"bytes"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/coderegistry/internal/shared/utils"
)

// JSONBody rejects request bodies that are oversized or not well-formed
// JSON before a handler binds them. Requests without a body pass through.
func JSONBody(v *utils.JSONSizeValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body == nil || c.Request.ContentLength == 0 {
			c.Next()
			return
		}

		if c.Request.ContentLength > int64(v.MaxSize()) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
			return
		}

		data, err := io.ReadAll(io.LimitReader(c.Request.Body, int64(v.MaxSize())+1))
		_ = c.Request.Body.Close()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
			return
		}
		if err := v.ValidateSize(data); err != nil {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
			return
		}
		if len(data) > 0 {
			if err := v.ValidateJSON(data); err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}

		c.Request.Body = io.NopCloser(bytes.NewReader(data))
		c.Next()
	}
}
