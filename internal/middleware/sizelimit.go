package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/jwalitptl/clinic-console/pkg/errors"
	"github.com/jwalitptl/clinic-console/pkg/httputil"
)

// DefaultMaxBodySize bounds request bodies. Doctor records carry image URLs,
// never image data.
const DefaultMaxBodySize = 1 << 20

// SizeLimit rejects bodies declared larger than maxBytes and caps the reader
// for bodies that do not declare a length.
func SizeLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			httputil.RespondWithError(c, apperrors.BadRequest(
				fmt.Sprintf("request body exceeds %d bytes", maxBytes), nil))
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
