package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"staybook/internal/domain/shared/fault"
)

// respondError maps a classified error to an HTTP status and a message-only
// body. Unclassified errors become 500 without leaking internals.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if kind, ok := fault.KindOf(err); ok {
		switch kind {
		case fault.KindValidation:
			status = http.StatusBadRequest
		case fault.KindNotFound:
			status = http.StatusNotFound
		case fault.KindForbidden:
			status = http.StatusForbidden
		case fault.KindConflict:
			status = http.StatusConflict
		case fault.KindExternal:
			status = http.StatusBadGateway
		}
	}
	c.JSON(status, gin.H{"error": fault.Message(err)})
}
