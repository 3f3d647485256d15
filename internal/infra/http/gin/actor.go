package ginserver

import (
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"
)

const actorHeader = "X-User-ID"

// requireActor resolves the caller identity from the trusted gateway header.
// Authentication itself happens upstream; an absent header is a 401.
func requireActor(c *gin.Context) (string, bool) {
	actor := strings.TrimSpace(c.GetHeader(actorHeader))
	if actor == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing " + actorHeader + " header"})
		return "", false
	}
	return actor, true
}
