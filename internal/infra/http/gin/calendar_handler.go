package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	CalendarApp "staybook/internal/app/handlers/calendar"
	"staybook/internal/app/commands"
	"staybook/internal/app/dto"
	"staybook/internal/app/queries"
	infraical "staybook/internal/infra/ical"
)

type CalendarHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

func (h CalendarHandler) Sync(c *gin.Context) {
	if _, ok := requireActor(c); !ok {
		return
	}
	cmd := CalendarApp.SyncCalendarCommand{CalendarID: c.Param("id")}
	result, err := commands.Dispatch[CalendarApp.SyncCalendarCommand, *CalendarApp.SyncCalendarResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Export renders the listing's unavailable dates as an iCal document. The
// token in the path is the only credential.
func (h CalendarHandler) Export(c *gin.Context) {
	q := CalendarApp.ExportCalendarQuery{
		ListingID: c.Param("id"),
		Token:     c.Param("token"),
	}
	feed, err := queries.Ask[CalendarApp.ExportCalendarQuery, dto.CalendarFeed](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	body := infraical.EncodeFeed(feed)
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
}

var _ CalendarHTTP = CalendarHandler{}
