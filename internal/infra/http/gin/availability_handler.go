package ginserver

import (
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	AvailabilityApp "staybook/internal/app/handlers/availability"
	"staybook/internal/app/commands"
	"staybook/internal/app/dto"
	"staybook/internal/app/queries"
	domainavailability "staybook/internal/domain/availability"
)

type AvailabilityHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

func (h AvailabilityHandler) Calendar(c *gin.Context) {
	start, err := parseDateParam(c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start must be YYYY-MM-DD"})
		return
	}
	end, err := parseDateParam(c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end must be YYYY-MM-DD"})
		return
	}
	q := AvailabilityApp.GetCalendarQuery{ListingID: c.Param("id"), Start: start, End: end}
	view, err := queries.Ask[AvailabilityApp.GetCalendarQuery, dto.AvailabilityCalendar](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type addBlockRequest struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Reason string    `json:"reason"`
}

func (h AvailabilityHandler) AddBlock(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req addBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	reason := req.Reason
	if reason == "" {
		reason = string(domainavailability.ReasonHostBlocked)
	}
	cmd := AvailabilityApp.AddBlockCommand{
		BlockID:   uuid.NewString(),
		ListingID: c.Param("id"),
		HostID:    actor,
		Start:     req.Start,
		End:       req.End,
		Reason:    reason,
	}
	result, err := commands.Dispatch[AvailabilityApp.AddBlockCommand, *AvailabilityApp.AddBlockResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h AvailabilityHandler) RemoveBlock(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	cmd := AvailabilityApp.RemoveBlockCommand{
		ListingID: c.Param("id"),
		BlockID:   c.Param("blockId"),
		HostID:    actor,
	}
	result, err := commands.Dispatch[AvailabilityApp.RemoveBlockCommand, *AvailabilityApp.RemoveBlockResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type setOverrideRequest struct {
	Date         string `json:"date"`
	NightlyCents int64  `json:"nightly_cents"`
	Reason       string `json:"reason"`
}

func (h AvailabilityHandler) SetPriceOverride(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req setOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	day, err := parseDateParam(req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}
	cmd := AvailabilityApp.SetPriceOverrideCommand{
		ListingID:    c.Param("id"),
		HostID:       actor,
		Date:         day,
		NightlyCents: req.NightlyCents,
		Reason:       req.Reason,
	}
	result, err := commands.Dispatch[AvailabilityApp.SetPriceOverrideCommand, *AvailabilityApp.PriceOverrideResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AvailabilityHandler) RemovePriceOverride(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	cmd := AvailabilityApp.RemovePriceOverrideCommand{
		ListingID: c.Param("id"),
		HostID:    actor,
		Date:      c.Param("date"),
	}
	result, err := commands.Dispatch[AvailabilityApp.RemovePriceOverrideCommand, *AvailabilityApp.PriceOverrideResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func parseDateParam(raw string) (time.Time, error) {
	return time.Parse(domainavailability.OverrideDateLayout, raw)
}

var _ AvailabilityHTTP = AvailabilityHandler{}
