package ginserver

import (
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"staybook/internal/app/commands"
	BookingApp "staybook/internal/app/handlers/booking"
	"staybook/internal/app/dto"
	"staybook/internal/app/queries"
)

type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

type createBookingRequest struct {
	ListingID string    `json:"listing_id"`
	CheckIn   time.Time `json:"check_in"`
	CheckOut  time.Time `json:"check_out"`
	Guests    int       `json:"guests"`
}

func (h BookingHandler) Create(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := BookingApp.RequestBookingCommand{
		CommandID:       uuid.NewString(),
		ListingID:       req.ListingID,
		GuestID:         actor,
		CheckIn:         req.CheckIn,
		CheckOut:        req.CheckOut,
		Guests:          req.Guests,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[BookingApp.RequestBookingCommand, *BookingApp.RequestBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h BookingHandler) Confirm(c *gin.Context) {
	cmd := BookingApp.ConfirmBookingCommand{BookingID: c.Param("id")}
	result, err := commands.Dispatch[BookingApp.ConfirmBookingCommand, *BookingApp.ConfirmBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Accept(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	cmd := BookingApp.AcceptBookingCommand{BookingID: c.Param("id"), HostID: actor}
	result, err := commands.Dispatch[BookingApp.AcceptBookingCommand, *BookingApp.AcceptBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type declineBookingRequest struct {
	Reason string `json:"reason"`
}

func (h BookingHandler) Decline(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req declineBookingRequest
	_ = c.ShouldBindJSON(&req)
	cmd := BookingApp.DeclineBookingCommand{BookingID: c.Param("id"), HostID: actor, Reason: req.Reason}
	result, err := commands.Dispatch[BookingApp.DeclineBookingCommand, *BookingApp.DeclineBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type cancelBookingRequest struct {
	Reason string `json:"reason"`
}

func (h BookingHandler) Cancel(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req cancelBookingRequest
	_ = c.ShouldBindJSON(&req)
	cmd := BookingApp.CancelBookingCommand{BookingID: c.Param("id"), ActorID: actor, Reason: req.Reason}
	result, err := commands.Dispatch[BookingApp.CancelBookingCommand, *BookingApp.CancelBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) CheckIn(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	cmd := BookingApp.CheckInCommand{BookingID: c.Param("id"), ActorID: actor}
	result, err := commands.Dispatch[BookingApp.CheckInCommand, *BookingApp.StayTransitionResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) CheckOut(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	cmd := BookingApp.CheckOutCommand{BookingID: c.Param("id"), ActorID: actor}
	result, err := commands.Dispatch[BookingApp.CheckOutCommand, *BookingApp.StayTransitionResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Get(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	q := BookingApp.GetBookingQuery{BookingID: c.Param("id"), ActorID: actor}
	view, err := queries.Ask[BookingApp.GetBookingQuery, dto.BookingView](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

var _ BookingHTTP = BookingHandler{}
