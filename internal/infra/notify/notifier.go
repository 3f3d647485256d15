package notify

import (
	"context"
	"log/slog"

	"staybook/internal/app/policies"
)

// LogNotifier records notifications to the structured log. It stands in for a
// push or email channel; delivery failures never exist here so booking flows
// stay unaffected.
type LogNotifier struct {
	Logger *slog.Logger
}

var _ policies.NotifierPort = (*LogNotifier)(nil)

func (n *LogNotifier) SendBookingRequest(ctx context.Context, hostID, bookingID string) {
	n.CreateNotification(ctx, policies.Notification{
		UserID: hostID,
		Type:   "booking.requested",
		Title:  "New booking request",
		Body:   "A guest requested to book your listing.",
		Data:   map[string]string{"booking_id": bookingID},
	})
}

func (n *LogNotifier) SendBookingConfirmation(ctx context.Context, guestID, bookingID string) {
	n.CreateNotification(ctx, policies.Notification{
		UserID: guestID,
		Type:   "booking.confirmed",
		Title:  "Booking confirmed",
		Body:   "Your booking is confirmed.",
		Data:   map[string]string{"booking_id": bookingID},
	})
}

func (n *LogNotifier) CreateNotification(_ context.Context, msg policies.Notification) {
	if n.Logger == nil {
		return
	}
	n.Logger.Info("notification",
		slog.String("user_id", msg.UserID),
		slog.String("type", msg.Type),
		slog.String("title", msg.Title),
		slog.Any("data", msg.Data))
}
