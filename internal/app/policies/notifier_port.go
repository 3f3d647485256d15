package policies

import "context"

// Notification is a user-facing message delivered out of band.
type Notification struct {
	UserID string
	Type   string
	Title  string
	Body   string
	Data   map[string]string
}

// NotifierPort sends fire-and-forget notifications. Implementations log
// failures; a notification error never fails a booking transition.
type NotifierPort interface {
	SendBookingRequest(ctx context.Context, hostID, bookingID string)
	SendBookingConfirmation(ctx context.Context, guestID, bookingID string)
	CreateNotification(ctx context.Context, n Notification)
}
