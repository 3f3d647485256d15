package dto

import (
	"time"

	domainbooking "staybook/internal/domain/booking"
	domainpricing "staybook/internal/domain/pricing"
	"staybook/internal/domain/shared/money"
)

type MoneyDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type PriceBreakdownDTO struct {
	Nights      int      `json:"nights"`
	Subtotal    MoneyDTO `json:"subtotal"`
	CleaningFee MoneyDTO `json:"cleaning_fee"`
	ServiceFee  MoneyDTO `json:"service_fee"`
	Taxes       MoneyDTO `json:"taxes"`
	Total       MoneyDTO `json:"total"`
}

type BookingView struct {
	ID            string            `json:"id"`
	ListingID     string            `json:"listing_id"`
	GuestID       string            `json:"guest_id"`
	HostID        string            `json:"host_id"`
	CheckIn       time.Time         `json:"check_in"`
	CheckOut      time.Time         `json:"check_out"`
	Guests        int               `json:"guests"`
	Status        string            `json:"status"`
	Policy        string            `json:"cancellation_policy"`
	Price         PriceBreakdownDTO `json:"price"`
	PaymentIntent string            `json:"payment_intent_id,omitempty"`
	PayoutStatus  string            `json:"payout_status,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

func MapMoney(value money.Money) MoneyDTO {
	return MoneyDTO{Amount: value.Amount, Currency: value.Currency}
}

func MapPriceBreakdown(p domainpricing.PriceBreakdown) PriceBreakdownDTO {
	return PriceBreakdownDTO{
		Nights:      p.Nights,
		Subtotal:    MapMoney(p.Subtotal),
		CleaningFee: MapMoney(p.CleaningFee),
		ServiceFee:  MapMoney(p.ServiceFee),
		Taxes:       MapMoney(p.Taxes),
		Total:       MapMoney(p.Total),
	}
}

func MapBooking(b *domainbooking.Booking) BookingView {
	if b == nil {
		return BookingView{}
	}
	return BookingView{
		ID:            string(b.ID),
		ListingID:     string(b.ListingID),
		GuestID:       b.GuestID,
		HostID:        b.HostID,
		CheckIn:       b.Range.CheckIn,
		CheckOut:      b.Range.CheckOut,
		Guests:        b.Guests,
		Status:        string(b.State),
		Policy:        string(b.Policy),
		Price:         MapPriceBreakdown(b.Price),
		PaymentIntent: b.PaymentIntent,
		PayoutStatus:  string(b.Payout),
		CreatedAt:     b.CreatedAt,
	}
}
