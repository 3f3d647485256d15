package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"staybook/internal/app/policies"
	"staybook/internal/domain/shared/fault"
	"staybook/internal/domain/shared/money"
)

// Gateway talks to the external payment provider over HTTP. All failures come
// back as external-service errors so callers can decide between aborting and
// degraded acceptance.
type Gateway struct {
	Client   *http.Client
	Endpoint string
	APIKey   string
	Logger   *slog.Logger
}

var _ policies.PaymentsPort = (*Gateway)(nil)

type intentRequest struct {
	AmountCents int64             `json:"amount_cents"`
	Currency    string            `json:"currency"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type intentResponse struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

type confirmResponse struct {
	Status string `json:"status"`
}

type refundRequest struct {
	PaymentIntentID string `json:"payment_intent_id"`
	AmountCents     int64  `json:"amount_cents"`
	Reason          string `json:"reason,omitempty"`
}

type refundResponse struct {
	ID string `json:"id"`
}

type transferRequest struct {
	Destination string `json:"destination"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	BookingID   string `json:"booking_id"`
}

type transferResponse struct {
	ID string `json:"id"`
}

func (g *Gateway) CreatePaymentIntent(ctx context.Context, amount money.Money, metadata map[string]string) (policies.PaymentIntent, error) {
	var out intentResponse
	req := intentRequest{AmountCents: amount.Amount, Currency: amount.Currency, Metadata: metadata}
	if err := g.post(ctx, "/v1/payment_intents", req, &out); err != nil {
		return policies.PaymentIntent{}, err
	}
	if out.ID == "" {
		return policies.PaymentIntent{}, fault.New(fault.KindExternal, "payment gateway returned empty intent id")
	}
	return policies.PaymentIntent{ID: out.ID, ClientSecret: out.ClientSecret}, nil
}

func (g *Gateway) ConfirmPayment(ctx context.Context, paymentIntentID string) (bool, error) {
	var out confirmResponse
	path := "/v1/payment_intents/" + paymentIntentID + "/confirm"
	if err := g.post(ctx, path, struct{}{}, &out); err != nil {
		return false, err
	}
	return out.Status == "succeeded", nil
}

func (g *Gateway) RefundPayment(ctx context.Context, paymentIntentID string, amount money.Money, reason string) (string, error) {
	var out refundResponse
	req := refundRequest{PaymentIntentID: paymentIntentID, AmountCents: amount.Amount, Reason: reason}
	if err := g.post(ctx, "/v1/refunds", req, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (g *Gateway) CreateTransfer(ctx context.Context, destinationAccount string, amount money.Money, bookingID string) (string, error) {
	var out transferResponse
	req := transferRequest{Destination: destinationAccount, AmountCents: amount.Amount, Currency: amount.Currency, BookingID: bookingID}
	if err := g.post(ctx, "/v1/transfers", req, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (g *Gateway) post(ctx context.Context, path string, body any, out any) error {
	if g.Client == nil || g.Endpoint == "" {
		return fault.New(fault.KindExternal, "payment gateway not configured")
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return fault.Wrap(fault.KindExternal, err, "payment gateway request encode failed")
	}
	url := strings.TrimRight(g.Endpoint, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return fault.Wrap(fault.KindExternal, err, "payment gateway request build failed")
	}
	req.Header.Set("Content-Type", "application/json")
	if g.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.APIKey)
	}
	resp, err := g.Client.Do(req)
	if err != nil {
		return fault.Wrap(fault.KindExternal, err, "payment gateway unreachable")
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fault.Wrap(fault.KindExternal, err, "payment gateway response read failed")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if g.Logger != nil {
			g.Logger.Warn("payment gateway error",
				slog.String("path", path),
				slog.Int("status", resp.StatusCode))
		}
		return fault.New(fault.KindExternal, "payment gateway returned status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fault.Wrap(fault.KindExternal, err, fmt.Sprintf("payment gateway response decode failed for %s", path))
	}
	return nil
}
