package payments

import (
	"context"
	"fmt"
	"sync"

	"staybook/internal/app/policies"
	"staybook/internal/domain/shared/fault"
	"staybook/internal/domain/shared/money"
)

// MemoryGateway is a deterministic in-process stand-in for the payment
// provider, used in tests and local runs without a gateway.
type MemoryGateway struct {
	mu        sync.Mutex
	seq       int
	FailNext  bool
	intents   map[string]money.Money
	confirmed map[string]bool
	refunds   map[string]money.Money
	transfers map[string]money.Money
}

var _ policies.PaymentsPort = (*MemoryGateway)(nil)

func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{
		intents:   make(map[string]money.Money),
		confirmed: make(map[string]bool),
		refunds:   make(map[string]money.Money),
		transfers: make(map[string]money.Money),
	}
}

func (g *MemoryGateway) CreatePaymentIntent(_ context.Context, amount money.Money, _ map[string]string) (policies.PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FailNext {
		g.FailNext = false
		return policies.PaymentIntent{}, fault.New(fault.KindExternal, "payment gateway unavailable")
	}
	g.seq++
	id := fmt.Sprintf("pi_%04d", g.seq)
	g.intents[id] = amount
	return policies.PaymentIntent{ID: id, ClientSecret: id + "_secret"}, nil
}

func (g *MemoryGateway) ConfirmPayment(_ context.Context, paymentIntentID string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FailNext {
		g.FailNext = false
		return false, fault.New(fault.KindExternal, "payment gateway unavailable")
	}
	if _, ok := g.intents[paymentIntentID]; !ok {
		return false, nil
	}
	g.confirmed[paymentIntentID] = true
	return true, nil
}

func (g *MemoryGateway) RefundPayment(_ context.Context, _ string, amount money.Money, _ string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FailNext {
		g.FailNext = false
		return "", fault.New(fault.KindExternal, "payment gateway unavailable")
	}
	g.seq++
	id := fmt.Sprintf("re_%04d", g.seq)
	g.refunds[id] = amount
	return id, nil
}

func (g *MemoryGateway) CreateTransfer(_ context.Context, _ string, amount money.Money, _ string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	id := fmt.Sprintf("tr_%04d", g.seq)
	g.transfers[id] = amount
	return id, nil
}

// Refunded sums all refunds issued so far, for assertions.
func (g *MemoryGateway) Refunded() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	var total int64
	for _, m := range g.refunds {
		total += m.Amount
	}
	return total
}

// Confirmed reports whether an intent was confirmed.
func (g *MemoryGateway) Confirmed(paymentIntentID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.confirmed[paymentIntentID]
}
