// Package payment provides the payment gateway used by the booking flow.
package payment

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/property-booking/internal/model"
)

// SimulatedGateway approves every charge except those made with a declined
// method ref. It stands in for a card processor in development and tests.
type SimulatedGateway struct {
	declined map[string]struct{}
	latency  time.Duration
	now      func() time.Time

	mu       sync.Mutex
	approved map[string]model.ChargeResult // by booking_id metadata
}

// Option configures a SimulatedGateway.
type Option func(*SimulatedGateway)

// WithLatency delays every charge by d, honouring context cancellation.
func WithLatency(d time.Duration) Option {
	return func(g *SimulatedGateway) { g.latency = d }
}

// NewSimulatedGateway creates a gateway that declines the given method refs.
func NewSimulatedGateway(declineMethods []string, opts ...Option) *SimulatedGateway {
	g := &SimulatedGateway{
		declined: make(map[string]struct{}),
		approved: make(map[string]model.ChargeResult),
		now:      time.Now,
	}
	for _, m := range declineMethods {
		if m = strings.TrimSpace(m); m != "" {
			g.declined[m] = struct{}{}
		}
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Charge simulates a charge. Declines are returned as unsuccessful results;
// a cancelled or expired context is returned as an error.
func (g *SimulatedGateway) Charge(ctx context.Context, req model.ChargeRequest) (*model.ChargeResult, error) {
	if g.latency > 0 {
		timer := time.NewTimer(g.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if req.AmountMinor <= 0 {
		return &model.ChargeResult{Success: false, Message: "invalid amount"}, nil
	}
	if strings.TrimSpace(req.MethodRef) == "" {
		return &model.ChargeResult{Success: false, Message: "missing payment method"}, nil
	}
	if _, ok := g.declined[req.MethodRef]; ok {
		log.Info().
			Str("method", req.MethodRef).
			Int64("amount_minor", req.AmountMinor).
			Msg("simulated charge declined")
		return &model.ChargeResult{Success: false, Message: "card declined"}, nil
	}

	txnID := g.transactionID()
	log.Debug().
		Str("transaction_id", txnID).
		Int64("amount_minor", req.AmountMinor).
		Str("currency", req.Currency).
		Str("booking_id", req.Metadata["booking_id"]).
		Msg("simulated charge approved")
	res := model.ChargeResult{Success: true, TransactionID: txnID}
	if id := req.Metadata["booking_id"]; id != "" {
		g.mu.Lock()
		g.approved[id] = res
		g.mu.Unlock()
	}
	return &res, nil
}

// Lookup returns the approved charge recorded for bookingID, or nil.
func (g *SimulatedGateway) Lookup(ctx context.Context, bookingID string) (*model.ChargeResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	res, ok := g.approved[bookingID]
	if !ok {
		return nil, nil
	}
	return &res, nil
}

func (g *SimulatedGateway) transactionID() string {
	short := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("TXN_%d_%s", g.now().Unix(), strings.ToUpper(short))
}
