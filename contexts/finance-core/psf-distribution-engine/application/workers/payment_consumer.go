package workers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"

	application "sacco/contexts/finance-core/psf-distribution-engine/application"
	"sacco/contexts/finance-core/psf-distribution-engine/ports"

	"github.com/shopspring/decimal"
)

const (
	paymentApprovedTopic = "payment.approved"
	defaultConsumerGroup = "psf-distribution-cg"
	defaultDedupTTL      = 7 * 24 * time.Hour
)

// PaymentApprovedConsumer reacts to payment approvals from the admin flow.
// The engine's batch append is the hard exactly-once guard; event dedup here
// just avoids burning a distribution attempt on an obvious redelivery.
type PaymentApprovedConsumer struct {
	Subscriber    ports.EventSubscriber
	Service       application.Service
	Dedup         ports.EventDedupStore
	Clock         ports.Clock
	ConsumerGroup string
	DedupTTL      time.Duration
	Logger        *slog.Logger
}

type paymentApprovedPayload struct {
	PaymentID     string `json:"payment_id"`
	PayerMemberID string `json:"payer_member_id"`
	UnitAmount    string `json:"unit_amount"`
	TotalAmount   string `json:"total_amount"`
}

func (c PaymentApprovedConsumer) Start(ctx context.Context) error {
	group := c.ConsumerGroup
	if group == "" {
		group = defaultConsumerGroup
	}
	return c.Subscriber.Subscribe(ctx, paymentApprovedTopic, group, c.handleApproved)
}

func (c PaymentApprovedConsumer) handleApproved(ctx context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(c.Logger)
	now := time.Now().UTC()
	if c.Clock != nil {
		now = c.Clock.Now().UTC()
	}

	if c.Dedup != nil {
		alreadyProcessed, err := c.Dedup.ReserveEvent(ctx, event.EventID, hashPayload(event.Data), now.Add(c.dedupTTL()))
		if err != nil {
			logger.Error("payment event dedupe failed",
				"event", "psf_distribution_payment_dedupe_failed",
				"module", "finance-core/psf-distribution-engine",
				"layer", "worker",
				"event_id", event.EventID,
				"error", err.Error(),
			)
			return err
		}
		if alreadyProcessed {
			logger.Debug("payment event already processed",
				"event", "psf_distribution_payment_event_replayed",
				"module", "finance-core/psf-distribution-engine",
				"layer", "worker",
				"event_id", event.EventID,
			)
			return nil
		}
	}

	var payload paymentApprovedPayload
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		logger.Error("payment event decode failed",
			"event", "psf_distribution_payment_decode_failed",
			"module", "finance-core/psf-distribution-engine",
			"layer", "worker",
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}

	// An absent unit falls back to the configured default; a malformed one
	// must not, or the run would commit irreversibly at the wrong amount.
	unit := decimal.Zero
	if payload.UnitAmount != "" {
		parsed, err := decimal.NewFromString(payload.UnitAmount)
		if err != nil {
			logger.Error("payment event has invalid unit amount",
				"event", "psf_distribution_payment_invalid_unit",
				"module", "finance-core/psf-distribution-engine",
				"layer", "worker",
				"event_id", event.EventID,
				"unit_amount", payload.UnitAmount,
			)
			return err
		}
		unit = parsed
	}
	total, err := decimal.NewFromString(payload.TotalAmount)
	if err != nil {
		logger.Error("payment event has invalid total amount",
			"event", "psf_distribution_payment_invalid_total",
			"module", "finance-core/psf-distribution-engine",
			"layer", "worker",
			"event_id", event.EventID,
			"total_amount", payload.TotalAmount,
		)
		return err
	}

	_, replayed, err := c.Service.Distribute(ctx, ports.DistributeInput{
		PaymentID:     payload.PaymentID,
		PayerMemberID: payload.PayerMemberID,
		UnitAmount:    unit,
		TotalAmount:   total,
	})
	if err != nil {
		logger.Error("payment-triggered distribution failed",
			"event", "psf_distribution_payment_consume_failed",
			"module", "finance-core/psf-distribution-engine",
			"layer", "worker",
			"event_id", event.EventID,
			"payment_id", payload.PaymentID,
			"error", err.Error(),
		)
		return err
	}

	logger.Info("payment approval consumed",
		"event", "psf_distribution_payment_consumed",
		"module", "finance-core/psf-distribution-engine",
		"layer", "worker",
		"event_id", event.EventID,
		"payment_id", payload.PaymentID,
		"replayed", replayed,
	)
	return nil
}

func (c PaymentApprovedConsumer) dedupTTL() time.Duration {
	if c.DedupTTL <= 0 {
		return defaultDedupTTL
	}
	return c.DedupTTL
}

func hashPayload(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
