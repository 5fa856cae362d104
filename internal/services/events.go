package services

import (
	"context"
	"time"

	"github.com/ratixpay/ratixpay-backend/internal/models"
)

type PaymentEventKind string

const (
	EventPaymentSuccess    PaymentEventKind = "paymentSuccess"
	EventPaymentFailure    PaymentEventKind = "paymentFailure"
	EventPaymentTimeout    PaymentEventKind = "paymentTimeout"
	EventPaymentMaxRetries PaymentEventKind = "paymentMaxRetries"
	EventPaymentError      PaymentEventKind = "paymentError"
)

// PaymentEvent is emitted exactly once per payment, when it reaches a
// terminal status.
type PaymentEvent struct {
	Kind       PaymentEventKind
	PaymentID  string
	Payload    models.PaymentPayload
	Status     models.PaymentStatus
	Message    string
	OccurredAt time.Time
}

// PaymentListener receives terminal payment events. Listeners are
// invoked in subscription order; an error from one doesn't stop the
// next.
type PaymentListener interface {
	HandlePaymentEvent(ctx context.Context, event PaymentEvent) error
}

func eventKindFor(status models.PaymentStatus) PaymentEventKind {
	switch status {
	case models.PaymentSuccess:
		return EventPaymentSuccess
	case models.PaymentTimeout:
		return EventPaymentTimeout
	case models.PaymentMaxRetries:
		return EventPaymentMaxRetries
	case models.PaymentError:
		return EventPaymentError
	default:
		return EventPaymentFailure
	}
}
