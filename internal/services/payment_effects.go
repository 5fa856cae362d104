package services

import (
	"context"

	"github.com/ratixpay/ratixpay-backend/internal/logger"
	"github.com/ratixpay/ratixpay-backend/internal/models"
	"go.uber.org/zap"
)

type effectsStorage interface {
	UpdateVendaStatus(ctx context.Context, vendaID, status string) error
}

type effectsLedger interface {
	CreditVendorSale(ctx context.Context, vendedorID, vendaID string, gross float64) error

	CreditAdminCommission(ctx context.Context, saleValue float64) error
}

// PaymentEffects applies the business consequences of a finalized
// payment: the sale flips to paid or cancelled, and a successful
// payment credits the vendor and the platform. Every step is best
// effort; a failed step is logged and the rest still run, because the
// terminal status itself is already durable.
type PaymentEffects struct {
	storage  effectsStorage
	ledger   effectsLedger
	notifier Notifier
}

func NewPaymentEffects(storage effectsStorage, ledger effectsLedger, notifier Notifier) *PaymentEffects {
	return &PaymentEffects{
		storage:  storage,
		ledger:   ledger,
		notifier: notifier,
	}
}

func (e *PaymentEffects) HandlePaymentEvent(ctx context.Context, event PaymentEvent) error {
	vendaStatus := models.VendaCancelada
	if event.Kind == EventPaymentSuccess {
		vendaStatus = models.VendaPaga
	}

	if event.Payload.VendaID != "" {
		if err := e.storage.UpdateVendaStatus(ctx, event.Payload.VendaID, string(vendaStatus)); err != nil {
			logger.Log.Error("failed to update venda status",
				zap.String("vendaID", event.Payload.VendaID),
				zap.String("status", string(vendaStatus)),
				zap.Error(err),
			)
		}
	}

	if event.Kind == EventPaymentSuccess {
		if err := e.ledger.CreditVendorSale(ctx, event.Payload.VendedorID, event.Payload.VendaID, event.Payload.Valor); err != nil {
			logger.Log.Error("failed to credit vendor for sale",
				zap.String("vendaID", event.Payload.VendaID),
				zap.Error(err),
			)
		}

		if err := e.ledger.CreditAdminCommission(ctx, event.Payload.Valor); err != nil {
			logger.Log.Error("failed to credit admin commission",
				zap.String("vendaID", event.Payload.VendaID),
				zap.Error(err),
			)
		}
	}

	if err := e.notifier.Publish(ctx, ChannelPayments, event); err != nil {
		logger.Log.Warn("failed to publish payment notification",
			zap.String("paymentID", event.PaymentID),
			zap.Error(err),
		)
	}

	return nil
}
