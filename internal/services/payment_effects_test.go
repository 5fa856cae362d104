package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ratixpay/ratixpay-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEffectsStorage struct {
	vendaStatuses map[string]string
	updateErr     error
}

func (f *fakeEffectsStorage) UpdateVendaStatus(ctx context.Context, vendaID, status string) error {
	if f.updateErr != nil {
		return f.updateErr
	}

	f.vendaStatuses[vendaID] = status
	return nil
}

type fakeEffectsLedger struct {
	salesCredited      []string
	commissionsGranted []float64
}

func (f *fakeEffectsLedger) CreditVendorSale(ctx context.Context, vendedorID, vendaID string, gross float64) error {
	f.salesCredited = append(f.salesCredited, vendaID)
	return nil
}

func (f *fakeEffectsLedger) CreditAdminCommission(ctx context.Context, saleValue float64) error {
	f.commissionsGranted = append(f.commissionsGranted, saleValue)
	return nil
}

func successEvent() PaymentEvent {
	return PaymentEvent{
		Kind:       EventPaymentSuccess,
		PaymentID:  "PAY_1",
		Payload:    testPayload(),
		Status:     models.PaymentSuccess,
		OccurredAt: time.Now(),
	}
}

func TestPaymentEffectsOnSuccess(t *testing.T) {
	storage := &fakeEffectsStorage{vendaStatuses: make(map[string]string)}
	ledger := &fakeEffectsLedger{}
	notifier := &recordingNotifier{}
	effects := NewPaymentEffects(storage, ledger, notifier)

	require.NoError(t, effects.HandlePaymentEvent(context.Background(), successEvent()))

	assert.Equal(t, string(models.VendaPaga), storage.vendaStatuses["venda-1"])
	assert.Equal(t, []string{"venda-1"}, ledger.salesCredited)
	assert.Equal(t, []float64{150}, ledger.commissionsGranted)
	assert.Len(t, notifier.messages, 1)
}

func TestPaymentEffectsOnFailure(t *testing.T) {
	testCases := []PaymentEventKind{
		EventPaymentFailure,
		EventPaymentTimeout,
		EventPaymentMaxRetries,
		EventPaymentError,
	}

	for _, kind := range testCases {
		t.Run(string(kind), func(t *testing.T) {
			storage := &fakeEffectsStorage{vendaStatuses: make(map[string]string)}
			ledger := &fakeEffectsLedger{}
			effects := NewPaymentEffects(storage, ledger, &recordingNotifier{})

			event := successEvent()
			event.Kind = kind

			require.NoError(t, effects.HandlePaymentEvent(context.Background(), event))

			assert.Equal(t, string(models.VendaCancelada), storage.vendaStatuses["venda-1"])

			// No money moves on a failed payment.
			assert.Empty(t, ledger.salesCredited)
			assert.Empty(t, ledger.commissionsGranted)
		})
	}
}

func TestPaymentEffectsKeepGoingOnStorageError(t *testing.T) {
	storage := &fakeEffectsStorage{
		vendaStatuses: make(map[string]string),
		updateErr:     errors.New("db is down"),
	}
	ledger := &fakeEffectsLedger{}
	notifier := &recordingNotifier{}
	effects := NewPaymentEffects(storage, ledger, notifier)

	require.NoError(t, effects.HandlePaymentEvent(context.Background(), successEvent()))

	// The credit and the notification still happen.
	assert.Equal(t, []string{"venda-1"}, ledger.salesCredited)
	assert.Len(t, notifier.messages, 1)
}
