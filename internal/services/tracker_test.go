package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ratixpay/ratixpay-backend/internal/database"
	"github.com/ratixpay/ratixpay-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTrackerStorage struct {
	mu        sync.Mutex
	created   []database.PagamentoDB
	terminal  map[string]models.PaymentStatus
	pending   []database.PagamentoDB
	createErr error
}

func newFakeTrackerStorage() *fakeTrackerStorage {
	return &fakeTrackerStorage{terminal: make(map[string]models.PaymentStatus)}
}

func (f *fakeTrackerStorage) CreatePagamento(ctx context.Context, p database.PagamentoDB) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return f.createErr
	}

	f.created = append(f.created, p)
	return nil
}

func (f *fakeTrackerStorage) MarkPagamentoTerminal(ctx context.Context, referencia string, status database.PaymentStatusDB, detalhes string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.terminal[referencia]; ok {
		return false, nil
	}

	f.terminal[referencia] = status.PaymentStatus
	return true, nil
}

func (f *fakeTrackerStorage) FindPendingPagamentos(ctx context.Context) ([]database.PagamentoDB, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.pending, nil
}

type fakeStatusGateway struct {
	mu       sync.Mutex
	statuses map[string]*models.GatewayStatus
	errs     map[string]error
	calls    map[string]int
}

func newFakeStatusGateway() *fakeStatusGateway {
	return &fakeStatusGateway{
		statuses: make(map[string]*models.GatewayStatus),
		errs:     make(map[string]error),
		calls:    make(map[string]int),
	}
}

func (f *fakeStatusGateway) CheckStatus(ctx context.Context, referencia string) (*models.GatewayStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls[referencia]++

	if err, ok := f.errs[referencia]; ok {
		return nil, err
	}

	return f.statuses[referencia], nil
}

type recordingListener struct {
	mu     sync.Mutex
	events []PaymentEvent
}

func (l *recordingListener) HandlePaymentEvent(ctx context.Context, event PaymentEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.events = append(l.events, event)
	return nil
}

func (l *recordingListener) recorded() []PaymentEvent {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]PaymentEvent, len(l.events))
	copy(out, l.events)
	return out
}

func testPayload() models.PaymentPayload {
	return models.PaymentPayload{
		VendaID:    "venda-1",
		VendedorID: "vendedor-1",
		Valor:      150,
		Metodo:     models.MethodMpesa,
		Telefone:   "841234567",
	}
}

func newTestTracker(storage *fakeTrackerStorage, gateway *fakeStatusGateway, now *time.Time) *PaymentTracker {
	tracker := NewPaymentTracker(storage, gateway)
	tracker.now = func() time.Time { return *now }
	return tracker
}

func TestRegisterPayment(t *testing.T) {
	storage := newFakeTrackerStorage()
	gateway := newFakeStatusGateway()
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	tracker := newTestTracker(storage, gateway, &now)

	pending, err := tracker.Register(context.Background(), "PAY_1", testPayload())
	require.NoError(t, err)

	assert.Equal(t, models.PaymentPending, pending.Status)
	assert.Equal(t, now.Add(defaultTimeoutDuration), pending.TimeoutAt)
	require.Len(t, storage.created, 1)
	assert.Equal(t, "PAY_1", storage.created[0].Referencia)

	got := tracker.GetStatus("PAY_1")
	require.NotNil(t, got)
	assert.Equal(t, pending.ID, got.ID)
}

func TestRegisterPaymentRejectsDuplicateID(t *testing.T) {
	storage := newFakeTrackerStorage()
	gateway := newFakeStatusGateway()
	now := time.Now()
	tracker := newTestTracker(storage, gateway, &now)

	first, err := tracker.Register(context.Background(), "PAY_1", testPayload())
	require.NoError(t, err)

	_, err = tracker.Register(context.Background(), "PAY_1", models.PaymentPayload{Valor: 999})
	assert.ErrorIs(t, err, ErrPaymentAlreadyTracked)

	// The original registration is untouched.
	got := tracker.GetStatus("PAY_1")
	require.NotNil(t, got)
	assert.Equal(t, first.Payload.Valor, got.Payload.Valor)
}

func TestRegisterPaymentRollsBackOnStorageError(t *testing.T) {
	storage := newFakeTrackerStorage()
	storage.createErr = errors.New("db is down")
	gateway := newFakeStatusGateway()
	now := time.Now()
	tracker := newTestTracker(storage, gateway, &now)

	_, err := tracker.Register(context.Background(), "PAY_1", testPayload())
	require.Error(t, err)

	assert.Nil(t, tracker.GetStatus("PAY_1"))
}

func TestResolveFinalizesExactlyOnce(t *testing.T) {
	storage := newFakeTrackerStorage()
	gateway := newFakeStatusGateway()
	now := time.Now()
	tracker := newTestTracker(storage, gateway, &now)

	listener := &recordingListener{}
	tracker.Subscribe(listener)

	_, err := tracker.Register(context.Background(), "PAY_1", testPayload())
	require.NoError(t, err)

	assert.True(t, tracker.Resolve(context.Background(), "PAY_1", models.PaymentSuccess, "confirmed"))
	assert.False(t, tracker.Resolve(context.Background(), "PAY_1", models.PaymentFailed, "late webhook"))

	events := listener.recorded()
	require.Len(t, events, 1)
	assert.Equal(t, EventPaymentSuccess, events[0].Kind)
	assert.Equal(t, models.PaymentSuccess, storage.terminal["PAY_1"])
	assert.Nil(t, tracker.GetStatus("PAY_1"))
}

func TestResolveRacesWithSweep(t *testing.T) {
	storage := newFakeTrackerStorage()
	gateway := newFakeStatusGateway()
	now := time.Now()
	tracker := newTestTracker(storage, gateway, &now)

	listener := &recordingListener{}
	tracker.Subscribe(listener)

	_, err := tracker.Register(context.Background(), "PAY_1", testPayload())
	require.NoError(t, err)

	gateway.mu.Lock()
	gateway.statuses["PAY_1"] = &models.GatewayStatus{Status: "success"}
	gateway.mu.Unlock()

	now = now.Add(defaultCheckInterval)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		tracker.sweep(context.Background())
	}()

	go func() {
		defer wg.Done()
		tracker.Resolve(context.Background(), "PAY_1", models.PaymentSuccess, "webhook")
	}()

	wg.Wait()

	assert.Len(t, listener.recorded(), 1)
}

func TestSweepDetectsTimeoutBeforeCheckingGateway(t *testing.T) {
	storage := newFakeTrackerStorage()
	gateway := newFakeStatusGateway()
	now := time.Now()
	tracker := newTestTracker(storage, gateway, &now)

	listener := &recordingListener{}
	tracker.Subscribe(listener)

	_, err := tracker.Register(context.Background(), "PAY_1", testPayload())
	require.NoError(t, err)

	now = now.Add(defaultTimeoutDuration + time.Second)
	tracker.sweep(context.Background())

	events := listener.recorded()
	require.Len(t, events, 1)
	assert.Equal(t, EventPaymentTimeout, events[0].Kind)
	assert.Equal(t, models.PaymentTimeout, storage.terminal["PAY_1"])

	// The timed out payment was never checked against the gateway.
	assert.Zero(t, gateway.calls["PAY_1"])
}

func TestSweepFinalizesOnTerminalGatewayStatus(t *testing.T) {
	testCases := []struct {
		gatewayStatus  string
		expectedKind   PaymentEventKind
		expectedStatus models.PaymentStatus
	}{
		{"success", EventPaymentSuccess, models.PaymentSuccess},
		{"failed", EventPaymentFailure, models.PaymentFailed},
		{"cancelled", EventPaymentFailure, models.PaymentCancelled},
	}

	for _, tc := range testCases {
		t.Run(tc.gatewayStatus, func(t *testing.T) {
			storage := newFakeTrackerStorage()
			gateway := newFakeStatusGateway()
			now := time.Now()
			tracker := newTestTracker(storage, gateway, &now)

			listener := &recordingListener{}
			tracker.Subscribe(listener)

			_, err := tracker.Register(context.Background(), "PAY_1", testPayload())
			require.NoError(t, err)

			gateway.statuses["PAY_1"] = &models.GatewayStatus{Status: tc.gatewayStatus}

			now = now.Add(defaultCheckInterval)
			tracker.sweep(context.Background())

			events := listener.recorded()
			require.Len(t, events, 1)
			assert.Equal(t, tc.expectedKind, events[0].Kind)
			assert.Equal(t, tc.expectedStatus, storage.terminal["PAY_1"])
		})
	}
}

func TestSweepKeepsPendingOnInconclusiveStatus(t *testing.T) {
	storage := newFakeTrackerStorage()
	gateway := newFakeStatusGateway()
	now := time.Now()
	tracker := newTestTracker(storage, gateway, &now)

	_, err := tracker.Register(context.Background(), "PAY_1", testPayload())
	require.NoError(t, err)

	gateway.statuses["PAY_1"] = &models.GatewayStatus{Status: "processing"}

	now = now.Add(defaultCheckInterval)
	tracker.sweep(context.Background())

	got := tracker.GetStatus("PAY_1")
	require.NotNil(t, got)
	assert.Equal(t, 1, got.Attempts)
}

func TestSweepExhaustsRetriesOnUnknownPayment(t *testing.T) {
	storage := newFakeTrackerStorage()
	gateway := newFakeStatusGateway()
	now := time.Now()
	tracker := newTestTracker(storage, gateway, &now)

	listener := &recordingListener{}
	tracker.Subscribe(listener)

	_, err := tracker.Register(context.Background(), "PAY_1", testPayload())
	require.NoError(t, err)

	// The gateway keeps answering "never heard of it".
	for i := 0; i < defaultMaxRetries; i++ {
		now = now.Add(defaultCheckInterval)
		tracker.sweep(context.Background())
	}

	events := listener.recorded()
	require.Len(t, events, 1)
	assert.Equal(t, EventPaymentMaxRetries, events[0].Kind)
	assert.Equal(t, models.PaymentMaxRetries, storage.terminal["PAY_1"])
}

func TestSweepExhaustsRetriesOnPersistentGatewayError(t *testing.T) {
	storage := newFakeTrackerStorage()
	gateway := newFakeStatusGateway()
	now := time.Now()
	tracker := newTestTracker(storage, gateway, &now)

	listener := &recordingListener{}
	tracker.Subscribe(listener)

	_, err := tracker.Register(context.Background(), "PAY_1", testPayload())
	require.NoError(t, err)

	gateway.errs["PAY_1"] = errors.New("gateway is unreachable")

	for i := 0; i < defaultMaxRetries; i++ {
		now = now.Add(defaultCheckInterval)
		tracker.sweep(context.Background())
	}

	events := listener.recorded()
	require.Len(t, events, 1)
	assert.Equal(t, EventPaymentError, events[0].Kind)
	assert.Equal(t, models.PaymentError, storage.terminal["PAY_1"])
}

func TestStartRehydratesPendingPayments(t *testing.T) {
	storage := newFakeTrackerStorage()
	gateway := newFakeStatusGateway()
	now := time.Now()

	storage.pending = []database.PagamentoDB{
		{
			Referencia: "PAY_OLD",
			VendaID:    "venda-9",
			VendedorID: "vendedor-9",
			Valor:      75,
			Metodo:     database.PaymentMethodDB{PaymentMethod: models.MethodEmola},
			Telefone:   "861112223",
			TimeoutAt:  now.Add(time.Minute),
			CreatedAt:  now.Add(-time.Minute),
		},
	}

	tracker := newTestTracker(storage, gateway, &now)

	require.NoError(t, tracker.Start(context.Background()))
	defer tracker.Stop()

	got := tracker.GetStatus("PAY_OLD")
	require.NotNil(t, got)
	assert.Equal(t, "venda-9", got.Payload.VendaID)
	assert.Equal(t, models.MethodEmola, got.Payload.Metodo)
}

func TestCleanupStale(t *testing.T) {
	storage := newFakeTrackerStorage()
	gateway := newFakeStatusGateway()
	now := time.Now()
	tracker := newTestTracker(storage, gateway, &now)

	listener := &recordingListener{}
	tracker.Subscribe(listener)

	_, err := tracker.Register(context.Background(), "PAY_1", testPayload())
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)

	_, err = tracker.Register(context.Background(), "PAY_2", testPayload())
	require.NoError(t, err)

	removed := tracker.CleanupStale(time.Hour)

	assert.Equal(t, 1, removed)
	assert.Nil(t, tracker.GetStatus("PAY_1"))
	assert.NotNil(t, tracker.GetStatus("PAY_2"))

	// Cleanup is silent, no terminal events.
	assert.Empty(t, listener.recorded())
}

func TestStats(t *testing.T) {
	storage := newFakeTrackerStorage()
	gateway := newFakeStatusGateway()
	now := time.Now()
	tracker := newTestTracker(storage, gateway, &now)

	assert.Equal(t, models.TrackerStats{}, tracker.Stats())

	_, err := tracker.Register(context.Background(), "PAY_1", testPayload())
	require.NoError(t, err)
	_, err = tracker.Register(context.Background(), "PAY_2", testPayload())
	require.NoError(t, err)

	gateway.statuses["PAY_1"] = &models.GatewayStatus{Status: "processing"}
	gateway.statuses["PAY_2"] = &models.GatewayStatus{Status: "processing"}

	now = now.Add(defaultCheckInterval)
	tracker.sweep(context.Background())

	stats := tracker.Stats()
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 2, stats.TotalAttempts)
	assert.Equal(t, 1.0, stats.AverageAttempts)
}

func TestConfigure(t *testing.T) {
	storage := newFakeTrackerStorage()
	gateway := newFakeStatusGateway()
	now := time.Now()
	tracker := newTestTracker(storage, gateway, &now)

	tracker.Configure(TrackerConfig{
		CheckInterval:   time.Second,
		MaxRetries:      7,
		TimeoutDuration: time.Minute,
	})

	assert.Equal(t, time.Second, tracker.checkInterval)
	assert.Equal(t, 7, tracker.maxRetries)
	assert.Equal(t, time.Minute, tracker.timeoutDuration)

	// Zero fields leave the current values alone.
	tracker.Configure(TrackerConfig{MaxRetries: 2})

	assert.Equal(t, time.Second, tracker.checkInterval)
	assert.Equal(t, 2, tracker.maxRetries)
	assert.Equal(t, time.Minute, tracker.timeoutDuration)
}

func TestConfigureReschedulesRunningSweepLoop(t *testing.T) {
	storage := newFakeTrackerStorage()
	gateway := newFakeStatusGateway()
	now := time.Now()
	tracker := newTestTracker(storage, gateway, &now)

	_, err := tracker.Register(context.Background(), "PAY_1", testPayload())
	require.NoError(t, err)

	gateway.mu.Lock()
	gateway.statuses["PAY_1"] = &models.GatewayStatus{Status: "success"}
	gateway.mu.Unlock()

	now = now.Add(defaultCheckInterval)

	// At one sweep per hour the payment would sit unchecked for the
	// whole test.
	tracker.Configure(TrackerConfig{CheckInterval: time.Hour})
	require.NoError(t, tracker.Start(context.Background()))
	defer tracker.Stop()

	tracker.Configure(TrackerConfig{CheckInterval: 5 * time.Millisecond})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		storage.mu.Lock()
		_, finalized := storage.terminal["PAY_1"]
		storage.mu.Unlock()

		if finalized {
			break
		}

		time.Sleep(5 * time.Millisecond)
	}

	tracker.Stop()
	assert.Equal(t, models.PaymentSuccess, storage.terminal["PAY_1"])
}

func TestDispatchSurvivesPanickingListener(t *testing.T) {
	storage := newFakeTrackerStorage()
	gateway := newFakeStatusGateway()
	now := time.Now()
	tracker := newTestTracker(storage, gateway, &now)

	tracker.Subscribe(panickingListener{})
	listener := &recordingListener{}
	tracker.Subscribe(listener)

	_, err := tracker.Register(context.Background(), "PAY_1", testPayload())
	require.NoError(t, err)

	require.True(t, tracker.Resolve(context.Background(), "PAY_1", models.PaymentSuccess, ""))

	assert.Len(t, listener.recorded(), 1)
}

type panickingListener struct{}

func (panickingListener) HandlePaymentEvent(ctx context.Context, event PaymentEvent) error {
	panic("listener bug")
}
