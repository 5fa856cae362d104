package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/ratixpay/ratixpay-backend/internal/database"
	"github.com/ratixpay/ratixpay-backend/internal/logger"
	"github.com/ratixpay/ratixpay-backend/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultCheckInterval   = 5 * time.Second
	defaultMaxRetries      = 3
	defaultTimeoutDuration = 5 * time.Minute
)

type trackerStorage interface {
	CreatePagamento(ctx context.Context, p database.PagamentoDB) error

	MarkPagamentoTerminal(ctx context.Context, referencia string, status database.PaymentStatusDB, detalhes string) (bool, error)

	FindPendingPagamentos(ctx context.Context) ([]database.PagamentoDB, error)
}

type statusGateway interface {
	CheckStatus(ctx context.Context, referencia string) (*models.GatewayStatus, error)
}

// TrackerConfig overrides the tracker's timing knobs. Zero fields keep
// the current value.
type TrackerConfig struct {
	CheckInterval   time.Duration
	MaxRetries      int
	TimeoutDuration time.Duration
}

// PaymentTracker owns every in-flight payment. It registers payments,
// periodically reconciles them against the gateway, times them out and
// emits exactly one terminal event per payment. A payment leaves the
// registry the moment its terminal transition is claimed, so the sweep
// loop, webhooks and cancellations can never double-finalize
// the same payment.
type PaymentTracker struct {
	mu        sync.Mutex
	pending   map[string]*models.PendingPayment
	listeners []PaymentListener

	storage trackerStorage
	gateway statusGateway

	checkInterval   time.Duration
	maxRetries      int
	timeoutDuration time.Duration

	now    func() time.Time
	cancel context.CancelFunc
	done   chan struct{}
	reconf chan struct{}
}

func NewPaymentTracker(storage trackerStorage, gateway statusGateway) *PaymentTracker {
	return &PaymentTracker{
		pending:         make(map[string]*models.PendingPayment),
		storage:         storage,
		gateway:         gateway,
		checkInterval:   defaultCheckInterval,
		maxRetries:      defaultMaxRetries,
		timeoutDuration: defaultTimeoutDuration,
		now:             time.Now,
		reconf:          make(chan struct{}, 1),
	}
}

// Subscribe adds a terminal-event listener. Listeners registered before
// Start see every event in registration order.
func (t *PaymentTracker) Subscribe(listener PaymentListener) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.listeners = append(t.listeners, listener)
}

func (t *PaymentTracker) Configure(cfg TrackerConfig) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if cfg.CheckInterval > 0 {
		t.checkInterval = cfg.CheckInterval
	}
	if cfg.MaxRetries > 0 {
		t.maxRetries = cfg.MaxRetries
	}
	if cfg.TimeoutDuration > 0 {
		t.timeoutDuration = cfg.TimeoutDuration
	}

	logger.Log.Info("payment tracker reconfigured",
		zap.Duration("checkInterval", t.checkInterval),
		zap.Int("maxRetries", t.maxRetries),
		zap.Duration("timeoutDuration", t.timeoutDuration),
	)

	// Wake a running sweep loop so the new interval applies now, not
	// after the previous one elapses.
	select {
	case t.reconf <- struct{}{}:
	default:
	}
}

// Start rehydrates still-pending payments from storage and launches the
// reconciliation loop. The loop stops when ctx is done or Stop is
// called.
func (t *PaymentTracker) Start(ctx context.Context) error {
	rows, err := t.storage.FindPendingPagamentos(ctx)

	if err != nil {
		return fmt.Errorf("failed to rehydrate pending payments: %w", err)
	}

	now := t.now()

	t.mu.Lock()
	for _, row := range rows {
		if _, ok := t.pending[row.Referencia]; ok {
			continue
		}

		t.pending[row.Referencia] = &models.PendingPayment{
			ID: row.Referencia,
			Payload: models.PaymentPayload{
				VendaID:    row.VendaID,
				VendedorID: row.VendedorID,
				Valor:      row.Valor,
				Metodo:     row.Metodo.PaymentMethod,
				Telefone:   row.Telefone,
			},
			Status:        models.PaymentPending,
			CreatedAt:     row.CreatedAt,
			LastCheckedAt: now,
			TimeoutAt:     row.TimeoutAt,
		}
	}
	interval := t.checkInterval
	t.mu.Unlock()

	loopCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.done = make(chan struct{})

	go func() {
		defer close(t.done)

		timer := time.NewTimer(interval)
		defer timer.Stop()

		for {
			select {
			case <-timer.C:
				t.sweep(loopCtx)
			case <-t.reconf:
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
			case <-loopCtx.Done():
				return
			}

			t.mu.Lock()
			next := t.checkInterval
			t.mu.Unlock()

			timer.Reset(next)
		}
	}()

	logger.Log.Info("payment status monitoring started",
		zap.Int("rehydrated", len(rows)),
		zap.Duration("checkInterval", interval),
	)

	return nil
}

// Stop halts the reconciliation loop and waits for an in-flight sweep
// to finish. Pending payments stay in storage for the next Start.
func (t *PaymentTracker) Stop() {
	if t.cancel == nil {
		return
	}

	t.cancel()
	<-t.done
	t.cancel = nil

	logger.Log.Info("payment status monitoring stopped")
}

// Register persists and starts tracking a new payment. Registering an
// id that is already tracked is an error, not an overwrite.
func (t *PaymentTracker) Register(ctx context.Context, id string, payload models.PaymentPayload) (*models.PendingPayment, error) {
	now := t.now()

	t.mu.Lock()
	if _, ok := t.pending[id]; ok {
		t.mu.Unlock()
		return nil, ErrPaymentAlreadyTracked
	}

	entry := &models.PendingPayment{
		ID:            id,
		Payload:       payload,
		Status:        models.PaymentPending,
		CreatedAt:     now,
		LastCheckedAt: now,
		TimeoutAt:     now.Add(t.timeoutDuration),
	}
	t.pending[id] = entry
	t.mu.Unlock()

	err := t.storage.CreatePagamento(ctx, database.PagamentoDB{
		Referencia: id,
		VendaID:    payload.VendaID,
		VendedorID: payload.VendedorID,
		Valor:      payload.Valor,
		Metodo:     database.PaymentMethodDB{PaymentMethod: payload.Metodo},
		Telefone:   payload.Telefone,
		TimeoutAt:  entry.TimeoutAt,
	})

	if err != nil {
		t.Remove(id)

		if errors.Is(err, database.ErrDuplicatePagamento) {
			return nil, ErrPaymentAlreadyTracked
		}

		return nil, fmt.Errorf("failed to persist payment registration: %w", err)
	}

	logger.Log.Info("payment registered",
		zap.String("paymentID", id),
		zap.String("vendaID", payload.VendaID),
		zap.Float64("valor", payload.Valor),
	)

	snapshot := *entry
	return &snapshot, nil
}

// GetStatus returns a copy of the tracked payment, or nil when the id
// is unknown or already finalized.
func (t *PaymentTracker) GetStatus(id string) *models.PendingPayment {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.pending[id]
	if !ok {
		return nil
	}

	snapshot := *entry
	return &snapshot
}

// Remove drops a payment from the registry without finalizing it. No
// event is emitted and storage isn't touched.
func (t *PaymentTracker) Remove(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, ok := t.pending[id]
	if ok {
		delete(t.pending, id)
	}

	return ok
}

// Resolve finalizes a tracked payment with a terminal status reported
// from outside the sweep loop, typically a provider webhook. It reports
// whether this call won the terminal transition.
func (t *PaymentTracker) Resolve(ctx context.Context, id string, status models.PaymentStatus, message string) bool {
	entry, ok := t.claim(id)
	if !ok {
		return false
	}

	t.finalize(ctx, entry, status, message)
	return true
}

// CleanupStale drops payments older than maxAge from the registry
// without emitting events. It exists for operators to reclaim memory
// after long gateway outages.
func (t *PaymentTracker) CleanupStale(maxAge time.Duration) int {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for id, entry := range t.pending {
		if now.Sub(entry.CreatedAt) > maxAge {
			delete(t.pending, id)
			removed++
		}
	}

	if removed > 0 {
		logger.Log.Info("cleaned up stale payments", zap.Int("removed", removed))
	}

	return removed
}

func (t *PaymentTracker) Stats() models.TrackerStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	stats := models.TrackerStats{Total: len(t.pending)}

	for _, entry := range t.pending {
		stats.TotalAttempts += entry.Attempts
	}

	if stats.Total > 0 {
		stats.AverageAttempts = float64(stats.TotalAttempts) / float64(stats.Total)
	}

	return stats
}

// sweep runs one reconciliation pass. Timeouts are decided on the wall
// clock before any network call, so a slow gateway can't delay them.
// Status checks then run in parallel, one goroutine per due payment.
func (t *PaymentTracker) sweep(ctx context.Context) {
	now := t.now()

	t.mu.Lock()
	interval := t.checkInterval
	maxRetries := t.maxRetries

	var timedOut []*models.PendingPayment
	var due []models.PendingPayment

	for id, entry := range t.pending {
		if now.After(entry.TimeoutAt) {
			delete(t.pending, id)
			timedOut = append(timedOut, entry)
			continue
		}

		if now.Sub(entry.LastCheckedAt) >= interval {
			entry.Attempts++
			entry.LastCheckedAt = now
			due = append(due, *entry)
		}
	}
	t.mu.Unlock()

	for _, entry := range timedOut {
		t.finalize(ctx, entry, models.PaymentTimeout, "pagamento expirado por timeout")
	}

	var checkErrs *multierror.Error
	var errMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)

	for _, snapshot := range due {
		snapshot := snapshot

		g.Go(func() error {
			t.check(gctx, snapshot, maxRetries, func(err error) {
				errMu.Lock()
				checkErrs = multierror.Append(checkErrs, err)
				errMu.Unlock()
			})

			return nil
		})
	}

	_ = g.Wait()

	if err := checkErrs.ErrorOrNil(); err != nil {
		logger.Log.Warn("sweep finished with check errors", zap.Error(err))
	}
}

// check reconciles a single payment against the gateway. Transient
// check failures are reported through collect and retried on the next
// sweep until the attempt budget runs out.
func (t *PaymentTracker) check(ctx context.Context, snapshot models.PendingPayment, maxRetries int, collect func(error)) {
	status, err := t.gateway.CheckStatus(ctx, snapshot.ID)

	if err != nil {
		if snapshot.Attempts >= maxRetries {
			if entry, ok := t.claim(snapshot.ID); ok {
				t.finalize(ctx, entry, models.PaymentError, err.Error())
			}
			return
		}

		collect(fmt.Errorf("payment %s: %w", snapshot.ID, err))
		return
	}

	if status == nil {
		if snapshot.Attempts >= maxRetries {
			if entry, ok := t.claim(snapshot.ID); ok {
				t.finalize(ctx, entry, models.PaymentMaxRetries, "máximo de tentativas de verificação atingido")
			}
		}
		return
	}

	terminal, ok := mapGatewayStatus(status.Status)
	if !ok {
		if snapshot.Attempts >= maxRetries {
			if entry, okClaim := t.claim(snapshot.ID); okClaim {
				t.finalize(ctx, entry, models.PaymentMaxRetries, "máximo de tentativas de verificação atingido")
			}
		}
		return
	}

	if entry, ok := t.claim(snapshot.ID); ok {
		t.finalize(ctx, entry, terminal, status.Message)
	}
}

// claim removes the payment from the registry, handing the caller the
// exclusive right to finalize it.
func (t *PaymentTracker) claim(id string) (*models.PendingPayment, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.pending[id]
	if !ok {
		return nil, false
	}

	delete(t.pending, id)
	return entry, true
}

// finalize persists the terminal status and dispatches the one terminal
// event. The caller must have claimed the entry.
func (t *PaymentTracker) finalize(ctx context.Context, entry *models.PendingPayment, status models.PaymentStatus, message string) {
	entry.Status = status

	if _, err := t.storage.MarkPagamentoTerminal(ctx, entry.ID, database.PaymentStatusDB{PaymentStatus: status}, message); err != nil {
		logger.Log.Error("failed to persist terminal payment status",
			zap.String("paymentID", entry.ID),
			zap.String("status", string(status)),
			zap.Error(err),
		)
	}

	logger.Log.Info("payment finalized",
		zap.String("paymentID", entry.ID),
		zap.String("status", string(status)),
		zap.Int("attempts", entry.Attempts),
	)

	t.dispatch(ctx, PaymentEvent{
		Kind:       eventKindFor(status),
		PaymentID:  entry.ID,
		Payload:    entry.Payload,
		Status:     status,
		Message:    message,
		OccurredAt: t.now(),
	})
}

// dispatch delivers the event to every listener in order. A panicking
// or failing listener doesn't stop delivery to the rest.
func (t *PaymentTracker) dispatch(ctx context.Context, event PaymentEvent) {
	t.mu.Lock()
	listeners := make([]PaymentListener, len(t.listeners))
	copy(listeners, t.listeners)
	t.mu.Unlock()

	for _, listener := range listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Log.Error("payment listener panicked",
						zap.String("paymentID", event.PaymentID),
						zap.Any("panic", r),
					)
				}
			}()

			if err := listener.HandlePaymentEvent(ctx, event); err != nil {
				logger.Log.Error("payment listener failed",
					zap.String("paymentID", event.PaymentID),
					zap.String("kind", string(event.Kind)),
					zap.Error(err),
				)
			}
		}()
	}
}

// mapGatewayStatus translates provider status strings into terminal
// statuses. Non-terminal or unknown strings report ok=false and keep
// the payment pending.
func mapGatewayStatus(status string) (models.PaymentStatus, bool) {
	switch strings.ToLower(status) {
	case "success", "completed", "approved", "pago":
		return models.PaymentSuccess, true
	case "failed", "rejected", "declined":
		return models.PaymentFailed, true
	case "cancelled", "canceled":
		return models.PaymentCancelled, true
	default:
		return "", false
	}
}
