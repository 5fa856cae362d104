package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ratixpay/ratixpay-backend/internal/logger"
	"github.com/ratixpay/ratixpay-backend/internal/models"
	"go.uber.org/zap"
)

// PaymentService coordinates payment initiation between the gateway and
// the tracker: the payment is registered for tracking first, then
// submitted, so a crash between the two can never lose a charge that
// was actually sent.
type paymentJobQueue interface {
	Enqueue(job Job) error
}

type PaymentService struct {
	tracker *PaymentTracker
	gateway PaymentGateway
	jobs    paymentJobQueue
}

func NewPaymentService(tracker *PaymentTracker, gateway PaymentGateway, jobs paymentJobQueue) *PaymentService {
	return &PaymentService{
		tracker: tracker,
		gateway: gateway,
		jobs:    jobs,
	}
}

func (s *PaymentService) Initiate(ctx context.Context, input models.InitiatePaymentInput) (*models.PendingPayment, error) {
	payload, err := validateInitiateInput(input)

	if err != nil {
		return nil, err
	}

	referencia := NewPaymentReference()

	pending, err := s.tracker.Register(ctx, referencia, *payload)

	if err != nil {
		return nil, err
	}

	res, err := s.gateway.SubmitPayment(ctx, payload.Metodo, payload.Valor, payload.Telefone, referencia)

	if err != nil {
		s.tracker.Resolve(ctx, referencia, models.PaymentError, err.Error())
		return nil, &GatewayError{Op: "submit payment", Err: err}
	}

	if !res.Success {
		s.tracker.Resolve(ctx, referencia, models.PaymentFailed, res.Message)
		return nil, &GatewayError{Op: "submit payment", Err: errors.New(res.Message)}
	}

	// Some providers confirm synchronously; honor that instead of
	// waiting for the first sweep.
	if terminal, ok := mapGatewayStatus(res.Status); ok {
		s.tracker.Resolve(ctx, referencia, terminal, res.Message)
		pending.Status = terminal
	}

	return pending, nil
}

func (s *PaymentService) Status(id string) (*models.PendingPayment, error) {
	pending := s.tracker.GetStatus(id)

	if pending == nil {
		return nil, ErrPaymentNotFound
	}

	return pending, nil
}

func (s *PaymentService) Cancel(ctx context.Context, id string) error {
	if !s.tracker.Resolve(ctx, id, models.PaymentCancelled, "pagamento cancelado pelo usuário") {
		return ErrPaymentNotFound
	}

	return nil
}

// HandleWebhook applies a provider callback. The payload is validated
// synchronously so malformed callbacks still get a 400, but the
// terminal transition and its side effects run on the job queue, off
// the provider's request. Callbacks for unknown or already-finalized
// payments are acknowledged and logged, never errored, so providers
// don't retry them forever.
func (s *PaymentService) HandleWebhook(ctx context.Context, provider string, webhook models.PaymentWebhook) error {
	referencia := webhook.Reference()

	if referencia == "" || webhook.Status == nil {
		return &ValidationError{Message: "webhook sem identificador de pagamento ou status"}
	}

	terminal, ok := mapGatewayStatus(*webhook.Status)
	if !ok {
		logger.Log.Info("ignoring non-terminal webhook status",
			zap.String("provider", provider),
			zap.String("paymentID", referencia),
			zap.String("status", *webhook.Status),
		)
		return nil
	}

	message := webhook.Message

	resolve := func(jobCtx context.Context) {
		if !s.tracker.Resolve(jobCtx, referencia, terminal, message) {
			logger.Log.Warn("webhook for untracked payment",
				zap.String("provider", provider),
				zap.String("paymentID", referencia),
			)
		}
	}

	if err := s.jobs.Enqueue(resolve); err != nil {
		// A full queue still owes the provider an acknowledgement, so
		// fall back to resolving on the request.
		logger.Log.Warn("failed to enqueue webhook resolution",
			zap.String("paymentID", referencia),
			zap.Error(err),
		)
		resolve(ctx)
	}

	return nil
}

func NewPaymentReference() string {
	fragment := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("PAY_%d_%s", time.Now().UnixMilli(), fragment)
}

func validateInitiateInput(input models.InitiatePaymentInput) (*models.PaymentPayload, error) {
	if input.VendaID == nil || *input.VendaID == "" {
		return nil, &ValidationError{Message: "venda_id é obrigatório"}
	}

	if input.VendedorID == nil || *input.VendedorID == "" {
		return nil, &ValidationError{Message: "vendedor_id é obrigatório"}
	}

	if input.Valor == nil || *input.Valor <= 0 {
		return nil, &ValidationError{Message: "valor deve ser maior que zero"}
	}

	if input.Metodo == nil || !ValidMethod(models.PaymentMethod(*input.Metodo)) {
		return nil, &ValidationError{Message: "metodo deve ser mpesa ou emola"}
	}

	if input.Telefone == nil || !ValidPhone(*input.Telefone) {
		return nil, &ValidationError{Message: "telefone deve ser um número móvel válido (84/85/86/87)"}
	}

	return &models.PaymentPayload{
		VendaID:    *input.VendaID,
		VendedorID: *input.VendedorID,
		Valor:      *input.Valor,
		Metodo:     models.PaymentMethod(*input.Metodo),
		Telefone:   *input.Telefone,
	}, nil
}
