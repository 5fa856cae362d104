package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ratixpay/ratixpay-backend/internal/database"
	"github.com/ratixpay/ratixpay-backend/internal/logger"
	"github.com/ratixpay/ratixpay-backend/internal/models"
	"github.com/ratixpay/ratixpay-backend/internal/utils"
	"go.uber.org/zap"
)

type saqueStorage interface {
	CreateSaque(ctx context.Context, s *database.SaqueDB) error

	FindSaque(ctx context.Context, saqueID string) (*database.SaqueDB, error)

	FindSaquesByStatus(ctx context.Context, statuses ...models.SaqueStatus) ([]database.SaqueDB, error)

	MarkSaquePago(ctx context.Context, saqueID, transactionRef, operatorID, notes string) (bool, error)

	MarkSaqueCancelado(ctx context.Context, saqueID, operatorID, reason, notes string) (bool, error)

	SetSaqueTransactionRef(ctx context.Context, saqueID, transactionRef string) error

	AppendSaqueObservacoes(ctx context.Context, saqueID, notes string) (bool, error)

	CreateHistoricoSaque(ctx context.Context, h database.HistoricoSaqueDB) error

	UpdateHistoricoStatus(ctx context.Context, saqueID string, status models.SaqueStatus, valorLiquido, taxa float64, operatorID, transactionRef string) error

	FindHistoricoSaques(ctx context.Context) ([]database.HistoricoSaqueDB, error)

	FindUsuariosByIDs(ctx context.Context, ids []string) (map[string]database.UsuarioDB, error)
}

type saqueLedger interface {
	VendorBalance(ctx context.Context, vendedorID string) (models.Balance, error)

	DebitVendorGross(ctx context.Context, vendedorID, saqueID string, gross float64) error

	CreditAdminWithdrawalFee(ctx context.Context, fee, gross float64) error

	RecomputeVendorAggregate(ctx context.Context, vendedorID string) error
}

type payoutGateway interface {
	SubmitPayout(ctx context.Context, metodo models.PaymentMethod, valor float64, telefone string, referencia string) (*models.GatewayResponse, error)
}

type saqueJobQueue interface {
	Enqueue(job Job) error
}

// SaqueService runs the withdrawal workflow: vendors request, admins
// approve, cancel and verify. The status transitions are guarded in
// SQL, so two admins racing on the same saque can't both win.
type SaqueService struct {
	storage  saqueStorage
	ledger   saqueLedger
	gateway  payoutGateway
	jobs     saqueJobQueue
	notifier Notifier
	fees     FeePolicy
	now      func() time.Time
}

func NewSaqueService(storage saqueStorage, ledger saqueLedger, gateway payoutGateway, jobs saqueJobQueue, notifier Notifier, fees FeePolicy) *SaqueService {
	return &SaqueService{
		storage:  storage,
		ledger:   ledger,
		gateway:  gateway,
		jobs:     jobs,
		notifier: notifier,
		fees:     fees,
		now:      time.Now,
	}
}

// Request creates a pendente saque for the vendor after checking the
// available balance covers the gross amount. The balance is only
// debited at approval time.
func (s *SaqueService) Request(ctx context.Context, req models.SaqueRequest) (*models.SaqueView, error) {
	if req.Valor == nil || *req.Valor <= 0 {
		return nil, &ValidationError{Message: "valor deve ser maior que zero"}
	}

	if req.Metodo == nil || !ValidMethod(models.PaymentMethod(*req.Metodo)) {
		return nil, &ValidationError{Message: "metodo deve ser mpesa ou emola"}
	}

	if req.TelefoneTitular == nil || !ValidPhone(*req.TelefoneTitular) {
		return nil, &ValidationError{Message: "telefoneTitular deve ser um número móvel válido (84/85/86/87)"}
	}

	if req.ContaDestino == nil || *req.ContaDestino == "" {
		return nil, &ValidationError{Message: "contaDestino é obrigatório"}
	}

	balance, err := s.ledger.VendorBalance(ctx, req.VendedorID)

	if err != nil {
		return nil, err
	}

	if balance.Current < *req.Valor {
		return nil, fmt.Errorf("saldo disponível MZN %.2f, solicitado MZN %.2f: %w",
			balance.Current, *req.Valor, ErrInsufficientBalance)
	}

	saque := &database.SaqueDB{
		VendedorID:      req.VendedorID,
		Valor:           *req.Valor,
		Status:          database.SaqueStatusDB{SaqueStatus: models.SaquePendente},
		Metodo:          database.PaymentMethodDB{PaymentMethod: models.PaymentMethod(*req.Metodo)},
		ContaDestino:    *req.ContaDestino,
		TelefoneTitular: *req.TelefoneTitular,
		Banco:           req.Banco,
	}

	if err := s.storage.CreateSaque(ctx, saque); err != nil {
		return nil, fmt.Errorf("failed to create saque: %w", err)
	}

	fee, net := s.fees.SplitWithdrawal(saque.Valor)

	// Audit mirror. The saque row stays authoritative if this fails.
	if err := s.storage.CreateHistoricoSaque(ctx, database.HistoricoSaqueDB{
		SaqueID:         saque.ID,
		VendedorID:      saque.VendedorID,
		ValorSolicitado: saque.Valor,
		ValorLiquido:    net,
		Taxa:            fee,
		MetodoPagamento: saque.Metodo,
		Status:          saque.Status,
		DataSolicitacao: saque.DataSolicitacao,
	}); err != nil {
		logger.Log.Error("failed to mirror saque into history",
			zap.String("saqueID", saque.ID),
			zap.Error(err),
		)
	}

	logger.Log.Info("saque requested",
		zap.String("saqueID", saque.ID),
		zap.String("vendedorID", saque.VendedorID),
		zap.Float64("valor", saque.Valor),
	)

	view := s.buildView(saque, nil)
	return &view, nil
}

// Approve pays out a pendente saque. The conditional status flip is the
// concurrency guard: only the admin whose UPDATE matched proceeds to
// the ledger and payout legs. Ledger failures after the flip are logged
// and left for reconciliation rather than rolled back, because the
// movement rows are idempotent and can be replayed.
func (s *SaqueService) Approve(ctx context.Context, saqueID, operatorID, transactionRef, notes string) (*models.SaqueReceipt, error) {
	saque, err := s.storage.FindSaque(ctx, saqueID)

	if err != nil {
		return nil, err
	}

	if saque == nil {
		return nil, ErrSaqueNotFound
	}

	if saque.Status.SaqueStatus != models.SaquePendente {
		return nil, &InvalidStateError{
			Op:   "aprovar saque",
			Rule: fmt.Sprintf(`apenas saques com status "pendente" podem ser aprovados, status atual: "%s"`, saque.Status.SaqueStatus),
		}
	}

	fee, net := s.fees.SplitWithdrawal(saque.Valor)
	now := s.now()

	annotation := approvalNote(now, operatorID, transactionRef, fee, net, notes)

	updated, err := s.storage.MarkSaquePago(ctx, saqueID, transactionRef, operatorID, annotation)

	if err != nil {
		return nil, err
	}

	if !updated {
		return nil, &InvalidStateError{
			Op:   "aprovar saque",
			Rule: "saque já foi processado por outro operador",
		}
	}

	if err := s.ledger.CreditAdminWithdrawalFee(ctx, fee, saque.Valor); err != nil {
		logger.Log.Error("failed to credit admin withdrawal fee",
			zap.String("saqueID", saqueID),
			zap.Error(err),
		)
	}

	if err := s.ledger.DebitVendorGross(ctx, saque.VendedorID, saqueID, saque.Valor); err != nil {
		logger.Log.Error("failed to debit vendor for withdrawal",
			zap.String("saqueID", saqueID),
			zap.String("vendedorID", saque.VendedorID),
			zap.Error(err),
		)
	}

	// When the operator didn't settle manually, the gateway pays the
	// net amount out now. The saque stays pago even if this fails; the
	// error tells the operator to retry the payout out of band.
	if transactionRef == "" {
		payout, err := s.gateway.SubmitPayout(ctx, saque.Metodo.PaymentMethod, net, saque.TelefoneTitular, saqueID)

		if err != nil {
			logger.Log.Error("payout submission failed after approval",
				zap.String("saqueID", saqueID),
				zap.Error(err),
			)
			s.finishApproval(saqueID, saque.VendedorID, fee, net, operatorID, transactionRef)
			return nil, &GatewayError{Op: "submit payout", Err: err}
		}

		transactionRef = payout.TransactionID

		if err := s.storage.SetSaqueTransactionRef(ctx, saqueID, transactionRef); err != nil {
			logger.Log.Error("failed to record payout reference",
				zap.String("saqueID", saqueID),
				zap.Error(err),
			)
		}
	}

	s.finishApproval(saqueID, saque.VendedorID, fee, net, operatorID, transactionRef)

	logger.Log.Info("saque approved",
		zap.String("saqueID", saqueID),
		zap.String("operatorID", operatorID),
		zap.Float64("valor", saque.Valor),
		zap.Float64("valorLiquido", net),
	)

	return &models.SaqueReceipt{
		ID:             saqueID,
		Status:         models.SaquePago,
		Valor:          saque.Valor,
		TaxaAdmin:      fee,
		ValorLiquido:   net,
		TransactionRef: transactionRef,
		DataPagamento:  utils.RFC3339Date{Time: now},
	}, nil
}

// finishApproval runs the fire-and-forget tail of an approval: history
// mirror, aggregate rebuild and notification.
func (s *SaqueService) finishApproval(saqueID, vendedorID string, fee, net float64, operatorID, transactionRef string) {
	if err := s.jobs.Enqueue(func(ctx context.Context) {
		if err := s.storage.UpdateHistoricoStatus(ctx, saqueID, models.SaquePago, net, fee, operatorID, transactionRef); err != nil {
			logger.Log.Error("failed to update saque history",
				zap.String("saqueID", saqueID),
				zap.Error(err),
			)
		}

		if err := s.ledger.RecomputeVendorAggregate(ctx, vendedorID); err != nil {
			logger.Log.Error("failed to recompute vendor aggregates",
				zap.String("vendedorID", vendedorID),
				zap.Error(err),
			)
		}

		if err := s.notifier.Publish(ctx, ChannelSaques, map[string]any{
			"saqueId":      saqueID,
			"vendedorId":   vendedorID,
			"status":       models.SaquePago,
			"valorLiquido": net,
		}); err != nil {
			logger.Log.Warn("failed to publish saque notification",
				zap.String("saqueID", saqueID),
				zap.Error(err),
			)
		}
	}); err != nil {
		logger.Log.Error("failed to enqueue approval followup",
			zap.String("saqueID", saqueID),
			zap.Error(err),
		)
	}
}

// Cancel rejects a saque. Pendente saques are never cancellable here,
// they must be approved or left waiting; pago and cancelado are
// terminal.
func (s *SaqueService) Cancel(ctx context.Context, saqueID, operatorID, reason string) error {
	saque, err := s.storage.FindSaque(ctx, saqueID)

	if err != nil {
		return err
	}

	if saque == nil {
		return ErrSaqueNotFound
	}

	switch saque.Status.SaqueStatus {
	case models.SaquePendente:
		return &InvalidStateError{
			Op:   "cancelar saque",
			Rule: `saques com status "pendente" não podem ser cancelados`,
		}
	case models.SaquePago:
		return &InvalidStateError{
			Op:   "cancelar saque",
			Rule: "saque já foi pago e não pode ser cancelado",
		}
	case models.SaqueCancelado:
		return &InvalidStateError{
			Op:   "cancelar saque",
			Rule: "saque já está cancelado",
		}
	}

	if reason == "" {
		reason = "Cancelado pelo administrador"
	}

	annotation := cancellationNote(s.now(), operatorID, reason)

	updated, err := s.storage.MarkSaqueCancelado(ctx, saqueID, operatorID, reason, annotation)

	if err != nil {
		return err
	}

	if !updated {
		return &InvalidStateError{
			Op:   "cancelar saque",
			Rule: "saque já foi processado por outro operador",
		}
	}

	fee, net := s.fees.SplitWithdrawal(saque.Valor)

	if err := s.jobs.Enqueue(func(ctx context.Context) {
		if err := s.storage.UpdateHistoricoStatus(ctx, saqueID, models.SaqueCancelado, net, fee, operatorID, ""); err != nil {
			logger.Log.Error("failed to update saque history",
				zap.String("saqueID", saqueID),
				zap.Error(err),
			)
		}

		if err := s.notifier.Publish(ctx, ChannelSaques, map[string]any{
			"saqueId":    saqueID,
			"vendedorId": saque.VendedorID,
			"status":     models.SaqueCancelado,
			"motivo":     reason,
		}); err != nil {
			logger.Log.Warn("failed to publish saque notification",
				zap.String("saqueID", saqueID),
				zap.Error(err),
			)
		}
	}); err != nil {
		logger.Log.Error("failed to enqueue cancellation followup",
			zap.String("saqueID", saqueID),
			zap.Error(err),
		)
	}

	logger.Log.Info("saque cancelled",
		zap.String("saqueID", saqueID),
		zap.String("operatorID", operatorID),
		zap.String("motivo", reason),
	)

	return nil
}

// Verify appends an audit note to an already paid saque. Observações
// are append-only; nothing else about the saque changes.
func (s *SaqueService) Verify(ctx context.Context, saqueID, operatorID, notes string) error {
	saque, err := s.storage.FindSaque(ctx, saqueID)

	if err != nil {
		return err
	}

	if saque == nil {
		return ErrSaqueNotFound
	}

	if saque.Status.SaqueStatus != models.SaquePago {
		return &InvalidStateError{
			Op:   "verificar saque",
			Rule: fmt.Sprintf(`apenas saques com status "pago" podem ser verificados, status atual: "%s"`, saque.Status.SaqueStatus),
		}
	}

	annotation := verificationNote(s.now(), operatorID, notes)

	updated, err := s.storage.AppendSaqueObservacoes(ctx, saqueID, annotation)

	if err != nil {
		return err
	}

	if !updated {
		return &InvalidStateError{
			Op:   "verificar saque",
			Rule: `apenas saques com status "pago" podem ser verificados`,
		}
	}

	return nil
}

func (s *SaqueService) PendingSaques(ctx context.Context) ([]models.SaqueView, error) {
	return s.listSaques(ctx, models.SaquePendente)
}

func (s *SaqueService) ProcessedSaques(ctx context.Context) ([]models.SaqueView, error) {
	return s.listSaques(ctx, models.SaquePago, models.SaqueAprovado, models.SaqueCancelado)
}

func (s *SaqueService) GetSaque(ctx context.Context, saqueID string) (*models.SaqueView, error) {
	saque, err := s.storage.FindSaque(ctx, saqueID)

	if err != nil {
		return nil, err
	}

	if saque == nil {
		return nil, ErrSaqueNotFound
	}

	vendedores, err := s.storage.FindUsuariosByIDs(ctx, []string{saque.VendedorID})

	if err != nil {
		logger.Log.Warn("failed to load vendedor info", zap.Error(err))
		vendedores = nil
	}

	view := s.buildView(saque, vendedores)
	return &view, nil
}

func (s *SaqueService) History(ctx context.Context) ([]models.SaqueHistoryItem, error) {
	rows, err := s.storage.FindHistoricoSaques(ctx)

	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.VendedorID)
	}

	vendedores, err := s.storage.FindUsuariosByIDs(ctx, ids)

	if err != nil {
		logger.Log.Warn("failed to load vendedor info", zap.Error(err))
		vendedores = nil
	}

	items := make([]models.SaqueHistoryItem, 0, len(rows))

	for _, row := range rows {
		item := models.SaqueHistoryItem{
			ID:              row.ID,
			SaqueID:         row.SaqueID,
			Valor:           row.ValorSolicitado,
			ValorLiquido:    row.ValorLiquido,
			Taxa:            row.Taxa,
			Status:          row.Status.SaqueStatus,
			Metodo:          row.MetodoPagamento.PaymentMethod,
			ProcessadoPor:   row.ProcessadoPor,
			CodigoTransacao: row.CodigoTransacao,
			DataSolicitacao: utils.RFC3339Date{Time: row.DataSolicitacao},
		}

		if row.DataPagamento != nil {
			item.DataPagamento = &utils.RFC3339Date{Time: *row.DataPagamento}
		}

		if vendedor, ok := vendedores[row.VendedorID]; ok {
			item.VendedorNome = vendedor.Nome
		}

		items = append(items, item)
	}

	return items, nil
}

func (s *SaqueService) listSaques(ctx context.Context, statuses ...models.SaqueStatus) ([]models.SaqueView, error) {
	rows, err := s.storage.FindSaquesByStatus(ctx, statuses...)

	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.VendedorID)
	}

	vendedores, err := s.storage.FindUsuariosByIDs(ctx, ids)

	if err != nil {
		logger.Log.Warn("failed to load vendedor info", zap.Error(err))
		vendedores = nil
	}

	views := make([]models.SaqueView, 0, len(rows))

	for _, row := range rows {
		row := row
		views = append(views, s.buildView(&row, vendedores))
	}

	return views, nil
}

func (s *SaqueService) buildView(saque *database.SaqueDB, vendedores map[string]database.UsuarioDB) models.SaqueView {
	fee, net := s.fees.SplitWithdrawal(saque.Valor)

	view := models.SaqueView{
		ID:              saque.ID,
		PublicID:        publicSaqueID(saque.ID),
		Valor:           saque.Valor,
		ValorLiquido:    net,
		Taxa:            fee,
		Status:          saque.Status.SaqueStatus,
		Metodo:          saque.Metodo.PaymentMethod,
		ContaDestino:    saque.ContaDestino,
		TelefoneTitular: saque.TelefoneTitular,
		Banco:           saque.Banco,
		Observacoes:     saque.Observacoes,
		DataSolicitacao: utils.RFC3339Date{Time: saque.DataSolicitacao},
	}

	if saque.DataPagamento != nil {
		view.DataPagamento = &utils.RFC3339Date{Time: *saque.DataPagamento}
	}

	if vendedor, ok := vendedores[saque.VendedorID]; ok {
		view.Vendedor = &models.VendedorInfo{
			ID:       vendedor.ID,
			Nome:     vendedor.Nome,
			Email:    vendedor.Email,
			Telefone: vendedor.Telefone,
		}
	}

	return view
}

// publicSaqueID is the short display id admins see, the tail of the
// saque uuid uppercased.
func publicSaqueID(id string) string {
	clean := strings.ReplaceAll(id, "-", "")

	if len(clean) <= 6 {
		return strings.ToUpper(clean)
	}

	return strings.ToUpper(clean[len(clean)-6:])
}

func approvalNote(now time.Time, operatorID, transactionRef string, fee, net float64, notes string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "\n\nAprovado em: %s", now.Format(time.RFC3339))
	fmt.Fprintf(&b, "\nAprovado por: %s", operatorID)

	if transactionRef != "" {
		fmt.Fprintf(&b, "\nID Transação: %s", transactionRef)
	}

	fmt.Fprintf(&b, "\nTaxa admin: MZN %.2f", fee)
	fmt.Fprintf(&b, "\nValor líquido: MZN %.2f", net)

	if notes != "" {
		fmt.Fprintf(&b, "\nObservações: %s", notes)
	}

	return b.String()
}

func cancellationNote(now time.Time, operatorID, reason string) string {
	return fmt.Sprintf("\n\nCancelado em: %s\nCancelado por: %s\nMotivo: %s",
		now.Format(time.RFC3339), operatorID, reason)
}

func verificationNote(now time.Time, operatorID, notes string) string {
	note := fmt.Sprintf("\n\nVerificado em: %s\nVerificado por: %s",
		now.Format(time.RFC3339), operatorID)

	if notes != "" {
		note += fmt.Sprintf("\nNotas: %s", notes)
	}

	return note
}
