package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ratixpay/ratixpay-backend/internal/database"
	"github.com/ratixpay/ratixpay-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSaqueStorage struct {
	saques    map[string]*database.SaqueDB
	historico map[string]*database.HistoricoSaqueDB
	usuarios  map[string]database.UsuarioDB

	transactionRefs map[string]string
}

func newFakeSaqueStorage() *fakeSaqueStorage {
	return &fakeSaqueStorage{
		saques:          make(map[string]*database.SaqueDB),
		historico:       make(map[string]*database.HistoricoSaqueDB),
		usuarios:        make(map[string]database.UsuarioDB),
		transactionRefs: make(map[string]string),
	}
}

func (f *fakeSaqueStorage) CreateSaque(ctx context.Context, s *database.SaqueDB) error {
	if s.ID == "" {
		s.ID = "saque-" + time.Now().Format("150405.000000000")
	}
	s.DataSolicitacao = time.Now()

	saved := *s
	f.saques[s.ID] = &saved
	return nil
}

func (f *fakeSaqueStorage) FindSaque(ctx context.Context, saqueID string) (*database.SaqueDB, error) {
	saque, ok := f.saques[saqueID]
	if !ok {
		return nil, nil
	}

	snapshot := *saque
	return &snapshot, nil
}

func (f *fakeSaqueStorage) FindSaquesByStatus(ctx context.Context, statuses ...models.SaqueStatus) ([]database.SaqueDB, error) {
	var result []database.SaqueDB

	for _, saque := range f.saques {
		for _, status := range statuses {
			if saque.Status.SaqueStatus == status {
				result = append(result, *saque)
			}
		}
	}

	return result, nil
}

func (f *fakeSaqueStorage) MarkSaquePago(ctx context.Context, saqueID, transactionRef, operatorID, notes string) (bool, error) {
	saque, ok := f.saques[saqueID]
	if !ok || saque.Status.SaqueStatus != models.SaquePendente {
		return false, nil
	}

	now := time.Now()
	saque.Status = database.SaqueStatusDB{SaqueStatus: models.SaquePago}
	saque.IDTransacaoPagamento = transactionRef
	saque.DataPagamento = &now
	saque.Observacoes = strings.TrimSpace(saque.Observacoes + notes)
	return true, nil
}

func (f *fakeSaqueStorage) MarkSaqueCancelado(ctx context.Context, saqueID, operatorID, reason, notes string) (bool, error) {
	saque, ok := f.saques[saqueID]
	if !ok {
		return false, nil
	}

	switch saque.Status.SaqueStatus {
	case models.SaquePendente, models.SaquePago, models.SaqueCancelado:
		return false, nil
	}

	saque.Status = database.SaqueStatusDB{SaqueStatus: models.SaqueCancelado}
	saque.Observacoes = strings.TrimSpace(saque.Observacoes + notes)
	return true, nil
}

func (f *fakeSaqueStorage) SetSaqueTransactionRef(ctx context.Context, saqueID, transactionRef string) error {
	f.transactionRefs[saqueID] = transactionRef

	if saque, ok := f.saques[saqueID]; ok {
		saque.IDTransacaoPagamento = transactionRef
	}
	return nil
}

func (f *fakeSaqueStorage) AppendSaqueObservacoes(ctx context.Context, saqueID, notes string) (bool, error) {
	saque, ok := f.saques[saqueID]
	if !ok || saque.Status.SaqueStatus != models.SaquePago {
		return false, nil
	}

	saque.Observacoes = strings.TrimSpace(saque.Observacoes + notes)
	return true, nil
}

func (f *fakeSaqueStorage) CreateHistoricoSaque(ctx context.Context, h database.HistoricoSaqueDB) error {
	if _, ok := f.historico[h.SaqueID]; ok {
		return nil
	}

	saved := h
	f.historico[h.SaqueID] = &saved
	return nil
}

func (f *fakeSaqueStorage) UpdateHistoricoStatus(ctx context.Context, saqueID string, status models.SaqueStatus, valorLiquido, taxa float64, operatorID, transactionRef string) error {
	if h, ok := f.historico[saqueID]; ok {
		h.Status = database.SaqueStatusDB{SaqueStatus: status}
		h.ProcessadoPor = operatorID
		h.CodigoTransacao = transactionRef
	}
	return nil
}

func (f *fakeSaqueStorage) FindHistoricoSaques(ctx context.Context) ([]database.HistoricoSaqueDB, error) {
	var result []database.HistoricoSaqueDB
	for _, h := range f.historico {
		result = append(result, *h)
	}
	return result, nil
}

func (f *fakeSaqueStorage) FindUsuariosByIDs(ctx context.Context, ids []string) (map[string]database.UsuarioDB, error) {
	result := make(map[string]database.UsuarioDB)
	for _, id := range ids {
		if usuario, ok := f.usuarios[id]; ok {
			result[id] = usuario
		}
	}
	return result, nil
}

type fakeSaqueLedger struct {
	balance models.Balance

	debits      []float64
	fees        []float64
	recomputed  []string
	debitFailed error
}

func (f *fakeSaqueLedger) VendorBalance(ctx context.Context, vendedorID string) (models.Balance, error) {
	return f.balance, nil
}

func (f *fakeSaqueLedger) DebitVendorGross(ctx context.Context, vendedorID, saqueID string, gross float64) error {
	if f.debitFailed != nil {
		return f.debitFailed
	}

	f.debits = append(f.debits, gross)
	return nil
}

func (f *fakeSaqueLedger) CreditAdminWithdrawalFee(ctx context.Context, fee, gross float64) error {
	f.fees = append(f.fees, fee)
	return nil
}

func (f *fakeSaqueLedger) RecomputeVendorAggregate(ctx context.Context, vendedorID string) error {
	f.recomputed = append(f.recomputed, vendedorID)
	return nil
}

type fakePayoutGateway struct {
	response *models.GatewayResponse
	err      error
	calls    int
}

func (f *fakePayoutGateway) SubmitPayout(ctx context.Context, metodo models.PaymentMethod, valor float64, telefone string, referencia string) (*models.GatewayResponse, error) {
	f.calls++

	if f.err != nil {
		return nil, f.err
	}

	return f.response, nil
}

// syncJobQueue runs jobs inline so tests observe their effects
// immediately.
type syncJobQueue struct{}

func (syncJobQueue) Enqueue(job Job) error {
	job(context.Background())
	return nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []any
}

func (n *recordingNotifier) Publish(ctx context.Context, channel string, payload any) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.messages = append(n.messages, payload)
	return nil
}

func newTestSaqueService(storage *fakeSaqueStorage, ledger *fakeSaqueLedger, gateway *fakePayoutGateway) (*SaqueService, *recordingNotifier) {
	notifier := &recordingNotifier{}
	service := NewSaqueService(storage, ledger, gateway, syncJobQueue{}, notifier, DefaultFeePolicy())
	return service, notifier
}

func pendingSaque(storage *fakeSaqueStorage, valor float64) *database.SaqueDB {
	saque := &database.SaqueDB{
		ID:              "saque-1",
		VendedorID:      "vendedor-1",
		Valor:           valor,
		Status:          database.SaqueStatusDB{SaqueStatus: models.SaquePendente},
		Metodo:          database.PaymentMethodDB{PaymentMethod: models.MethodMpesa},
		ContaDestino:    "841234567",
		TelefoneTitular: "841234567",
		DataSolicitacao: time.Now(),
	}
	storage.saques[saque.ID] = saque
	storage.historico[saque.ID] = &database.HistoricoSaqueDB{
		SaqueID:    saque.ID,
		VendedorID: saque.VendedorID,
		Status:     saque.Status,
	}
	return saque
}

func TestRequestSaque(t *testing.T) {
	storage := newFakeSaqueStorage()
	ledger := &fakeSaqueLedger{balance: models.Balance{Current: 1000}}
	service, _ := newTestSaqueService(storage, ledger, &fakePayoutGateway{})

	valor := 500.0
	metodo := "mpesa"
	conta := "841234567"
	telefone := "841234567"

	view, err := service.Request(context.Background(), models.SaqueRequest{
		VendedorID:      "vendedor-1",
		Valor:           &valor,
		Metodo:          &metodo,
		ContaDestino:    &conta,
		TelefoneTitular: &telefone,
	})
	require.NoError(t, err)

	assert.Equal(t, models.SaquePendente, view.Status)
	assert.Equal(t, 500.0, view.Valor)
	assert.Equal(t, 25.0, view.Taxa)
	assert.Equal(t, 475.0, view.ValorLiquido)
	assert.Len(t, view.PublicID, 6)

	// Request is mirrored into the audit history right away.
	assert.Len(t, storage.historico, 1)
}

func TestRequestSaqueRejectsInsufficientBalance(t *testing.T) {
	storage := newFakeSaqueStorage()
	ledger := &fakeSaqueLedger{balance: models.Balance{Current: 100}}
	service, _ := newTestSaqueService(storage, ledger, &fakePayoutGateway{})

	valor := 500.0
	metodo := "mpesa"
	conta := "841234567"
	telefone := "841234567"

	_, err := service.Request(context.Background(), models.SaqueRequest{
		VendedorID:      "vendedor-1",
		Valor:           &valor,
		Metodo:          &metodo,
		ContaDestino:    &conta,
		TelefoneTitular: &telefone,
	})

	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Empty(t, storage.saques)
}

func TestRequestSaqueValidation(t *testing.T) {
	valor := 500.0
	badValor := -10.0
	metodo := "mpesa"
	badMetodo := "paypal"
	conta := "841234567"
	telefone := "841234567"
	badTelefone := "912345678"

	testCases := []struct {
		name string
		req  models.SaqueRequest
	}{
		{"missing valor", models.SaqueRequest{Metodo: &metodo, ContaDestino: &conta, TelefoneTitular: &telefone}},
		{"negative valor", models.SaqueRequest{Valor: &badValor, Metodo: &metodo, ContaDestino: &conta, TelefoneTitular: &telefone}},
		{"unknown metodo", models.SaqueRequest{Valor: &valor, Metodo: &badMetodo, ContaDestino: &conta, TelefoneTitular: &telefone}},
		{"invalid telefone", models.SaqueRequest{Valor: &valor, Metodo: &metodo, ContaDestino: &conta, TelefoneTitular: &badTelefone}},
		{"missing conta", models.SaqueRequest{Valor: &valor, Metodo: &metodo, TelefoneTitular: &telefone}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			storage := newFakeSaqueStorage()
			ledger := &fakeSaqueLedger{balance: models.Balance{Current: 10000}}
			service, _ := newTestSaqueService(storage, ledger, &fakePayoutGateway{})

			tc.req.VendedorID = "vendedor-1"
			_, err := service.Request(context.Background(), tc.req)

			var validationErr *ValidationError
			assert.ErrorAs(t, err, &validationErr)
		})
	}
}

func TestApproveSaqueWithManualTransactionRef(t *testing.T) {
	storage := newFakeSaqueStorage()
	ledger := &fakeSaqueLedger{}
	gateway := &fakePayoutGateway{}
	service, notifier := newTestSaqueService(storage, ledger, gateway)

	pendingSaque(storage, 1000)

	receipt, err := service.Approve(context.Background(), "saque-1", "admin-1", "TX-123", "ok")
	require.NoError(t, err)

	assert.Equal(t, models.SaquePago, receipt.Status)
	assert.Equal(t, 50.0, receipt.TaxaAdmin)
	assert.Equal(t, 950.0, receipt.ValorLiquido)
	assert.Equal(t, "TX-123", receipt.TransactionRef)

	// Manual settlement skips the gateway payout.
	assert.Zero(t, gateway.calls)

	// Admin keeps the fee, vendor is debited the full gross.
	assert.Equal(t, []float64{50}, ledger.fees)
	assert.Equal(t, []float64{1000}, ledger.debits)

	saque := storage.saques["saque-1"]
	assert.Equal(t, models.SaquePago, saque.Status.SaqueStatus)
	assert.Contains(t, saque.Observacoes, "Aprovado por: admin-1")

	assert.Equal(t, models.SaquePago, storage.historico["saque-1"].Status.SaqueStatus)
	assert.Equal(t, []string{"vendedor-1"}, ledger.recomputed)
	assert.Len(t, notifier.messages, 1)
}

func TestApproveSaqueSubmitsPayoutWhenNoRefProvided(t *testing.T) {
	storage := newFakeSaqueStorage()
	ledger := &fakeSaqueLedger{}
	gateway := &fakePayoutGateway{
		response: &models.GatewayResponse{Success: true, TransactionID: "GW-777"},
	}
	service, _ := newTestSaqueService(storage, ledger, gateway)

	pendingSaque(storage, 1000)

	receipt, err := service.Approve(context.Background(), "saque-1", "admin-1", "", "")
	require.NoError(t, err)

	assert.Equal(t, 1, gateway.calls)
	assert.Equal(t, "GW-777", receipt.TransactionRef)
	assert.Equal(t, "GW-777", storage.transactionRefs["saque-1"])
}

func TestApproveSaqueSurfacesPayoutFailure(t *testing.T) {
	storage := newFakeSaqueStorage()
	ledger := &fakeSaqueLedger{}
	gateway := &fakePayoutGateway{err: errGatewayServer}
	service, _ := newTestSaqueService(storage, ledger, gateway)

	pendingSaque(storage, 1000)

	_, err := service.Approve(context.Background(), "saque-1", "admin-1", "", "")

	var gatewayErr *GatewayError
	require.ErrorAs(t, err, &gatewayErr)

	// The approval itself stands, the payout has to be retried out of
	// band.
	assert.Equal(t, models.SaquePago, storage.saques["saque-1"].Status.SaqueStatus)
	assert.Equal(t, []float64{1000}, ledger.debits)
}

func TestApproveSaqueGuards(t *testing.T) {
	testCases := []struct {
		name   string
		status models.SaqueStatus
	}{
		{"already pago", models.SaquePago},
		{"already cancelado", models.SaqueCancelado},
		{"aprovado awaiting payment", models.SaqueAprovado},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			storage := newFakeSaqueStorage()
			service, _ := newTestSaqueService(storage, &fakeSaqueLedger{}, &fakePayoutGateway{})

			saque := pendingSaque(storage, 1000)
			saque.Status = database.SaqueStatusDB{SaqueStatus: tc.status}

			_, err := service.Approve(context.Background(), "saque-1", "admin-1", "TX-1", "")

			var stateErr *InvalidStateError
			assert.ErrorAs(t, err, &stateErr)
		})
	}
}

func TestApproveSaqueNotFound(t *testing.T) {
	storage := newFakeSaqueStorage()
	service, _ := newTestSaqueService(storage, &fakeSaqueLedger{}, &fakePayoutGateway{})

	_, err := service.Approve(context.Background(), "missing", "admin-1", "TX-1", "")
	assert.ErrorIs(t, err, ErrSaqueNotFound)
}

func TestApproveSaqueLosesRaceToAnotherOperator(t *testing.T) {
	storage := newFakeSaqueStorage()
	ledger := &fakeSaqueLedger{}
	service, _ := newTestSaqueService(storage, ledger, &fakePayoutGateway{})

	pendingSaque(storage, 1000)

	// Another operator wins between the read and the update.
	_, err := service.Approve(context.Background(), "saque-1", "admin-1", "TX-1", "")
	require.NoError(t, err)

	_, err = service.Approve(context.Background(), "saque-1", "admin-2", "TX-2", "")

	var stateErr *InvalidStateError
	require.ErrorAs(t, err, &stateErr)

	// The ledger was touched exactly once.
	assert.Equal(t, []float64{1000}, ledger.debits)
	assert.Equal(t, "TX-1", storage.saques["saque-1"].IDTransacaoPagamento)
}

func TestCancelSaqueGuards(t *testing.T) {
	testCases := []struct {
		name         string
		status       models.SaqueStatus
		expectedRule string
	}{
		{"pendente is never cancellable", models.SaquePendente, `saques com status "pendente" não podem ser cancelados`},
		{"pago is terminal", models.SaquePago, "saque já foi pago e não pode ser cancelado"},
		{"cancelado is terminal", models.SaqueCancelado, "saque já está cancelado"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			storage := newFakeSaqueStorage()
			service, _ := newTestSaqueService(storage, &fakeSaqueLedger{}, &fakePayoutGateway{})

			saque := pendingSaque(storage, 1000)
			saque.Status = database.SaqueStatusDB{SaqueStatus: tc.status}

			err := service.Cancel(context.Background(), "saque-1", "admin-1", "motivo")

			var stateErr *InvalidStateError
			require.ErrorAs(t, err, &stateErr)
			assert.Equal(t, tc.expectedRule, stateErr.Rule)
		})
	}
}

func TestCancelSaque(t *testing.T) {
	storage := newFakeSaqueStorage()
	service, notifier := newTestSaqueService(storage, &fakeSaqueLedger{}, &fakePayoutGateway{})

	saque := pendingSaque(storage, 1000)
	saque.Status = database.SaqueStatusDB{SaqueStatus: models.SaqueAprovado}

	require.NoError(t, service.Cancel(context.Background(), "saque-1", "admin-1", "dados bancários inválidos"))

	assert.Equal(t, models.SaqueCancelado, storage.saques["saque-1"].Status.SaqueStatus)
	assert.Contains(t, storage.saques["saque-1"].Observacoes, "dados bancários inválidos")
	assert.Equal(t, models.SaqueCancelado, storage.historico["saque-1"].Status.SaqueStatus)
	assert.Len(t, notifier.messages, 1)
}

func TestVerifySaque(t *testing.T) {
	storage := newFakeSaqueStorage()
	service, _ := newTestSaqueService(storage, &fakeSaqueLedger{}, &fakePayoutGateway{})

	saque := pendingSaque(storage, 1000)
	saque.Status = database.SaqueStatusDB{SaqueStatus: models.SaquePago}

	require.NoError(t, service.Verify(context.Background(), "saque-1", "admin-1", "comprovante conferido"))

	assert.Contains(t, storage.saques["saque-1"].Observacoes, "Verificado por: admin-1")
	assert.Contains(t, storage.saques["saque-1"].Observacoes, "comprovante conferido")
}

func TestVerifySaqueRequiresPagoStatus(t *testing.T) {
	storage := newFakeSaqueStorage()
	service, _ := newTestSaqueService(storage, &fakeSaqueLedger{}, &fakePayoutGateway{})

	pendingSaque(storage, 1000)

	err := service.Verify(context.Background(), "saque-1", "admin-1", "")

	var stateErr *InvalidStateError
	assert.ErrorAs(t, err, &stateErr)
}

func TestListSaquesEnrichesVendedorInfo(t *testing.T) {
	storage := newFakeSaqueStorage()
	service, _ := newTestSaqueService(storage, &fakeSaqueLedger{}, &fakePayoutGateway{})

	pendingSaque(storage, 1000)
	storage.usuarios["vendedor-1"] = database.UsuarioDB{
		Usuario: models.Usuario{
			ID:    "vendedor-1",
			Nome:  "Maria",
			Email: "maria@example.com",
		},
	}

	saques, err := service.PendingSaques(context.Background())
	require.NoError(t, err)

	require.Len(t, saques, 1)
	require.NotNil(t, saques[0].Vendedor)
	assert.Equal(t, "Maria", saques[0].Vendedor.Nome)
}

func TestPublicSaqueID(t *testing.T) {
	assert.Equal(t, "D479EF", publicSaqueID("a3f2c1b0-4e5d-6a7b-8c9d-012345d479ef"))
	assert.Equal(t, "ABC", publicSaqueID("abc"))
}
