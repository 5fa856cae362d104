package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/ratixpay/ratixpay-backend/internal/database"
	"github.com/ratixpay/ratixpay-backend/internal/logger"
	"github.com/ratixpay/ratixpay-backend/internal/models"
	"github.com/ratixpay/ratixpay-backend/internal/utils"
	"go.uber.org/zap"
)

type ledgerStorage interface {
	FindSaldoAdmin(ctx context.Context) (*database.SaldoAdminDB, error)

	CreditAdminTaxaSaque(ctx context.Context, fee, gross float64) error

	CreditAdminComissao(ctx context.Context, commission, saleValue float64) error

	CreateMovimento(ctx context.Context, m database.MovimentoDB) error

	CreditSaldoVendedor(ctx context.Context, vendedorID string, amount float64) error

	DebitSaldoVendedor(ctx context.Context, vendedorID string, amount float64) error

	SumMovimentos(ctx context.Context, vendedorID, tipo string) (float64, error)

	UpdateSaldoVendedorAggregates(ctx context.Context, vendedorID string, saldoAtual, receitaTotal, totalSacado float64) error

	FindSaldoVendedor(ctx context.Context, vendedorID string) (*database.SaldoVendedorDB, error)
}

// LedgerService keeps the money honest. Every balance change is backed
// by a movement row whose (vendedor, origem, referencia) key makes the
// write idempotent: replaying an event credits or debits at most once.
type LedgerService struct {
	storage ledgerStorage
	fees    FeePolicy
}

func NewLedgerService(storage ledgerStorage, fees FeePolicy) *LedgerService {
	return &LedgerService{
		storage: storage,
		fees:    fees,
	}
}

func (l *LedgerService) AdminBalance(ctx context.Context) (*models.AdminBalance, error) {
	saldo, err := l.storage.FindSaldoAdmin(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to load admin balance: %w", err)
	}

	return &models.AdminBalance{
		SaldoTotal:           saldo.SaldoTotal,
		ComissaoPercentual:   l.fees.SaleCommissionPercent,
		TotalVendasAprovadas: saldo.TotalVendasAprovadas,
		ValorTotalVendas:     saldo.ValorTotalVendas,
		TotalComissoes:       saldo.TotalComissoes,
		TotalSaquesPagos:     saldo.TotalSaquesPagos,
		TaxasSaques:          saldo.TaxasSaques,
		UltimaAtualizacao:    utils.RFC3339Date{Time: saldo.UltimaAtualizacao},
	}, nil
}

// VendorBalance reports the vendor's available and withdrawn totals. A
// vendor with no movements yet has a zero balance, not an error.
func (l *LedgerService) VendorBalance(ctx context.Context, vendedorID string) (models.Balance, error) {
	saldo, err := l.storage.FindSaldoVendedor(ctx, vendedorID)

	if err != nil {
		return models.Balance{}, fmt.Errorf("failed to load vendor balance: %w", err)
	}

	if saldo == nil {
		return models.Balance{}, nil
	}

	return models.Balance{
		Current:   saldo.SaldoAtual,
		Withdrawn: saldo.TotalSacado,
	}, nil
}

// CreditVendorSale credits the vendor their net share of a confirmed
// sale. The venda id keys the movement, so the same sale confirmation
// applied twice credits once.
func (l *LedgerService) CreditVendorSale(ctx context.Context, vendedorID, vendaID string, gross float64) error {
	commission, net := l.fees.SplitSale(gross)

	err := l.storage.CreateMovimento(ctx, database.MovimentoDB{
		VendedorID:   vendedorID,
		Tipo:         "credito",
		Origem:       "venda",
		ReferenciaID: vendaID,
		Valor:        net,
		Descricao:    fmt.Sprintf("Venda aprovada (bruto MZN %.2f, comissão MZN %.2f)", gross, commission),
	})

	if err != nil {
		if errors.Is(err, database.ErrDuplicateMovimento) {
			logger.Log.Info("sale already credited",
				zap.String("vendedorID", vendedorID),
				zap.String("vendaID", vendaID),
			)
			return nil
		}

		return fmt.Errorf("failed to record sale movement: %w", err)
	}

	if err := l.storage.CreditSaldoVendedor(ctx, vendedorID, net); err != nil {
		return fmt.Errorf("failed to credit vendor balance: %w", err)
	}

	return nil
}

// CreditAdminCommission adds the platform's commission on a confirmed
// sale to the admin balance.
func (l *LedgerService) CreditAdminCommission(ctx context.Context, saleValue float64) error {
	commission, _ := l.fees.SplitSale(saleValue)

	if err := l.storage.CreditAdminComissao(ctx, commission, saleValue); err != nil {
		return fmt.Errorf("failed to credit admin commission: %w", err)
	}

	return nil
}

// CreditAdminWithdrawalFee adds the fee retained on a paid withdrawal
// to the admin balance.
func (l *LedgerService) CreditAdminWithdrawalFee(ctx context.Context, fee, gross float64) error {
	if err := l.storage.CreditAdminTaxaSaque(ctx, fee, gross); err != nil {
		return fmt.Errorf("failed to credit admin withdrawal fee: %w", err)
	}

	return nil
}

// DebitVendorGross debits the full gross amount of a paid withdrawal
// from the vendor. The saque id keys the movement for idempotency, and
// the balance update is conditional so the balance can't go negative.
func (l *LedgerService) DebitVendorGross(ctx context.Context, vendedorID, saqueID string, gross float64) error {
	err := l.storage.CreateMovimento(ctx, database.MovimentoDB{
		VendedorID:   vendedorID,
		Tipo:         "debito",
		Origem:       "saque",
		ReferenciaID: saqueID,
		Valor:        gross,
		Descricao:    fmt.Sprintf("Saque aprovado (MZN %.2f)", gross),
	})

	if err != nil {
		if errors.Is(err, database.ErrDuplicateMovimento) {
			logger.Log.Info("withdrawal already debited",
				zap.String("vendedorID", vendedorID),
				zap.String("saqueID", saqueID),
			)
			return nil
		}

		return fmt.Errorf("failed to record withdrawal movement: %w", err)
	}

	if err := l.storage.DebitSaldoVendedor(ctx, vendedorID, gross); err != nil {
		if errors.Is(err, database.ErrInsufficientSaldo) {
			return fmt.Errorf("vendedor %s: %w", vendedorID, ErrInsufficientBalance)
		}

		return fmt.Errorf("failed to debit vendor balance: %w", err)
	}

	return nil
}

// RecomputeVendorAggregate rebuilds the vendor's balance row from the
// movement log. The movement rows are the source of truth; the balance
// row is a cache of their sums.
func (l *LedgerService) RecomputeVendorAggregate(ctx context.Context, vendedorID string) error {
	credits, err := l.storage.SumMovimentos(ctx, vendedorID, "credito")

	if err != nil {
		return fmt.Errorf("failed to sum credits: %w", err)
	}

	debits, err := l.storage.SumMovimentos(ctx, vendedorID, "debito")

	if err != nil {
		return fmt.Errorf("failed to sum debits: %w", err)
	}

	if err := l.storage.UpdateSaldoVendedorAggregates(ctx, vendedorID, credits-debits, credits, debits); err != nil {
		return fmt.Errorf("failed to update vendor aggregates: %w", err)
	}

	return nil
}
