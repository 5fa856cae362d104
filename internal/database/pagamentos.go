package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ratixpay/ratixpay-backend/internal/models"
)

var (
	ErrDuplicatePagamento = errors.New("pagamento already exists")
)

const (
	InsertPagamentoQuery = `
		INSERT INTO
			pagamentos (referencia, venda_id, vendedor_id, valor, metodo, telefone, timeout_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	// Conditional on status so a terminal pagamento is written once only.
	MarkPagamentoTerminalQuery = `
		UPDATE
			pagamentos
		SET
			status = $2,
			detalhes = $3,
			updated_at = now()
		WHERE
		    referencia = $1
			AND status = 'pending'
	`
	SelectPendingPagamentosQuery = `
		SELECT
			referencia,
			venda_id,
			vendedor_id,
			valor,
			metodo,
			telefone,
			status,
			timeout_at,
			created_at
		FROM
		    pagamentos
		WHERE
		    status = 'pending'
	`
	UpdateVendaStatusQuery = `
		UPDATE
			vendas
		SET
			status = $2,
			updated_at = now()
		WHERE
		    id = $1
	`
)

// PagamentoDB is one durable payment attempt row.
type PagamentoDB struct {
	Referencia string
	VendaID    string
	VendedorID string
	Valor      float64
	Metodo     PaymentMethodDB
	Telefone   string
	Status     PaymentStatusDB
	TimeoutAt  time.Time
	CreatedAt  time.Time
}

type PaymentStatusDB struct {
	models.PaymentStatus
}

func (s *PaymentStatusDB) Scan(value interface{}) error {
	strVal, ok := value.(string)
	if !ok {
		return fmt.Errorf("payment status must be a string, not %T", value)
	}

	*s = PaymentStatusDB{models.PaymentStatus(strVal)}
	return nil
}

func (s PaymentStatusDB) Value() (driver.Value, error) {
	return string(s.PaymentStatus), nil
}

type PaymentMethodDB struct {
	models.PaymentMethod
}

func (m *PaymentMethodDB) Scan(value interface{}) error {
	strVal, ok := value.(string)
	if !ok {
		return fmt.Errorf("payment method must be a string, not %T", value)
	}

	*m = PaymentMethodDB{models.PaymentMethod(strVal)}
	return nil
}

func (m PaymentMethodDB) Value() (driver.Value, error) {
	return string(m.PaymentMethod), nil
}

// CreatePagamento persists a registered payment before tracking begins,
// so a restart can rehydrate the in-memory registry.
func (d *Database) CreatePagamento(ctx context.Context, p PagamentoDB) error {
	_, err := d.db.Exec(ctx, InsertPagamentoQuery,
		p.Referencia, p.VendaID, p.VendedorID, p.Valor, p.Metodo, p.Telefone, p.TimeoutAt)
	if err != nil {
		var e *pgconn.PgError
		if errors.As(err, &e) && e.Code == pgerrcode.UniqueViolation {
			return ErrDuplicatePagamento
		}
		return fmt.Errorf("failed to create pagamento: %w", err)
	}
	return nil
}

// MarkPagamentoTerminal writes a terminal status once. A second call for
// the same referencia is a no-op, which keeps webhook and sweep races
// harmless at the storage level.
func (d *Database) MarkPagamentoTerminal(ctx context.Context, referencia string, status PaymentStatusDB, detalhes string) (bool, error) {
	tag, err := d.db.Exec(ctx, MarkPagamentoTerminalQuery, referencia, status, detalhes)
	if err != nil {
		return false, fmt.Errorf("failed to mark pagamento terminal: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// FindPendingPagamentos returns every non-terminal payment row, used to
// rehydrate the tracker on startup.
func (d *Database) FindPendingPagamentos(ctx context.Context) ([]PagamentoDB, error) {
	var result []PagamentoDB

	rows, err := d.db.Query(ctx, SelectPendingPagamentosQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to find pending pagamentos: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item PagamentoDB
		if err := rows.Scan(&item.Referencia, &item.VendaID, &item.VendedorID, &item.Valor,
			&item.Metodo, &item.Telefone, &item.Status, &item.TimeoutAt, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pagamento row: %w", err)
		}
		result = append(result, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pagamento rows: %w", err)
	}

	return result, nil
}

// UpdateVendaStatus moves a sale to paga/cancelada after its payment
// resolves.
func (d *Database) UpdateVendaStatus(ctx context.Context, vendaID, status string) error {
	_, err := d.db.Exec(ctx, UpdateVendaStatusQuery, vendaID, status)
	if err != nil {
		return fmt.Errorf("failed to update venda status: %w", err)
	}
	return nil
}
