package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ratixpay/ratixpay-backend/internal/models"
)

const (
	InsertSaqueQuery = `
		INSERT INTO
			saques (vendedor_id, valor, metodo, conta_destino, telefone_titular, banco, observacoes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, data_solicitacao
	`
	SelectSaqueQuery = `
		SELECT
			id,
			vendedor_id,
			valor,
			status,
			metodo,
			conta_destino,
			telefone_titular,
			banco,
			observacoes,
			id_transacao_pagamento,
			data_solicitacao,
			data_pagamento
		FROM
		    saques
		WHERE
		    id = $1
	`
	SelectSaquesByStatusQuery = `
		SELECT
			id,
			vendedor_id,
			valor,
			status,
			metodo,
			conta_destino,
			telefone_titular,
			banco,
			observacoes,
			id_transacao_pagamento,
			data_solicitacao,
			data_pagamento
		FROM
		    saques
		WHERE
		    status = ANY ($1)
		ORDER BY
		    data_solicitacao DESC
	`
	// Guarded on status = 'pendente': exactly one of two concurrent
	// approvals can win.
	MarkSaquePagoQuery = `
		UPDATE
			saques
		SET
			status = 'pago',
			data_pagamento = now(),
			id_transacao_pagamento = $2,
			aprovado_por = $3,
			observacoes = trim(observacoes || $4)
		WHERE
		    id = $1
			AND status = 'pendente'
	`
	// Pendente is never cancellable, pago and cancelado are terminal.
	MarkSaqueCanceladoQuery = `
		UPDATE
			saques
		SET
			status = 'cancelado',
			data_cancelamento = now(),
			cancelado_por = $2,
			motivo_cancelamento = $3,
			observacoes = trim(observacoes || $4)
		WHERE
		    id = $1
			AND status NOT IN ('pendente', 'pago', 'cancelado')
	`
	SetSaqueTransactionRefQuery = `
		UPDATE
			saques
		SET
			id_transacao_pagamento = $2
		WHERE
		    id = $1
	`
	AppendSaqueObservacoesQuery = `
		UPDATE
			saques
		SET
			observacoes = trim(observacoes || $2)
		WHERE
		    id = $1
			AND status = 'pago'
	`
)

type SaqueDB struct {
	ID                   string
	VendedorID           string
	Valor                float64
	Status               SaqueStatusDB
	Metodo               PaymentMethodDB
	ContaDestino         string
	TelefoneTitular      string
	Banco                string
	Observacoes          string
	IDTransacaoPagamento string
	DataSolicitacao      time.Time
	DataPagamento        *time.Time
}

type SaqueStatusDB struct {
	models.SaqueStatus
}

func (s *SaqueStatusDB) Scan(value interface{}) error {
	strVal, ok := value.(string)
	if !ok {
		return fmt.Errorf("saque status must be a string, not %T", value)
	}

	*s = SaqueStatusDB{models.SaqueStatus(strVal)}
	return nil
}

func (s SaqueStatusDB) Value() (driver.Value, error) {
	return string(s.SaqueStatus), nil
}

// CreateSaque inserts a pendente withdrawal request.
func (d *Database) CreateSaque(ctx context.Context, s *SaqueDB) error {
	err := d.db.QueryRow(ctx, InsertSaqueQuery,
		s.VendedorID, s.Valor, s.Metodo, s.ContaDestino, s.TelefoneTitular, s.Banco, s.Observacoes).
		Scan(&s.ID, &s.DataSolicitacao)
	if err != nil {
		return fmt.Errorf("failed to create saque: %w", err)
	}
	s.Status = SaqueStatusDB{models.SaquePendente}
	return nil
}

// FindSaque looks a saque up by id. Absence is (nil, nil).
func (d *Database) FindSaque(ctx context.Context, saqueID string) (*SaqueDB, error) {
	saque := &SaqueDB{}

	err := d.db.QueryRow(ctx, SelectSaqueQuery, saqueID).
		Scan(&saque.ID, &saque.VendedorID, &saque.Valor, &saque.Status, &saque.Metodo,
			&saque.ContaDestino, &saque.TelefoneTitular, &saque.Banco, &saque.Observacoes,
			&saque.IDTransacaoPagamento, &saque.DataSolicitacao, &saque.DataPagamento)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find saque: %w", err)
	}

	return saque, nil
}

// FindSaquesByStatus returns saques in any of the given statuses, newest
// first.
func (d *Database) FindSaquesByStatus(ctx context.Context, statuses ...models.SaqueStatus) ([]SaqueDB, error) {
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}

	var result []SaqueDB

	rows, err := d.db.Query(ctx, SelectSaquesByStatusQuery, values)
	if err != nil {
		return nil, fmt.Errorf("failed to find saques: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item SaqueDB
		if err := rows.Scan(&item.ID, &item.VendedorID, &item.Valor, &item.Status, &item.Metodo,
			&item.ContaDestino, &item.TelefoneTitular, &item.Banco, &item.Observacoes,
			&item.IDTransacaoPagamento, &item.DataSolicitacao, &item.DataPagamento); err != nil {
			return nil, fmt.Errorf("failed to scan saque row: %w", err)
		}
		result = append(result, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate saque rows: %w", err)
	}

	return result, nil
}

// MarkSaquePago flips a pendente saque to pago. Returns false when the
// saque was not pendente anymore (or never existed).
func (d *Database) MarkSaquePago(ctx context.Context, saqueID, transactionRef, operatorID, notes string) (bool, error) {
	tag, err := d.db.Exec(ctx, MarkSaquePagoQuery, saqueID, transactionRef, operatorID, notes)
	if err != nil {
		return false, fmt.Errorf("failed to mark saque pago: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// MarkSaqueCancelado flips an eligible saque to cancelado. Returns false
// when the status guard rejected the transition.
func (d *Database) MarkSaqueCancelado(ctx context.Context, saqueID, operatorID, reason, notes string) (bool, error) {
	tag, err := d.db.Exec(ctx, MarkSaqueCanceladoQuery, saqueID, operatorID, reason, notes)
	if err != nil {
		return false, fmt.Errorf("failed to mark saque cancelado: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// SetSaqueTransactionRef records the payout reference issued by the
// gateway after the saque was already marked pago.
func (d *Database) SetSaqueTransactionRef(ctx context.Context, saqueID, transactionRef string) error {
	if _, err := d.db.Exec(ctx, SetSaqueTransactionRefQuery, saqueID, transactionRef); err != nil {
		return fmt.Errorf("failed to set saque transaction ref: %w", err)
	}
	return nil
}

// AppendSaqueObservacoes appends verification notes to a pago saque.
func (d *Database) AppendSaqueObservacoes(ctx context.Context, saqueID, notes string) (bool, error) {
	tag, err := d.db.Exec(ctx, AppendSaqueObservacoesQuery, saqueID, notes)
	if err != nil {
		return false, fmt.Errorf("failed to append saque observacoes: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
