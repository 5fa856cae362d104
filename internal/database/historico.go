package database

import (
	"context"
	"fmt"
	"time"

	"github.com/ratixpay/ratixpay-backend/internal/models"
)

const (
	// InsertHistoricoQuery mirrors a fresh saque into the audit table.
	InsertHistoricoQuery = `
		INSERT INTO
			historico_saques
			(saque_id, vendedor_id, valor_solicitado, valor_liquido, taxa, metodo_pagamento, status, data_solicitacao)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (saque_id) DO NOTHING
	`
	UpdateHistoricoStatusQuery = `
		UPDATE
			historico_saques
		SET
			status = $2,
			valor_liquido = $3,
			taxa = $4,
			processado_por = $5,
			codigo_transacao = $6,
			data_pagamento = CASE WHEN $2 = 'pago' THEN now() ELSE data_pagamento END,
			data_cancelamento = CASE WHEN $2 = 'cancelado' THEN now() ELSE data_cancelamento END,
			updated_at = now()
		WHERE
		    saque_id = $1
	`
	SelectHistoricoQuery = `
		SELECT
			id,
			saque_id,
			vendedor_id,
			valor_solicitado,
			valor_liquido,
			taxa,
			metodo_pagamento,
			status,
			coalesce(processado_por::text, ''),
			codigo_transacao,
			data_solicitacao,
			data_pagamento
		FROM
		    historico_saques
		ORDER BY
		    data_solicitacao DESC
	`
)

// HistoricoSaqueDB is one audit mirror row.
type HistoricoSaqueDB struct {
	ID              string
	SaqueID         string
	VendedorID      string
	ValorSolicitado float64
	ValorLiquido    float64
	Taxa            float64
	MetodoPagamento PaymentMethodDB
	Status          SaqueStatusDB
	ProcessadoPor   string
	CodigoTransacao string
	DataSolicitacao time.Time
	DataPagamento   *time.Time
}

// CreateHistoricoSaque mirrors a saque into the audit table. Replayed
// inserts are absorbed by the saque_id conflict clause.
func (d *Database) CreateHistoricoSaque(ctx context.Context, h HistoricoSaqueDB) error {
	_, err := d.db.Exec(ctx, InsertHistoricoQuery,
		h.SaqueID, h.VendedorID, h.ValorSolicitado, h.ValorLiquido, h.Taxa,
		h.MetodoPagamento, h.Status, h.DataSolicitacao)
	if err != nil {
		return fmt.Errorf("failed to create historico saque: %w", err)
	}
	return nil
}

// UpdateHistoricoStatus mirrors a saque transition into the audit table.
func (d *Database) UpdateHistoricoStatus(ctx context.Context, saqueID string, status models.SaqueStatus, valorLiquido, taxa float64, operatorID, transactionRef string) error {
	var operator *string
	if operatorID != "" {
		operator = &operatorID
	}

	_, err := d.db.Exec(ctx, UpdateHistoricoStatusQuery,
		saqueID, SaqueStatusDB{status}, valorLiquido, taxa, operator, transactionRef)
	if err != nil {
		return fmt.Errorf("failed to update historico saque: %w", err)
	}
	return nil
}

// FindHistoricoSaques returns the audit trail, newest first.
func (d *Database) FindHistoricoSaques(ctx context.Context) ([]HistoricoSaqueDB, error) {
	var result []HistoricoSaqueDB

	rows, err := d.db.Query(ctx, SelectHistoricoQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to find historico saques: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item HistoricoSaqueDB
		if err := rows.Scan(&item.ID, &item.SaqueID, &item.VendedorID, &item.ValorSolicitado,
			&item.ValorLiquido, &item.Taxa, &item.MetodoPagamento, &item.Status,
			&item.ProcessadoPor, &item.CodigoTransacao, &item.DataSolicitacao, &item.DataPagamento); err != nil {
			return nil, fmt.Errorf("failed to scan historico row: %w", err)
		}
		result = append(result, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate historico rows: %w", err)
	}

	return result, nil
}
