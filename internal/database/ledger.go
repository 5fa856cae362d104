package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrDuplicateMovimento = errors.New("movimento already recorded")
	ErrInsufficientSaldo  = errors.New("saldo insuficiente")
)

// Ledger updates are expressed as atomic in-place arithmetic, never as
// read-modify-write in application code.
const (
	InitSaldoAdminQuery = `
		INSERT INTO
			saldo_admin (id)
		VALUES (1)
		ON CONFLICT (id) DO NOTHING
	`
	CreditAdminTaxaSaqueQuery = `
		UPDATE
			saldo_admin
		SET
			saldo_total = saldo_total + $1,
			taxas_saques = taxas_saques + $1,
			total_saques_pagos = total_saques_pagos + $2,
			ultima_atualizacao = now()
		WHERE
		    id = 1
	`
	CreditAdminComissaoQuery = `
		UPDATE
			saldo_admin
		SET
			saldo_total = saldo_total + $1,
			total_comissoes = total_comissoes + $1,
			total_vendas_aprovadas = total_vendas_aprovadas + 1,
			valor_total_vendas = valor_total_vendas + $2,
			ultima_atualizacao = now()
		WHERE
		    id = 1
	`
	SelectSaldoAdminQuery = `
		SELECT
			saldo_total,
			comissao_percentual,
			total_vendas_aprovadas,
			valor_total_vendas,
			total_comissoes,
			total_saques_pagos,
			taxas_saques,
			ultima_atualizacao
		FROM
		    saldo_admin
		WHERE
		    id = 1
	`
	InsertMovimentoQuery = `
		INSERT INTO
			movimentos_saldo (vendedor_id, tipo, origem, referencia_id, valor, descricao)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	CreditSaldoVendedorQuery = `
		INSERT INTO
			saldo_vendedor (vendedor_id, saldo_atual, receita_total)
		VALUES ($1, $2, $2)
		ON CONFLICT (vendedor_id) DO UPDATE
		SET
			saldo_atual = saldo_vendedor.saldo_atual + EXCLUDED.saldo_atual,
			receita_total = saldo_vendedor.receita_total + EXCLUDED.receita_total,
			ultima_atualizacao = now()
	`
	// Overdraft guarded by the WHERE clause, not by a prior read.
	DebitSaldoVendedorQuery = `
		UPDATE
			saldo_vendedor
		SET
			saldo_atual = saldo_atual - $2,
			total_sacado = total_sacado + $2,
			ultima_atualizacao = now()
		WHERE
		    vendedor_id = $1
			AND saldo_atual >= $2
	`
	SumMovimentosQuery = `
		SELECT
			coalesce(SUM(valor), 0)
		FROM
		    movimentos_saldo
		WHERE
		    vendedor_id = $1
			AND tipo = $2
	`
	UpdateSaldoVendedorAggregatesQuery = `
		INSERT INTO
			saldo_vendedor (vendedor_id, saldo_atual, receita_total, total_sacado)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (vendedor_id) DO UPDATE
		SET
			saldo_atual = EXCLUDED.saldo_atual,
			receita_total = EXCLUDED.receita_total,
			total_sacado = EXCLUDED.total_sacado,
			ultima_atualizacao = now()
	`
	SelectSaldoVendedorQuery = `
		SELECT
			saldo_atual,
			receita_total,
			total_sacado,
			ultima_atualizacao
		FROM
		    saldo_vendedor
		WHERE
		    vendedor_id = $1
	`
)

type SaldoAdminDB struct {
	SaldoTotal           float64
	ComissaoPercentual   float64
	TotalVendasAprovadas int
	ValorTotalVendas     float64
	TotalComissoes       float64
	TotalSaquesPagos     float64
	TaxasSaques          float64
	UltimaAtualizacao    time.Time
}

type SaldoVendedorDB struct {
	SaldoAtual        float64
	ReceitaTotal      float64
	TotalSacado       float64
	UltimaAtualizacao time.Time
}

type MovimentoDB struct {
	VendedorID   string
	Tipo         string
	Origem       string
	ReferenciaID string
	Valor        float64
	Descricao    string
}

// FindSaldoAdmin returns the admin ledger row, creating it on first use.
func (d *Database) FindSaldoAdmin(ctx context.Context) (*SaldoAdminDB, error) {
	if _, err := d.db.Exec(ctx, InitSaldoAdminQuery); err != nil {
		return nil, fmt.Errorf("failed to init saldo admin: %w", err)
	}

	saldo := &SaldoAdminDB{}

	err := d.db.QueryRow(ctx, SelectSaldoAdminQuery).
		Scan(&saldo.SaldoTotal, &saldo.ComissaoPercentual, &saldo.TotalVendasAprovadas,
			&saldo.ValorTotalVendas, &saldo.TotalComissoes, &saldo.TotalSaquesPagos,
			&saldo.TaxasSaques, &saldo.UltimaAtualizacao)
	if err != nil {
		return nil, fmt.Errorf("failed to find saldo admin: %w", err)
	}

	return saldo, nil
}

// CreditAdminTaxaSaque adds a withdrawal fee to the admin ledger and
// counts the gross amount as a paid saque.
func (d *Database) CreditAdminTaxaSaque(ctx context.Context, fee, gross float64) error {
	if _, err := d.db.Exec(ctx, InitSaldoAdminQuery); err != nil {
		return fmt.Errorf("failed to init saldo admin: %w", err)
	}
	if _, err := d.db.Exec(ctx, CreditAdminTaxaSaqueQuery, fee, gross); err != nil {
		return fmt.Errorf("failed to credit taxa de saque: %w", err)
	}
	return nil
}

// CreditAdminComissao adds a sale commission to the admin ledger.
func (d *Database) CreditAdminComissao(ctx context.Context, commission, saleValue float64) error {
	if _, err := d.db.Exec(ctx, InitSaldoAdminQuery); err != nil {
		return fmt.Errorf("failed to init saldo admin: %w", err)
	}
	if _, err := d.db.Exec(ctx, CreditAdminComissaoQuery, commission, saleValue); err != nil {
		return fmt.Errorf("failed to credit comissao: %w", err)
	}
	return nil
}

// CreateMovimento appends one balance movement. The unique key on
// (vendedor, origem, referencia) makes credits and debits idempotent per
// source row.
func (d *Database) CreateMovimento(ctx context.Context, m MovimentoDB) error {
	_, err := d.db.Exec(ctx, InsertMovimentoQuery,
		m.VendedorID, m.Tipo, m.Origem, m.ReferenciaID, m.Valor, m.Descricao)
	if err != nil {
		var e *pgconn.PgError
		if errors.As(err, &e) && e.Code == pgerrcode.UniqueViolation {
			return ErrDuplicateMovimento
		}
		return fmt.Errorf("failed to create movimento: %w", err)
	}
	return nil
}

// CreditSaldoVendedor adds to a vendor's available balance, creating the
// row on first credit.
func (d *Database) CreditSaldoVendedor(ctx context.Context, vendedorID string, amount float64) error {
	if _, err := d.db.Exec(ctx, CreditSaldoVendedorQuery, vendedorID, amount); err != nil {
		return fmt.Errorf("failed to credit saldo vendedor: %w", err)
	}
	return nil
}

// DebitSaldoVendedor subtracts from a vendor's available balance.
// Returns ErrInsufficientSaldo when the conditional update matched no
// row.
func (d *Database) DebitSaldoVendedor(ctx context.Context, vendedorID string, amount float64) error {
	tag, err := d.db.Exec(ctx, DebitSaldoVendedorQuery, vendedorID, amount)
	if err != nil {
		return fmt.Errorf("failed to debit saldo vendedor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInsufficientSaldo
	}
	return nil
}

// SumMovimentos totals one side of a vendor's movement history.
func (d *Database) SumMovimentos(ctx context.Context, vendedorID, tipo string) (float64, error) {
	var sum float64

	err := d.db.QueryRow(ctx, SumMovimentosQuery, vendedorID, tipo).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("failed to sum movimentos: %w", err)
	}

	return sum, nil
}

// UpdateSaldoVendedorAggregates overwrites the vendor row from recomputed
// source-of-truth sums.
func (d *Database) UpdateSaldoVendedorAggregates(ctx context.Context, vendedorID string, saldoAtual, receitaTotal, totalSacado float64) error {
	_, err := d.db.Exec(ctx, UpdateSaldoVendedorAggregatesQuery, vendedorID, saldoAtual, receitaTotal, totalSacado)
	if err != nil {
		return fmt.Errorf("failed to update saldo vendedor aggregates: %w", err)
	}
	return nil
}

// FindSaldoVendedor returns the vendor row. Absence is (nil, nil) so a
// vendor with no history reads as a zero balance.
func (d *Database) FindSaldoVendedor(ctx context.Context, vendedorID string) (*SaldoVendedorDB, error) {
	saldo := &SaldoVendedorDB{}

	err := d.db.QueryRow(ctx, SelectSaldoVendedorQuery, vendedorID).
		Scan(&saldo.SaldoAtual, &saldo.ReceitaTotal, &saldo.TotalSacado, &saldo.UltimaAtualizacao)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find saldo vendedor: %w", err)
	}

	return saldo, nil
}
