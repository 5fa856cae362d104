package models

import "github.com/ratixpay/ratixpay-backend/internal/utils"

// Balance is a vendor's derived aggregate: what is available now and
// what has already been withdrawn.
type Balance struct {
	Current   float64 `json:"current"`
	Withdrawn float64 `json:"withdrawn"`
}

// AdminBalance is the single platform-wide ledger row.
type AdminBalance struct {
	SaldoTotal           float64           `json:"saldo_total"`
	ComissaoPercentual   float64           `json:"comissao_percentual"`
	TotalVendasAprovadas int               `json:"total_vendas_aprovadas"`
	ValorTotalVendas     float64           `json:"valor_total_vendas"`
	TotalComissoes       float64           `json:"total_comissoes"`
	TotalSaquesPagos     float64           `json:"total_saques_pagos"`
	TaxasSaques          float64           `json:"taxas_saques"`
	UltimaAtualizacao    utils.RFC3339Date `json:"ultima_atualizacao"`
}
