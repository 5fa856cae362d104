package models

import "github.com/ratixpay/ratixpay-backend/internal/utils"

type SaqueStatus string

const (
	SaquePendente  SaqueStatus = "pendente"
	SaqueAprovado  SaqueStatus = "aprovado"
	SaquePago      SaqueStatus = "pago"
	SaqueCancelado SaqueStatus = "cancelado"
)

// Terminal reports whether a saque can never change status again.
func (s SaqueStatus) Terminal() bool {
	return s == SaquePago || s == SaqueCancelado
}

type VendedorInfo struct {
	ID       string `json:"id"`
	Nome     string `json:"nome"`
	Email    string `json:"email"`
	Telefone string `json:"telefone"`
}

// SaqueView is the admin-facing representation of a withdrawal request,
// fee split included.
type SaqueView struct {
	ID              string             `json:"id"`
	PublicID        string             `json:"publicId"`
	Valor           float64            `json:"valor"`
	ValorLiquido    float64            `json:"valorLiquido"`
	Taxa            float64            `json:"taxa"`
	Status          SaqueStatus        `json:"status"`
	Metodo          PaymentMethod      `json:"metodo"`
	ContaDestino    string             `json:"contaDestino"`
	TelefoneTitular string             `json:"telefoneTitular"`
	Banco           string             `json:"banco,omitempty"`
	Observacoes     string             `json:"observacoes,omitempty"`
	DataSolicitacao utils.RFC3339Date  `json:"dataSolicitacao"`
	DataPagamento   *utils.RFC3339Date `json:"dataPagamento,omitempty"`
	Vendedor        *VendedorInfo      `json:"vendedor,omitempty"`
}

// SaqueReceipt is returned by a successful approval.
type SaqueReceipt struct {
	ID             string            `json:"id"`
	Status         SaqueStatus       `json:"status"`
	Valor          float64           `json:"valor"`
	TaxaAdmin      float64           `json:"taxaAdmin"`
	ValorLiquido   float64           `json:"valorLiquido"`
	TransactionRef string            `json:"transactionRef"`
	DataPagamento  utils.RFC3339Date `json:"dataPagamento"`
}

type SaqueRequest struct {
	VendedorID      string
	Valor           *float64 `json:"valor"`
	Metodo          *string  `json:"metodo"`
	ContaDestino    *string  `json:"contaDestino"`
	TelefoneTitular *string  `json:"telefoneTitular"`
	Banco           string   `json:"banco"`
}

// ApproveSaqueInput is the admin's approval payload. An empty
// transaction id asks the gateway to execute the payout.
type ApproveSaqueInput struct {
	IDTransacaoPagamento string `json:"idTransacaoPagamento"`
	Observacoes          string `json:"observacoes"`
}

type CancelSaqueInput struct {
	Motivo string `json:"motivo"`
}

type VerifySaqueInput struct {
	Notas string `json:"notas"`
}

// SaqueHistoryItem mirrors one audit row from historico_saques.
type SaqueHistoryItem struct {
	ID              string             `json:"id"`
	SaqueID         string             `json:"saqueId"`
	Valor           float64            `json:"valor"`
	ValorLiquido    float64            `json:"valorLiquido"`
	Taxa            float64            `json:"taxa"`
	Status          SaqueStatus        `json:"status"`
	Metodo          PaymentMethod      `json:"metodo"`
	ProcessadoPor   string             `json:"processadoPor,omitempty"`
	CodigoTransacao string             `json:"codigoTransacao,omitempty"`
	DataSolicitacao utils.RFC3339Date  `json:"dataSolicitacao"`
	DataPagamento   *utils.RFC3339Date `json:"dataPagamento,omitempty"`
	VendedorNome    string             `json:"vendedorNome,omitempty"`
}
