package models

import "time"

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentSuccess    PaymentStatus = "success"
	PaymentFailed     PaymentStatus = "failed"
	PaymentCancelled  PaymentStatus = "cancelled"
	PaymentTimeout    PaymentStatus = "timeout"
	PaymentError      PaymentStatus = "error"
	PaymentMaxRetries PaymentStatus = "max_retries"
)

// Terminal reports whether no further transition is possible.
func (s PaymentStatus) Terminal() bool {
	return s != PaymentPending
}

type PaymentMethod string

const (
	MethodMpesa PaymentMethod = "mpesa"
	MethodEmola PaymentMethod = "emola"
)

// PaymentPayload is the opaque domain data attached to a tracked payment.
// The tracker passes it through to event listeners without interpreting it.
type PaymentPayload struct {
	VendaID    string        `json:"venda_id"`
	VendedorID string        `json:"vendedor_id"`
	Valor      float64       `json:"valor"`
	Metodo     PaymentMethod `json:"metodo"`
	Telefone   string        `json:"telefone"`
}

// PendingPayment is one in-flight payment owned by the tracker.
type PendingPayment struct {
	ID            string         `json:"id"`
	Payload       PaymentPayload `json:"payload"`
	Status        PaymentStatus  `json:"status"`
	Attempts      int            `json:"attempts"`
	CreatedAt     time.Time      `json:"created_at"`
	LastCheckedAt time.Time      `json:"last_checked_at"`
	TimeoutAt     time.Time      `json:"timeout_at"`
}

// GatewayStatus is a definitive or in-progress status reported by a
// payment provider. A nil *GatewayStatus means the provider had nothing
// conclusive to say.
type GatewayStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// GatewayResponse is the provider's answer to a C2B/B2C submission.
type GatewayResponse struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	Message       string `json:"message"`
}

type InitiatePaymentInput struct {
	VendaID    *string  `json:"venda_id"`
	VendedorID *string  `json:"vendedor_id"`
	Valor      *float64 `json:"valor"`
	Metodo     *string  `json:"metodo"`
	Telefone   *string  `json:"telefone"`
}

// PaymentWebhook is the body of a provider callback. Providers are not
// consistent about the id field name, so both are accepted.
type PaymentWebhook struct {
	PaymentID     *string `json:"paymentId"`
	TransactionID *string `json:"transaction_id"`
	Status        *string `json:"status"`
	Message       string  `json:"message"`
}

// Reference returns whichever payment id field the provider filled in.
func (w PaymentWebhook) Reference() string {
	if w.PaymentID != nil && *w.PaymentID != "" {
		return *w.PaymentID
	}
	if w.TransactionID != nil {
		return *w.TransactionID
	}
	return ""
}

// TrackerStats is a snapshot of the in-memory registry.
type TrackerStats struct {
	Total           int     `json:"total"`
	TotalAttempts   int     `json:"total_attempts"`
	AverageAttempts float64 `json:"average_attempts"`
}
