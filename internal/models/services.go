package models

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

//go:generate mockgen -destination=mocks/mock_auth.go . AuthService
type AuthService interface {
	Register(ctx context.Context, cred Credentials, role Role) error

	Login(ctx context.Context, cred Credentials) error

	GetUsuario(ctx context.Context, login string) (*Usuario, error)
}

//go:generate mockgen -destination=mocks/mock_jwt.go . JWTService
type JWTService interface {
	GenerateJWT(subject string) (string, error)

	ValidateToken(token string) (*jwt.Token, error)
}

//go:generate mockgen -destination=mocks/mock_payment.go . PaymentService
type PaymentService interface {
	Initiate(ctx context.Context, input InitiatePaymentInput) (*PendingPayment, error)

	Status(id string) (*PendingPayment, error)

	Cancel(ctx context.Context, id string) error

	HandleWebhook(ctx context.Context, provider string, webhook PaymentWebhook) error
}

//go:generate mockgen -destination=mocks/mock_saque.go . SaqueAdminService
type SaqueAdminService interface {
	Request(ctx context.Context, req SaqueRequest) (*SaqueView, error)

	PendingSaques(ctx context.Context) ([]SaqueView, error)

	ProcessedSaques(ctx context.Context) ([]SaqueView, error)

	History(ctx context.Context) ([]SaqueHistoryItem, error)

	GetSaque(ctx context.Context, saqueID string) (*SaqueView, error)

	Approve(ctx context.Context, saqueID, operatorID, transactionRef, notes string) (*SaqueReceipt, error)

	Cancel(ctx context.Context, saqueID, operatorID, reason string) error

	Verify(ctx context.Context, saqueID, operatorID, notes string) error
}

//go:generate mockgen -destination=mocks/mock_ledger.go . LedgerService
type LedgerService interface {
	AdminBalance(ctx context.Context) (*AdminBalance, error)

	VendorBalance(ctx context.Context, vendedorID string) (Balance, error)
}
