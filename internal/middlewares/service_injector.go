package middlewares

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ratixpay/ratixpay-backend/internal/models"
)

type key int

const (
	AuthServiceKey key = iota
	JwtServiceKey
	PaymentServiceKey
	SaqueServiceKey
	LedgerServiceKey
)

func ServiceInjectorMiddleware(
	authService models.AuthService,
	jwtService models.JWTService,
	paymentService models.PaymentService,
	saqueService models.SaqueAdminService,
	ledgerService models.LedgerService,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), AuthServiceKey, authService)
			ctx = context.WithValue(ctx, JwtServiceKey, jwtService)
			ctx = context.WithValue(ctx, PaymentServiceKey, paymentService)
			ctx = context.WithValue(ctx, SaqueServiceKey, saqueService)
			ctx = context.WithValue(ctx, LedgerServiceKey, ledgerService)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetServiceFromContext[Service interface{}](w http.ResponseWriter, r *http.Request, serviceKey key) *Service {
	foundService, ok := r.Context().Value(serviceKey).(Service)

	if !ok {
		http.Error(w, fmt.Sprintf("Service wasn't found in context by key %v", serviceKey), http.StatusInternalServerError)
		return nil
	}

	return &foundService
}
