package router

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ratixpay/ratixpay-backend/internal/middlewares"
	"github.com/ratixpay/ratixpay-backend/internal/models"
	"github.com/ratixpay/ratixpay-backend/internal/services"
)

func InitiatePayment(w http.ResponseWriter, r *http.Request) {
	data := middlewares.GetParsedJSONData[models.InitiatePaymentInput](w, r)
	paymentService := middlewares.GetServiceFromContext[models.PaymentService](w, r, middlewares.PaymentServiceKey)

	pending, err := (*paymentService).Initiate(r.Context(), data)

	if err != nil {
		var validationErr *services.ValidationError
		if errors.As(err, &validationErr) {
			http.Error(w, validationErr.Message, http.StatusBadRequest)
			return
		}

		if errors.Is(err, services.ErrPaymentAlreadyTracked) {
			http.Error(w, "Payment is already being tracked", http.StatusConflict)
			return
		}

		var gatewayErr *services.GatewayError
		if errors.As(err, &gatewayErr) {
			http.Error(w, fmt.Sprintf("Payment provider rejected the request: %s", gatewayErr.Error()), http.StatusBadGateway)
			return
		}

		http.Error(w, fmt.Sprintf("Error occurred during initiating payment: %s", err.Error()), http.StatusInternalServerError)
		return
	}

	middlewares.EncodeJSONResponse(w, http.StatusAccepted, pending)
}

func GetPaymentStatus(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "paymentID")
	paymentService := middlewares.GetServiceFromContext[models.PaymentService](w, r, middlewares.PaymentServiceKey)

	pending, err := (*paymentService).Status(paymentID)

	if err != nil {
		if errors.Is(err, services.ErrPaymentNotFound) {
			http.Error(w, fmt.Sprintf("Payment %s is not tracked", paymentID), http.StatusNotFound)
			return
		}

		http.Error(w, fmt.Sprintf("Error occurred during getting payment status: %s", err.Error()), http.StatusInternalServerError)
		return
	}

	middlewares.EncodeJSONResponse(w, http.StatusOK, pending)
}

func CancelPayment(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "paymentID")
	paymentService := middlewares.GetServiceFromContext[models.PaymentService](w, r, middlewares.PaymentServiceKey)

	if err := (*paymentService).Cancel(r.Context(), paymentID); err != nil {
		if errors.Is(err, services.ErrPaymentNotFound) {
			http.Error(w, fmt.Sprintf("Payment %s is not tracked", paymentID), http.StatusNotFound)
			return
		}

		http.Error(w, fmt.Sprintf("Error occurred during cancelling payment: %s", err.Error()), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ReceiveWebhook accepts a provider callback. Unknown payments are
// acknowledged with 200 so the provider stops retrying.
func ReceiveWebhook(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	data := middlewares.GetParsedJSONData[models.PaymentWebhook](w, r)
	paymentService := middlewares.GetServiceFromContext[models.PaymentService](w, r, middlewares.PaymentServiceKey)

	if err := (*paymentService).HandleWebhook(r.Context(), provider, data); err != nil {
		var validationErr *services.ValidationError
		if errors.As(err, &validationErr) {
			http.Error(w, validationErr.Message, http.StatusBadRequest)
			return
		}

		http.Error(w, fmt.Sprintf("Error occurred during handling webhook: %s", err.Error()), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}
