package router

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ratixpay/ratixpay-backend/internal/middlewares"
	"github.com/ratixpay/ratixpay-backend/internal/models"
	"github.com/ratixpay/ratixpay-backend/internal/services"
)

// CreateSaque files a withdrawal request for the authenticated vendor.
func CreateSaque(w http.ResponseWriter, r *http.Request) {
	data := middlewares.GetParsedJSONData[models.SaqueRequest](w, r)
	saqueService := middlewares.GetServiceFromContext[models.SaqueAdminService](w, r, middlewares.SaqueServiceKey)
	usuario := middlewares.GetUsuarioFromContext(w, r)

	if usuario == nil {
		return
	}

	data.VendedorID = usuario.ID

	view, err := (*saqueService).Request(r.Context(), data)

	if err != nil {
		var validationErr *services.ValidationError
		if errors.As(err, &validationErr) {
			http.Error(w, validationErr.Message, http.StatusBadRequest)
			return
		}

		if errors.Is(err, services.ErrInsufficientBalance) {
			http.Error(w, "Balance is not enough for the withdrawal", http.StatusPaymentRequired)
			return
		}

		http.Error(w, fmt.Sprintf("Error occurred during creating saque: %s", err.Error()), http.StatusInternalServerError)
		return
	}

	middlewares.EncodeJSONResponse(w, http.StatusCreated, view)
}

// GetVendorBalance returns the authenticated vendor's balance.
func GetVendorBalance(w http.ResponseWriter, r *http.Request) {
	ledgerService := middlewares.GetServiceFromContext[models.LedgerService](w, r, middlewares.LedgerServiceKey)
	usuario := middlewares.GetUsuarioFromContext(w, r)

	if usuario == nil {
		return
	}

	balance, err := (*ledgerService).VendorBalance(r.Context(), usuario.ID)

	if err != nil {
		http.Error(w, fmt.Sprintf("Error occurred during getting balance: %s", err.Error()), http.StatusInternalServerError)
		return
	}

	middlewares.EncodeJSONResponse(w, http.StatusOK, balance)
}
