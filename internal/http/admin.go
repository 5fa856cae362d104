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

func GetAdminBalance(w http.ResponseWriter, r *http.Request) {
	ledgerService := middlewares.GetServiceFromContext[models.LedgerService](w, r, middlewares.LedgerServiceKey)

	balance, err := (*ledgerService).AdminBalance(r.Context())

	if err != nil {
		http.Error(w, fmt.Sprintf("Error occurred during getting admin balance: %s", err.Error()), http.StatusInternalServerError)
		return
	}

	middlewares.EncodeJSONResponse(w, http.StatusOK, balance)
}

func GetPendingSaques(w http.ResponseWriter, r *http.Request) {
	saqueService := middlewares.GetServiceFromContext[models.SaqueAdminService](w, r, middlewares.SaqueServiceKey)

	saques, err := (*saqueService).PendingSaques(r.Context())

	if err != nil {
		http.Error(w, fmt.Sprintf("Error occurred during getting pending saques: %s", err.Error()), http.StatusInternalServerError)
		return
	}

	middlewares.EncodeJSONResponse(w, http.StatusOK, saques)
}

func GetProcessedSaques(w http.ResponseWriter, r *http.Request) {
	saqueService := middlewares.GetServiceFromContext[models.SaqueAdminService](w, r, middlewares.SaqueServiceKey)

	saques, err := (*saqueService).ProcessedSaques(r.Context())

	if err != nil {
		http.Error(w, fmt.Sprintf("Error occurred during getting processed saques: %s", err.Error()), http.StatusInternalServerError)
		return
	}

	middlewares.EncodeJSONResponse(w, http.StatusOK, saques)
}

func GetSaqueHistory(w http.ResponseWriter, r *http.Request) {
	saqueService := middlewares.GetServiceFromContext[models.SaqueAdminService](w, r, middlewares.SaqueServiceKey)

	history, err := (*saqueService).History(r.Context())

	if err != nil {
		http.Error(w, fmt.Sprintf("Error occurred during getting saque history: %s", err.Error()), http.StatusInternalServerError)
		return
	}

	middlewares.EncodeJSONResponse(w, http.StatusOK, history)
}

func GetSaque(w http.ResponseWriter, r *http.Request) {
	saqueID := chi.URLParam(r, "saqueID")
	saqueService := middlewares.GetServiceFromContext[models.SaqueAdminService](w, r, middlewares.SaqueServiceKey)

	saque, err := (*saqueService).GetSaque(r.Context(), saqueID)

	if err != nil {
		if errors.Is(err, services.ErrSaqueNotFound) {
			http.Error(w, fmt.Sprintf("Saque %s doesn't exist", saqueID), http.StatusNotFound)
			return
		}

		http.Error(w, fmt.Sprintf("Error occurred during getting saque: %s", err.Error()), http.StatusInternalServerError)
		return
	}

	middlewares.EncodeJSONResponse(w, http.StatusOK, saque)
}

func ApproveSaque(w http.ResponseWriter, r *http.Request) {
	saqueID := chi.URLParam(r, "saqueID")
	data := middlewares.GetParsedJSONData[models.ApproveSaqueInput](w, r)
	saqueService := middlewares.GetServiceFromContext[models.SaqueAdminService](w, r, middlewares.SaqueServiceKey)
	usuario := middlewares.GetUsuarioFromContext(w, r)

	if usuario == nil {
		return
	}

	receipt, err := (*saqueService).Approve(r.Context(), saqueID, usuario.ID, data.IDTransacaoPagamento, data.Observacoes)

	if err != nil {
		if writeSaqueError(w, saqueID, err) {
			return
		}

		var gatewayErr *services.GatewayError
		if errors.As(err, &gatewayErr) {
			http.Error(w, fmt.Sprintf("Saque was approved but the payout failed: %s", gatewayErr.Error()), http.StatusBadGateway)
			return
		}

		http.Error(w, fmt.Sprintf("Error occurred during approving saque: %s", err.Error()), http.StatusInternalServerError)
		return
	}

	middlewares.EncodeJSONResponse(w, http.StatusOK, receipt)
}

func CancelSaque(w http.ResponseWriter, r *http.Request) {
	saqueID := chi.URLParam(r, "saqueID")
	data := middlewares.GetParsedJSONData[models.CancelSaqueInput](w, r)
	saqueService := middlewares.GetServiceFromContext[models.SaqueAdminService](w, r, middlewares.SaqueServiceKey)
	usuario := middlewares.GetUsuarioFromContext(w, r)

	if usuario == nil {
		return
	}

	if err := (*saqueService).Cancel(r.Context(), saqueID, usuario.ID, data.Motivo); err != nil {
		if writeSaqueError(w, saqueID, err) {
			return
		}

		http.Error(w, fmt.Sprintf("Error occurred during cancelling saque: %s", err.Error()), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func VerifySaque(w http.ResponseWriter, r *http.Request) {
	saqueID := chi.URLParam(r, "saqueID")
	data := middlewares.GetParsedJSONData[models.VerifySaqueInput](w, r)
	saqueService := middlewares.GetServiceFromContext[models.SaqueAdminService](w, r, middlewares.SaqueServiceKey)
	usuario := middlewares.GetUsuarioFromContext(w, r)

	if usuario == nil {
		return
	}

	if err := (*saqueService).Verify(r.Context(), saqueID, usuario.ID, data.Notas); err != nil {
		if writeSaqueError(w, saqueID, err) {
			return
		}

		http.Error(w, fmt.Sprintf("Error occurred during verifying saque: %s", err.Error()), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// writeSaqueError handles the error cases shared by the admin saque
// actions. It reports whether the error was written.
func writeSaqueError(w http.ResponseWriter, saqueID string, err error) bool {
	if errors.Is(err, services.ErrSaqueNotFound) {
		http.Error(w, fmt.Sprintf("Saque %s doesn't exist", saqueID), http.StatusNotFound)
		return true
	}

	var stateErr *services.InvalidStateError
	if errors.As(err, &stateErr) {
		http.Error(w, stateErr.Rule, http.StatusBadRequest)
		return true
	}

	return false
}
