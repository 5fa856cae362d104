package router

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ratixpay/ratixpay-backend/internal/middlewares"
	"github.com/ratixpay/ratixpay-backend/internal/models"
	"github.com/ratixpay/ratixpay-backend/internal/services"
)

// Register creates a vendedor account. Admin accounts are provisioned
// out of band.
func Register(w http.ResponseWriter, r *http.Request) {
	data := middlewares.GetParsedJSONData[models.Credentials](w, r)
	authService := middlewares.GetServiceFromContext[models.AuthService](w, r, middlewares.AuthServiceKey)
	jwtService := middlewares.GetServiceFromContext[models.JWTService](w, r, middlewares.JwtServiceKey)

	if err := (*authService).Register(r.Context(), data, models.RoleVendedor); err != nil {
		var validationErr *services.ValidationError
		if errors.As(err, &validationErr) {
			http.Error(w, validationErr.Message, http.StatusBadRequest)
			return
		}

		if errors.Is(err, services.ErrUsuarioIsAlreadyRegistered) {
			http.Error(w, "Usuario is already registered", http.StatusConflict)
			return
		}

		http.Error(w, fmt.Sprintf("Error occurred during registration: %s", err.Error()), http.StatusInternalServerError)
		return
	}

	token, err := (*jwtService).GenerateJWT(*data.Login)

	if err != nil {
		http.Error(w, fmt.Sprintf("Error occurred during generating jwt token: %s", err.Error()), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Authorization", fmt.Sprintf("Bearer %s", token))
}

func Login(w http.ResponseWriter, r *http.Request) {
	data := middlewares.GetParsedJSONData[models.Credentials](w, r)
	authService := middlewares.GetServiceFromContext[models.AuthService](w, r, middlewares.AuthServiceKey)
	jwtService := middlewares.GetServiceFromContext[models.JWTService](w, r, middlewares.JwtServiceKey)

	if err := (*authService).Login(r.Context(), data); err != nil {
		var validationErr *services.ValidationError
		if errors.As(err, &validationErr) {
			http.Error(w, validationErr.Message, http.StatusBadRequest)
			return
		}

		if errors.Is(err, services.ErrUsuarioIsNotExist) {
			http.Error(w, fmt.Sprintf("Login %s is not exist", *data.Login), http.StatusUnauthorized)
			return
		}

		if errors.Is(err, services.ErrPasswordIsIncorrect) {
			http.Error(w, "Password is not correct", http.StatusUnauthorized)
			return
		}

		http.Error(w, fmt.Sprintf("Error occurred during login: %s", err.Error()), http.StatusInternalServerError)
		return
	}

	token, err := (*jwtService).GenerateJWT(*data.Login)

	if err != nil {
		http.Error(w, fmt.Sprintf("Error occurred during generating jwt token: %s", err.Error()), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Authorization", fmt.Sprintf("Bearer %s", token))
}
