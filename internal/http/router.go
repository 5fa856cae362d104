package router

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ratixpay/ratixpay-backend/internal/logger"
	"github.com/ratixpay/ratixpay-backend/internal/middlewares"
	"github.com/ratixpay/ratixpay-backend/internal/models"
)

type Config struct {
	Endpoint string
}

type Router struct {
	config         Config
	authService    models.AuthService
	jwtService     models.JWTService
	paymentService models.PaymentService
	saqueService   models.SaqueAdminService
	ledgerService  models.LedgerService
}

func New(
	config Config,
	authService models.AuthService,
	jwtService models.JWTService,
	paymentService models.PaymentService,
	saqueService models.SaqueAdminService,
	ledgerService models.LedgerService,
) *Router {
	return &Router{
		config,
		authService,
		jwtService,
		paymentService,
		saqueService,
		ledgerService,
	}
}

func (router *Router) get() chi.Router {
	r := chi.NewRouter()

	r.Use(
		middlewares.ServiceInjectorMiddleware(
			router.authService,
			router.jwtService,
			router.paymentService,
			router.saqueService,
			router.ledgerService,
		),
		logger.RequestLogger,
		// Checkout and provider callbacks are unauthenticated, the
		// buyer has no account.
		middlewares.AuthMiddleware().WithExcludedPaths(
			"/api/auth/register",
			"/api/auth/login",
			"/api/pagamentos",
			"/api/payment-status/webhook",
		).Middleware,
	)

	r.Route("/api/auth", func(r chi.Router) {
		r.With(middlewares.JSONMiddleware[models.Credentials]).Post("/register", Register)
		r.With(middlewares.JSONMiddleware[models.Credentials]).Post("/login", Login)
	})

	r.Route("/api/pagamentos", func(r chi.Router) {
		r.With(middlewares.JSONMiddleware[models.InitiatePaymentInput]).Post("/", InitiatePayment)
		r.Get("/{paymentID}/status", GetPaymentStatus)
		r.Delete("/{paymentID}", CancelPayment)
	})

	r.With(middlewares.JSONMiddleware[models.PaymentWebhook]).
		Post("/api/payment-status/webhook/{provider}", ReceiveWebhook)

	r.With(middlewares.JSONMiddleware[models.SaqueRequest]).Post("/api/saques", CreateSaque)
	r.Get("/api/saldo", GetVendorBalance)

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middlewares.RequireAdmin)

		r.Get("/saldo", GetAdminBalance)

		r.Route("/saques", func(r chi.Router) {
			r.Get("/pendentes", GetPendingSaques)
			r.Get("/processados", GetProcessedSaques)
			r.Get("/historico", GetSaqueHistory)
			r.Get("/{saqueID}", GetSaque)
			r.With(middlewares.JSONMiddleware[models.ApproveSaqueInput]).Put("/{saqueID}/aprovar", ApproveSaque)
			r.With(middlewares.JSONMiddleware[models.CancelSaqueInput]).Put("/{saqueID}/cancelar", CancelSaque)
			r.With(middlewares.JSONMiddleware[models.VerifySaqueInput]).Put("/{saqueID}/verificar", VerifySaque)
		})
	})

	return r
}

func (router *Router) Run() {
	log.Fatal(http.ListenAndServe(router.config.Endpoint, router.get()))
}
