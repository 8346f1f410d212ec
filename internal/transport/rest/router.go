package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/jvaldiviezo/contasys/internal"
	"github.com/jvaldiviezo/contasys/internal/alert"
	"github.com/jvaldiviezo/contasys/internal/auth"
	"github.com/jvaldiviezo/contasys/internal/bitacora"
	"github.com/jvaldiviezo/contasys/internal/client"
	"github.com/jvaldiviezo/contasys/internal/declaration"
	"github.com/jvaldiviezo/contasys/internal/nrus"
	"github.com/jvaldiviezo/contasys/internal/obligation"
	"github.com/jvaldiviezo/contasys/internal/payment"
	"github.com/jvaldiviezo/contasys/internal/transport/middleware"
	"github.com/jvaldiviezo/contasys/internal/transport/swagger"
	"github.com/jvaldiviezo/contasys/internal/user"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth        *auth.Handler
	Obligation  *obligation.Handler
	Payment     *payment.Handler
	Alert       *alert.Handler
	Bitacora    *bitacora.Handler
	Declaration *declaration.Handler
	Client      *client.Handler
	NRUS        *nrus.Handler
	User        *user.Handler
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, h Handlers, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS)
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", h.Auth.Login)
			sr.Post("/refresh", h.Auth.RefreshToken)
			sr.Post("/logout", h.Auth.Logout)
		})

		// Everything below needs a valid session.
		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			contadorOnly := h.Auth.RequireRole(internal.RoleContador, internal.RoleAdmin)

			pr.Get("/users/me", h.User.GetCurrentUser)

			pr.Route("/obligations", func(or chi.Router) {
				or.Get("/", h.Obligation.ListObligations)
				or.Get("/{id}", h.Obligation.GetObligation)

				or.Group(func(mr chi.Router) {
					mr.Use(contadorOnly)
					mr.Post("/", h.Obligation.CreateObligation)
				})

				or.Group(func(ar chi.Router) {
					ar.Use(h.Auth.RequireRole(internal.RoleAdmin))
					ar.Post("/sweep", h.Obligation.SweepObligations)
				})
			})

			pr.Route("/payments", func(pmr chi.Router) {
				pmr.Post("/", h.Payment.SubmitPayment)
				pmr.Get("/", h.Payment.ListPayments)
				pmr.Get("/{id}", h.Payment.GetPayment)

				// Only accountants settle the review.
				pmr.Group(func(mr chi.Router) {
					mr.Use(contadorOnly)
					mr.Patch("/{id}/validate", h.Payment.ValidatePayment)
					mr.Patch("/{id}/reject", h.Payment.RejectPayment)
				})
			})

			pr.Route("/alerts", func(ar chi.Router) {
				ar.Use(contadorOnly)
				ar.Get("/", h.Alert.ListAlerts)
				ar.Get("/metrics", h.Alert.GetMetrics)
				ar.Patch("/{id}/seen", h.Alert.MarkSeen)
				ar.Patch("/{id}/resolve", h.Alert.ResolveAlert)
			})

			pr.Route("/declarations", func(dr chi.Router) {
				dr.Get("/", h.Declaration.ListDeclarations)
				dr.Get("/{id}", h.Declaration.GetDeclaration)

				dr.Group(func(mr chi.Router) {
					mr.Use(contadorOnly)
					mr.Post("/", h.Declaration.CreateDeclaration)
					mr.Patch("/{id}/in-progress", h.Declaration.MarkInProgress)
					mr.Patch("/{id}/declare", h.Declaration.Declare)
				})
			})

			pr.Route("/clients", func(cr chi.Router) {
				cr.Use(contadorOnly)
				cr.Post("/", h.Client.RegisterClient)
				cr.Get("/", h.Client.ListClients)
				cr.Get("/{id}", h.Client.GetClient)
				cr.Patch("/{id}/accountant", h.Client.AssignAccountant)
			})

			pr.Get("/nrus/classify", h.NRUS.Classify)

			pr.Group(func(br chi.Router) {
				br.Use(h.Auth.RequireRole(internal.RoleAdmin, internal.RoleContador))
				br.Get("/bitacora", h.Bitacora.QueryEntries)
			})
		})
	})
}
