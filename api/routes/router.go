package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bloodlink/bloodlink-backend/api/controllers"
	"github.com/bloodlink/bloodlink-backend/api/middleware"
	"github.com/bloodlink/bloodlink-backend/internal/admin"
	"github.com/bloodlink/bloodlink-backend/internal/auth"
	"github.com/bloodlink/bloodlink-backend/internal/chat"
	"github.com/bloodlink/bloodlink-backend/internal/donors"
	"github.com/bloodlink/bloodlink-backend/internal/geofence"
	"github.com/bloodlink/bloodlink-backend/internal/hospitals"
	"github.com/bloodlink/bloodlink-backend/internal/inventory"
	"github.com/bloodlink/bloodlink-backend/internal/pledges"
	"github.com/bloodlink/bloodlink-backend/internal/requests"
	"github.com/bloodlink/bloodlink-backend/pkg/auth/session"
	"github.com/bloodlink/bloodlink-backend/pkg/config"
	"github.com/bloodlink/bloodlink-backend/pkg/db"
	"github.com/bloodlink/bloodlink-backend/pkg/enums"
	"github.com/bloodlink/bloodlink-backend/pkg/logger"
	"github.com/bloodlink/bloodlink-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

// Services bundles everything the router exposes over HTTP.
type Services struct {
	Auth          auth.Service
	Register      auth.RegisterService
	AdminRegister auth.AdminRegisterService
	Requests      requests.Service
	Pledges       pledges.Service
	Donors        donors.Service
	Geofence      geofence.Service
	Hospitals     hospitals.Service
	Inventory     inventory.Service
	Chat          chat.Service
	Admin         admin.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	sessions sessionManager,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
		r.Post("/validate", controllers.PublicValidate(logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(svcs.Auth, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register/donor", controllers.RegisterDonor(svcs.Register, svcs.Auth, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register/hospital", controllers.RegisterHospital(svcs.Register, svcs.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(sessions, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(sessions, cfg.JWT, logg))
	})

	r.Route("/api/admin/v1/auth", func(r chi.Router) {
		if !cfg.App.IsProd() {
			r.Post("/register", controllers.AdminAuthRegister(svcs.AdminRegister, svcs.Auth, cfg, logg))
		}
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AdminAuthLogin(svcs.Auth, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		r.Get("/ping", controllers.PrivatePing())

		r.Route("/v1/requests", func(r chi.Router) {
			r.Get("/{requestId}", controllers.RequestDetail(svcs.Requests, logg))
			r.Get("/{requestId}/pledges", controllers.RequestPledges(svcs.Pledges, logg))
			r.Route("/{requestId}/chat", func(r chi.Router) {
				r.Get("/", controllers.ChatHistory(svcs.Chat, logg))
				r.Post("/", controllers.ChatPost(svcs.Chat, logg))
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(string(enums.RoleHospital), logg))
				r.Post("/", controllers.RequestCreate(svcs.Requests, logg))
				r.Get("/", controllers.RequestList(svcs.Requests, logg))
				r.Post("/{requestId}/accept", controllers.RequestAcceptDonor(svcs.Requests, logg))
				r.Patch("/{requestId}/status", controllers.RequestUpdateStatus(svcs.Requests, logg))
			})

			r.With(middleware.RequireRole(string(enums.RoleDonor), logg)).
				Post("/{requestId}/pledge", controllers.RequestPledge(svcs.Pledges, logg))
		})

		r.Get("/v1/inventory", controllers.InventorySearch(svcs.Inventory, logg))

		r.Route("/v1/donors", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.RoleDonor), logg))
			r.Get("/me", controllers.DonorProfile(svcs.Donors, logg))
			r.Put("/me", controllers.DonorUpdateProfile(svcs.Donors, logg))
			r.Put("/me/availability", controllers.DonorSetAvailability(svcs.Donors, logg))
			r.Put("/me/location", controllers.DonorUpdateLocation(svcs.Geofence, logg))
			r.Get("/me/requests", controllers.DonorMatchedRequests(svcs.Donors, logg))
			r.Get("/me/donations", controllers.DonorDonations(svcs.Donors, logg))
			r.Get("/me/certificates", controllers.DonorCertificates(svcs.Donors, logg))
		})

		r.Route("/v1/hospitals", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.RoleHospital), logg))
			r.Get("/me", controllers.HospitalProfile(svcs.Hospitals, logg))
			r.Put("/me", controllers.HospitalUpdateProfile(svcs.Hospitals, logg))
			r.Route("/me/inventory", func(r chi.Router) {
				r.Get("/", controllers.InventoryGet(svcs.Inventory, logg))
				r.Put("/", controllers.InventoryUpsertStock(svcs.Inventory, logg))
				r.Post("/", controllers.InventoryAddStock(svcs.Inventory, logg))
				r.Post("/lend", controllers.InventoryLend(svcs.Inventory, logg))
				r.Get("/lending", controllers.InventoryLendingHistory(svcs.Inventory, logg))
			})
		})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		r.Use(middleware.RequireRole(string(enums.RoleAdmin), logg))
		r.Get("/ping", controllers.AdminPing())
		r.Route("/v1", func(r chi.Router) {
			r.Get("/stats", controllers.AdminStats(svcs.Admin, logg))
			r.Get("/requests", controllers.AdminRequestList(svcs.Requests, logg))
			r.Patch("/requests/{requestId}/status", controllers.RequestUpdateStatus(svcs.Requests, logg))
			r.Get("/hospitals/pending", controllers.AdminPendingHospitals(svcs.Admin, logg))
			r.Post("/hospitals/{hospitalId}/verify", controllers.AdminVerifyHospital(svcs.Admin, logg))
			r.Post("/users/{userId}/active", controllers.AdminSetUserActive(svcs.Admin, logg))
		})
	})

	return r
}
