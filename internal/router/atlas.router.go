package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/PerfZero/smsatlra/internal/handler"
	"github.com/PerfZero/smsatlra/internal/middleware"
	"github.com/PerfZero/smsatlra/pkg/response"
)

type Handlers struct {
	Auth         *handler.AuthHandler
	Balance      *handler.BalanceHandler
	Goal         *handler.GoalHandler
	Verification *handler.VerificationHandler
	Package      *handler.PackageHandler
	Admin        *handler.AdminHandler
	Monitor      *handler.MonitorHandler
	WS           *handler.WSHandler
}

func New(h Handlers, authMW *middleware.AuthMiddleware) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Auth.Register)
			r.Post("/login", h.Auth.Login)
			r.Group(func(r chi.Router) {
				r.Use(authMW.Middleware)
				r.Get("/me", h.Auth.Me)
			})
		})

		r.Route("/verification", func(r chi.Router) {
			r.Post("/send-code", h.Verification.SendCode)
			r.Post("/verify-code", h.Verification.VerifyCode)
		})

		r.Route("/packages", func(r chi.Router) {
			r.Get("/", h.Package.List)
			r.Get("/{id}", h.Package.Get)
			r.Group(func(r chi.Router) {
				r.Use(authMW.Middleware, authMW.RequireAdmin)
				r.Post("/", h.Package.Create)
				r.Put("/{id}", h.Package.Update)
				r.Delete("/{id}", h.Package.Delete)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(authMW.Middleware)

			r.Route("/balance", func(r chi.Router) {
				r.Get("/", h.Balance.GetBalance)
				r.Post("/deposit", h.Balance.Deposit)
				r.Get("/transactions", h.Balance.ListTransactions)
			})

			r.Route("/goals", func(r chi.Router) {
				r.Get("/", h.Goal.ListGoals)
				r.Post("/self", h.Goal.CreateSelfGoal)
				r.Post("/family", h.Goal.CreateFamilyGoal)
				r.Get("/{id}", h.Goal.GetGoal)
				r.Post("/{id}/deposit", h.Balance.DepositToGoal)
			})

			r.Get("/notifications/ws", h.WS.Subscribe)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(authMW.Middleware, authMW.RequireAdmin)

			r.Get("/users", h.Admin.ListUsers)
			r.Patch("/users/{id}/role", h.Admin.UpdateRole)
			r.Delete("/users/{id}", h.Admin.DeleteUser)
			r.Post("/parse-email", h.Admin.ParseEmail)

			r.Route("/monitor", func(r chi.Router) {
				r.Get("/status", h.Monitor.Status)
				r.Post("/start", h.Monitor.Start)
				r.Post("/stop", h.Monitor.Stop)
				r.Post("/interval", h.Monitor.ChangeInterval)
				r.Post("/run", h.Monitor.ForceRun)
			})
		})
	})

	return r
}
