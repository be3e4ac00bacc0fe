package api

import (
	"log/slog"

	"github.com/adnan-tnd/flow-core/internal/api/handlers"
	"github.com/adnan-tnd/flow-core/internal/api/middleware"
	"github.com/adnan-tnd/flow-core/internal/attendance"
	"github.com/adnan-tnd/flow-core/internal/auth"
	"github.com/adnan-tnd/flow-core/internal/boards"
	"github.com/adnan-tnd/flow-core/internal/database/models"
	"github.com/adnan-tnd/flow-core/internal/finance"
	"github.com/adnan-tnd/flow-core/internal/leave"
	"github.com/adnan-tnd/flow-core/internal/projects"
	"github.com/adnan-tnd/flow-core/internal/reviews"
	"github.com/adnan-tnd/flow-core/internal/sprints"
	"github.com/adnan-tnd/flow-core/pkg/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Router struct {
	chi.Router
}

// Services groups the domain services the handlers call.
type Services struct {
	Auth       auth.Authenticator
	Projects   *projects.Service
	Sprints    *sprints.Service
	Boards     *boards.Service
	Attendance *attendance.Service
	Leave      *leave.Service
	Finance    *finance.Service
	Reviews    *reviews.Service
}

type RouterConfig struct {
	DB             *gorm.DB
	Redis          redis.Cmdable // nil when running without Redis
	Logger         *slog.Logger
	Tokens         auth.TokenService
	Services       Services
	Storage        config.StorageConfig
	AllowedOrigins []string           // CORS allowed origins
	Limiter        middleware.Limiter // nil disables rate limiting
}

var privileged = middleware.RequireRole(models.RoleCEO, models.RoleManager)

func NewRouter(cfg RouterConfig) *Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	if cfg.Limiter != nil {
		r.Use(middleware.RateLimit(cfg.Limiter))
	}

	// CORS - restrict to configured origins, or allow all in development
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000", "http://localhost:8080"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	svc := cfg.Services
	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Redis)
	authHandler := handlers.NewAuthHandler(svc.Auth, cfg.Logger)
	projectHandler := handlers.NewProjectHandler(svc.Projects, cfg.Logger)
	sprintHandler := handlers.NewSprintHandler(svc.Sprints, cfg.Logger)
	boardHandler := handlers.NewBoardHandler(svc.Boards, cfg.Storage, cfg.Logger)
	attendanceHandler := handlers.NewAttendanceHandler(svc.Attendance, cfg.Logger)
	leaveHandler := handlers.NewLeaveHandler(svc.Leave, cfg.Logger)
	reviewHandler := handlers.NewReviewHandler(svc.Reviews, cfg.Logger)
	financeHandler := handlers.NewFinanceHandler(svc.Finance, cfg.Logger)

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints
		r.Post("/auth/signup", authHandler.Signup)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/forgot-password", authHandler.ForgotPassword)
		r.Post("/auth/reset-password", authHandler.ResetPassword)
		r.Get("/trello-board/accept-invitation/{boardId}/{token}", boardHandler.AcceptInvitation)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.Tokens))

			r.Get("/auth/me", authHandler.Me)

			r.Route("/project", func(r chi.Router) {
				r.Post("/", projectHandler.Create)
				r.With(privileged).Get("/", projectHandler.List)
				r.Get("/my", projectHandler.Mine)
				r.Get("/{id}", projectHandler.Get)
				r.With(privileged).Patch("/{id}", projectHandler.Update)
				r.With(privileged).Delete("/{id}", projectHandler.Delete)
				r.Post("/{id}/members/add", projectHandler.AddMembers)
				r.Post("/{id}/members/remove", projectHandler.RemoveMembers)

				r.Get("/{id}/sprints", sprintHandler.List)
				r.Post("/{id}/sprints", sprintHandler.Create)
				r.Patch("/{id}/sprints/{sprintId}", sprintHandler.Update)
				r.Delete("/{id}/sprints/{sprintId}", sprintHandler.Delete)
			})

			r.Route("/trello-board", func(r chi.Router) {
				r.Post("/create", boardHandler.Create)
				r.Post("/add-users/{boardId}", boardHandler.AddUsers)
				r.Get("/my", boardHandler.Mine)
				r.Get("/{boardId}", boardHandler.Get)
				r.Get("/{boardId}/members", boardHandler.Members)
				r.Get("/{boardId}/lists", boardHandler.Lists)

				r.Post("/create-list", boardHandler.CreateList)
				r.Patch("/list/{listId}", boardHandler.UpdateList)
				r.Delete("/list/{listId}", boardHandler.DeleteList)

				r.Post("/create-card", boardHandler.CreateCard)
				r.Route("/card/{cardId}", func(r chi.Router) {
					r.Get("/", boardHandler.GetCard)
					r.Patch("/", boardHandler.UpdateCard)
					r.Delete("/", boardHandler.DeleteCard)
					r.Patch("/status", boardHandler.UpdateCardStatus)
					r.Post("/assign", boardHandler.AssignMembers)
					r.Post("/unassign", boardHandler.UnassignMembers)
					r.Post("/attachments", boardHandler.AddAttachments)
					r.Post("/attachments/remove", boardHandler.RemoveAttachments)
					r.Get("/comments", boardHandler.Comments)
					r.Post("/comments", boardHandler.AddComment)
				})
				r.Patch("/comment/{commentId}", boardHandler.UpdateComment)
				r.Delete("/comment/{commentId}", boardHandler.DeleteComment)
			})

			r.Route("/attendance", func(r chi.Router) {
				r.Post("/inroll", attendanceHandler.ClockInOut)
				r.Post("/myreport", attendanceHandler.MyReport)
			})

			r.Route("/leave-request", func(r chi.Router) {
				r.Post("/create", leaveHandler.Create)
				r.Get("/", leaveHandler.Mine)
				r.Get("/pending", leaveHandler.Pending)
				r.Patch("/{id}", leaveHandler.Decide)
			})

			r.Route("/reviews", func(r chi.Router) {
				r.Post("/add", reviewHandler.Create)
				r.Get("/project-reviews", reviewHandler.ProjectReviews)
				r.Get("/user-reviews", reviewHandler.UserReviews)
				r.Get("/my-reviews", reviewHandler.MyReviews)
				r.Get("/my-project-reviews", reviewHandler.MyProjectReviews)
			})

			r.Route("/office-expense", func(r chi.Router) {
				r.Post("/salary/create", financeHandler.CreateSalary)
				r.Patch("/salary/update/{id}", financeHandler.UpdateSalary)
				r.Delete("/salary/delete/{id}", financeHandler.DeleteSalary)
				r.Get("/salaries", financeHandler.ListSalaries)
				r.Get("/salaries/my", financeHandler.MySalaries)

				r.Post("/expense/create", financeHandler.CreateExpense)
				r.Patch("/expense/update/{id}", financeHandler.UpdateExpense)
				r.Delete("/expense/delete/{id}", financeHandler.DeleteExpense)
				r.Get("/expenses", financeHandler.ListExpenses)

				r.Get("/stats", financeHandler.Stats)
			})
		})
	})

	return &Router{r}
}
