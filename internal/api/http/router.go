package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	Users          *handlers.UsersHandler
	Notifications  *handlers.NotificationsHandler
	ProblemTypes   *handlers.ProblemTypesHandler
	Activities     *handlers.ActivitiesHandler
	Reports        *handlers.ReportsHandler
	AuthMiddleware *auth.AuthMiddleware
	// UploadDir is served read-only at UploadPrefix when both are set.
	UploadDir    string
	UploadPrefix string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	if cfg.UploadDir != "" && cfg.UploadPrefix != "" {
		app.Static(cfg.UploadPrefix, cfg.UploadDir, fiber.Static{Browse: false})
	}

	api := app.Group("/api")

	// public
	api.Post("/tickets", cfg.Tickets.CreateTicket)
	api.Get("/tickets/track/:ticketNumber", cfg.Tickets.TrackTicket)
	api.Get("/problem-types", cfg.ProblemTypes.List)
	api.Post("/auth/login", cfg.Users.Login)

	protected := api.Group("", cfg.AuthMiddleware.Handle)

	protected.Get("/auth/me", cfg.Users.Me)
	protected.Post("/auth/change-password", cfg.Users.ChangePassword)

	tickets := protected.Group("/tickets")
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/my-tasks", auth.RequireTechnician(), cfg.Tickets.ListMyTasks)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Post("/:id/take", auth.RequireTechnician(), cfg.Tickets.TakeTicket)
	tickets.Patch("/:id/status", cfg.Tickets.ChangeStatus)
	tickets.Patch("/:id/priority", cfg.Tickets.ChangePriority)
	tickets.Post("/:id/co-assign", cfg.Tickets.CoAssign)
	tickets.Get("/:id/co-assignees", cfg.Tickets.ListCoAssignees)
	tickets.Post("/:id/actions", cfg.Tickets.AddAction)
	tickets.Post("/:id/proof", cfg.Tickets.UploadProof)
	tickets.Delete("/:id", auth.RequireAdmin(), cfg.Tickets.DeleteTicket)

	notifications := protected.Group("/notifications")
	notifications.Get("", cfg.Notifications.List)
	notifications.Get("/unread-count", cfg.Notifications.UnreadCount)
	notifications.Patch("/read-all", cfg.Notifications.MarkAllRead)
	notifications.Patch("/:id/read", cfg.Notifications.MarkRead)

	users := protected.Group("/users")
	users.Get("/technicians", auth.RequireTechnician(), cfg.Users.Colleagues)
	users.Put("/me/push-subscription", cfg.Users.SavePushSubscription)
	users.Delete("/me/push-subscription", cfg.Users.DeletePushSubscription)
	users.Get("", auth.RequireAdmin(), cfg.Users.ListUsers)
	users.Post("", auth.RequireAdmin(), cfg.Users.CreateUser)
	users.Patch("/:id", auth.RequireAdmin(), cfg.Users.UpdateUser)

	problemTypes := protected.Group("/problem-types", auth.RequireAdmin())
	problemTypes.Post("", cfg.ProblemTypes.Create)
	problemTypes.Put("/:id", cfg.ProblemTypes.Update)
	problemTypes.Delete("/:id", cfg.ProblemTypes.Delete)

	activities := protected.Group("/activities", auth.RequireTechnician())
	activities.Get("", cfg.Activities.List)
	activities.Post("", cfg.Activities.Create)
	activities.Delete("/:id", cfg.Activities.Delete)

	reports := protected.Group("/reports")
	reports.Get("/dashboard", cfg.Reports.Dashboard)
	reports.Get("/technician", cfg.Reports.Technician)
	reports.Get("/technician.xlsx", cfg.Reports.TechnicianWorkbook)
	reports.Get("/tickets.xlsx", cfg.Reports.TicketsWorkbook)
}
