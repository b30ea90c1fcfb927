package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/supportdesk/ticket-dashboard/internal/api/http/handlers"
	"github.com/supportdesk/ticket-dashboard/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Agents         *handlers.AgentsHandler
	Sla            *handlers.SlaHandler
	Routing        *handlers.RoutingHandler
	Ws             *handlers.WsHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/refresh", cfg.Auth.Refresh)
	authGroup.Post("/logout", cfg.AuthMiddleware.Handle, cfg.Auth.Logout)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.Auth.Me)

	tickets := api.Group("/tickets", cfg.AuthMiddleware.Handle)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Post("/comments", cfg.Tickets.AddCommentBody)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Put("/:id", cfg.Tickets.UpdateTicket)
	tickets.Delete("/:id", auth.RequireAdmin(), cfg.Tickets.DeleteTicket)
	tickets.Get("/:id/comments", cfg.Tickets.ListComments)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)

	agents := api.Group("/agents", cfg.AuthMiddleware.Handle)
	agents.Get("/", cfg.Agents.ListAgents)
	agents.Post("/", auth.RequireAdmin(), cfg.Agents.CreateAgent)
	agents.Get("/:id", cfg.Agents.GetAgent)

	sla := api.Group("/sla", cfg.AuthMiddleware.Handle, auth.RequireStaff())
	sla.Get("/", cfg.Sla.ListSlas)
	sla.Post("/", auth.RequireAdmin(), cfg.Sla.CreateSla)
	sla.Put("/:id", auth.RequireAdmin(), cfg.Sla.UpdateSla)
	sla.Delete("/:id", auth.RequireAdmin(), cfg.Sla.DeleteSla)
	sla.Get("/violations", cfg.Sla.ListViolations)
	sla.Post("/violations/check", cfg.Sla.CheckViolations)
	sla.Post("/violations/check/:ticketId", cfg.Sla.CheckTicketViolations)
	// Registered after /violations so the param route does not shadow it.
	sla.Get("/:id", cfg.Sla.GetSla)

	routing := api.Group("/routing/rules", cfg.AuthMiddleware.Handle, auth.RequireStaff())
	routing.Get("/", cfg.Routing.ListRules)
	routing.Post("/", auth.RequireAdmin(), cfg.Routing.CreateRule)
	routing.Post("/test/:ticketId", cfg.Routing.TestRule)
	routing.Get("/:id", cfg.Routing.GetRule)
	routing.Put("/:id", auth.RequireAdmin(), cfg.Routing.UpdateRule)
	routing.Delete("/:id", auth.RequireAdmin(), cfg.Routing.DeleteRule)

	app.Get("/ticketHub", cfg.AuthMiddleware.Handle, cfg.Ws.Upgrade, cfg.Ws.Serve())
}
