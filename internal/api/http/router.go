package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/postroute/postal-service/internal/api/http/handlers"
	"github.com/postroute/postal-service/internal/auth"
	"github.com/postroute/postal-service/internal/observability"
	"github.com/postroute/postal-service/internal/service"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Account        *handlers.AccountHandler
	Mail           *handlers.MailHandler
	Activities     *handlers.ActivityHandler
	Registry       *handlers.RegistryHandler
	Users          *handlers.UsersHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes. Each role area is gated by the
// capability it needs; Admin passes every gate.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	account := app.Group("/account")
	account.Post("/login", cfg.Account.Login)
	signedIn := account.Group("", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	signedIn.Post("/logout", cfg.Account.Logout)
	signedIn.Get("/me", cfg.Account.Me)
	signedIn.Post("/password", cfg.Account.ChangePassword)
	signedIn.Put("/branch", cfg.Account.SelectBranch)
	signedIn.Put("/car", cfg.Account.SelectCar)
	signedIn.Get("/branches", cfg.Account.Branches)
	signedIn.Get("/cars", cfg.Account.Cars)

	app.Get("/mail/:id", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated(), cfg.Mail.Get)

	operator := app.Group("/operator", cfg.AuthMiddleware.Handle)
	operator.Get("/mail", auth.RequireAction(auth.ActionRegisterMail), cfg.Mail.View(service.ViewBranch))
	operator.Post("/mail", auth.RequireAction(auth.ActionRegisterMail), cfg.Mail.Create)
	operator.Post("/mail/:id/deliver", auth.RequireAction(auth.ActionDeliverAtBranch), cfg.Mail.Deliver(false))

	stockman := app.Group("/stockman", cfg.AuthMiddleware.Handle, auth.RequireAction(auth.ActionStockMail))
	stockman.Get("/mail", cfg.Mail.View(service.ViewStock))
	stockman.Post("/mail/:id/stock", cfg.Mail.Stock)

	driver := app.Group("/driver", cfg.AuthMiddleware.Handle, auth.RequireAction(auth.ActionTransferMail))
	driver.Get("/mail/branch", cfg.Mail.View(service.ViewTransfer))
	driver.Get("/mail/car", cfg.Mail.View(service.ViewCarTransfer))
	driver.Post("/mail/:id/load", cfg.Mail.Load(false))
	driver.Post("/mail/:id/unload", cfg.Mail.Unload)

	courier := app.Group("/courier", cfg.AuthMiddleware.Handle, auth.RequireAction(auth.ActionDeliverToPerson))
	courier.Get("/mail/branch", cfg.Mail.View(service.ViewDelivery))
	courier.Get("/mail/car", cfg.Mail.View(service.ViewCarDelivery))
	courier.Post("/mail/:id/load", cfg.Mail.Load(true))
	courier.Post("/mail/:id/deliver", cfg.Mail.Deliver(true))

	manager := app.Group("/manager", cfg.AuthMiddleware.Handle, auth.RequireAction(auth.ActionViewActivities))
	manager.Get("/activities", cfg.Activities.List)

	registry := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireAction(auth.ActionManageRegistry))
	registry.Delete("/activities", auth.RequireAction(auth.ActionExpireActivities), cfg.Activities.Expire)
	registry.Get("/branches", cfg.Registry.ListBranches)
	registry.Post("/branches", cfg.Registry.CreateBranch)
	registry.Get("/branches/:id", cfg.Registry.GetBranch)
	registry.Put("/branches/:id", cfg.Registry.UpdateBranch)
	registry.Delete("/branches/:id", cfg.Registry.DeleteBranch)
	registry.Get("/cars", cfg.Registry.ListCars)
	registry.Post("/cars", cfg.Registry.CreateCar)
	registry.Get("/cars/:id", cfg.Registry.GetCar)
	registry.Put("/cars/:id", cfg.Registry.UpdateCar)
	registry.Delete("/cars/:id", cfg.Registry.DeleteCar)
	registry.Get("/users", cfg.Users.ListUsers)
	registry.Post("/users", cfg.Users.CreateUser)
	registry.Get("/users/:id", cfg.Users.GetUser)
	registry.Put("/users/:id", cfg.Users.UpdateUser)
	registry.Delete("/users/:id", cfg.Users.DeleteUser)
	registry.Get("/roles", cfg.Users.ListRoles)
	registry.Post("/roles", cfg.Users.CreateRole)
	registry.Get("/roles/:id", cfg.Users.GetRole)
	registry.Put("/roles/:id", cfg.Users.UpdateRole)
	registry.Delete("/roles/:id", cfg.Users.DeleteRole)
}
