package users

import "github.com/gofiber/fiber/v2"

// Route binds a handler to a method and path. Public routes skip the
// token guard.
type Route struct {
	Method  string
	Path    string
	Public  bool
	Handler fiber.Handler
}

// Routes returns the full route table for the service.
func Routes(auth *AuthController, directory *UsersController) []Route {
	return []Route{
		{Method: fiber.MethodPost, Path: "/auth/sign-in", Public: true, Handler: auth.SignIn},
		{Method: fiber.MethodPost, Path: "/auth/recovery-password", Public: true, Handler: auth.RecoveryPassword},
		{Method: fiber.MethodPost, Path: "/auth/change-password", Public: true, Handler: auth.ChangePassword},

		{Method: fiber.MethodGet, Path: "/users/current", Handler: directory.Current},
		{Method: fiber.MethodPost, Path: "/users", Handler: directory.Create},
		{Method: fiber.MethodGet, Path: "/users", Handler: directory.List},
		{Method: fiber.MethodGet, Path: "/users/:id", Handler: directory.Get},
		{Method: fiber.MethodGet, Path: "/users/:id/toggle-active", Handler: directory.ToggleActive},
		{Method: fiber.MethodPut, Path: "/users/:email", Handler: directory.SetPassword},
		{Method: fiber.MethodPatch, Path: "/users/:id", Handler: directory.Update},
	}
}

// RegisterRoutes mounts the route table on app, wrapping non public
// routes with the guard.
func RegisterRoutes(app *fiber.App, guard *TokenGuard, auth *AuthController, directory *UsersController) {
	protect := guard.Protect()
	for _, route := range Routes(auth, directory) {
		if route.Public {
			app.Add(route.Method, route.Path, route.Handler)
			continue
		}
		app.Add(route.Method, route.Path, protect, route.Handler)
	}
}
