package routes

import (
	"chatline_server/middlewares"
	"chatline_server/services"

	"github.com/gofiber/fiber/v2"
)

func authRoutes(api fiber.Router, env services.Env) {
	auth := api.Group("/auth")

	auth.Post("/register", env.Register)
	auth.Post("/login", env.Login)
	auth.Post("/logout", middlewares.Authenticate, env.Logout)
}
