package routes

import (
	"chatline_server/config"
	"chatline_server/middlewares"
	"chatline_server/services"
	"chatline_server/socket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
)

// SetRoutes sets all routes of server
func SetRoutes(app *fiber.App, env services.Env, stream *socket.Stream) {
	api := app.Group(config.Config.Version)
	app.Use(cors.New(cors.Config{
		AllowCredentials: true,
	}))

	app.Use("/stream", middlewares.AuthenticateStream, websocket.New(stream.Handler()))

	authRoutes(api, env)

	api.Use(middlewares.Authenticate)

	userRoutes(api, env)
	relationRoutes(api, env)
	conversationRoutes(api, env)
	mediaRoutes(api, env)
}
