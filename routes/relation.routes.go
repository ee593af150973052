package routes

import (
	"chatline_server/services"

	"github.com/gofiber/fiber/v2"
)

func userRoutes(api fiber.Router, env services.Env) {
	user := api.Group("/user")

	user.Get("/me", env.GetMe)
	user.Get("/id/:userID", env.GetUser)
	user.Get("/username/:username", env.GetUserByUsername)
}

func relationRoutes(api fiber.Router, env services.Env) {
	api.Get("/relation", env.GetRelations)
	api.Get("/block", env.GetBlocked)

	relation := api.Group("/relation/:userID")
	relation.Post("/request", env.SendFriendRequest)
	relation.Post("/accept", env.AcceptFriendRequest)
	relation.Post("/reject", env.RejectFriendRequest)
	relation.Post("/delete", env.DeleteFriendRequest)
	relation.Post("/remove", env.RemoveFriend)

	block := api.Group("/block/:userID")
	block.Post("/add", env.BlockUser)
	block.Post("/remove", env.UnblockUser)
}
