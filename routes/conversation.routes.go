package routes

import (
	"chatline_server/middlewares"
	"chatline_server/services"

	"github.com/gofiber/fiber/v2"
)

func conversationRoutes(api fiber.Router, env services.Env) {
	convo := api.Group("/conversation")

	convo.Get("/", env.GetConversations)
	convo.Post("/private/:userID", env.CreatePrivateConversation)
	convo.Post("/group", env.CreateGroupConversation)

	one := convo.Group("/:conversationID", middlewares.ConversationLoader(env.Convos))
	one.Post("/update", env.UpdateConversation)
	one.Post("/read", env.MarkConversationRead)
	one.Get("/member", env.GetMembers)
	one.Post("/member/:userID/add", env.AddMember)
	one.Post("/member/:userID/role", env.AssignRole)
	one.Post("/member/:userID/remove", env.RemoveMember)
	one.Post("/message", env.SendMessage)
	one.Get("/message", env.GetMessages)
}

func mediaRoutes(api fiber.Router, env services.Env) {
	media := api.Group("/media")

	media.Post("/", env.UploadMedia)
	media.Get("/:mediaID", env.GetMedia)
}
