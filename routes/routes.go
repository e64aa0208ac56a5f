package routes

import (
	"github.com/gofiber/fiber/v2"

	"biblekwiz-backend/controllers"
	"biblekwiz-backend/middleware"
)

func Setup(app *fiber.App) {
	api := app.Group("/api")

	users := api.Group("/users")
	users.Post("/signup", controllers.Register)
	users.Post("/login", controllers.Login)
	users.Get("/verify-email", controllers.VerifyEmail)
	users.Post("/resend-verification", controllers.ResendVerification)
	users.Get("/me", middleware.RequireAuth, controllers.GetMe)

	quiz := api.Group("/quiz")
	quiz.Post("/create", middleware.RequireAuth, controllers.CreateQuiz)
	quiz.Get("/active", controllers.GetActiveQuiz)
	quiz.Get("/active/byday", controllers.GetQuizzesByDay)
	quiz.Get("/inactive", controllers.GetInactiveQuizzes)
	quiz.Post("/activate/:id", middleware.RequireAuth, controllers.ActivateQuiz)
	quiz.Put("/deactivate/:id", middleware.RequireAuth, controllers.DeactivateQuiz)
	quiz.Post("/mark-question", controllers.MarkQuestion)
	quiz.Post("/submit", middleware.RequireAuth, controllers.SubmitQuiz)
	quiz.Get("/", controllers.ListQuizzes)
	quiz.Get("/:id", controllers.GetQuiz)
	quiz.Put("/:id", middleware.RequireAuth, controllers.UpdateQuiz)
	quiz.Delete("/:id", middleware.RequireAuth, controllers.DeleteQuiz)

	api.Put("/questions/:id", middleware.RequireAuth, controllers.UpdateQuestion)

	api.Get("/leaderboard", controllers.GetLeaderboard)
	api.Get("/leaderboard/history/:week", controllers.GetLeaderboardHistory)

	admin := api.Group("/admin", middleware.RequireAuth)
	admin.Post("/questions/import", controllers.ImportQuestions)
	admin.Post("/rollover", controllers.TriggerRollover)
}
