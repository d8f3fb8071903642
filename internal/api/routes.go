package api

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(app *fiber.App, handler *Handler) {
	app.Get("/healthz", handler.Health)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", handler.Register)
	auth.Post("/login", handler.Login)
	auth.Post("/logout", handler.AuthRequired, handler.Logout)

	experiments := api.Group("/experiments", handler.AuthRequired)
	experiments.Get("", handler.ListExperiments)
	experiments.Post("", handler.CreateExperiment)
	experiments.Get("/:id", handler.GetExperiment)
	experiments.Get("/:id/checkins", handler.ListCheckIns)
	experiments.Post("/:id/checkins", handler.RecordCheckIn)
	experiments.Get("/:id/reflections", handler.ListReflections)
	experiments.Post("/:id/reflections", handler.SubmitReflection)

	settings := api.Group("/settings", handler.AuthRequired)
	settings.Post("/reminder", handler.UpdateReminderSettings)

	internal := api.Group("/internal", handler.OpsRequired)
	internal.Post("/tier", handler.UpdateTier)
	internal.Get("/reminders/due", handler.DueReminders)
}

func (handler *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
