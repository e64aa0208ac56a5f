package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"biblekwiz-backend/database"
	"biblekwiz-backend/leaderboard"
	"biblekwiz-backend/quiz"
)

// ImportQuestions accepts a pasted CSV or HTML-table payload and bulk
// inserts the parsed questions. Returns the new question ids so the
// admin UI can attach them to a quiz.
func ImportQuestions(c *fiber.Ctx) error {
	var data struct {
		RawText string `json:"rawText"`
	}
	if err := c.BodyParser(&data); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if data.RawText == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "rawText is required"})
	}

	questions, err := quiz.ParseQuestions(data.RawText)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	tx, err := database.DB.Begin()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to start transaction"})
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO questions (question, option_a, option_b, option_c, option_d, correct_option)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to prepare insert"})
	}
	defer stmt.Close()

	ids := make([]int, 0, len(questions))
	for _, q := range questions {
		var id int
		if err := stmt.QueryRow(q.Question, q.OptionA, q.OptionB, q.OptionC, q.OptionD, q.CorrectOption).Scan(&id); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to insert questions"})
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to commit import"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":     "Questions imported successfully",
		"count":       len(ids),
		"questionIds": ids,
	})
}

// TriggerRollover runs the archive-and-reset pass on demand, the same
// code path the scheduler takes. Safe to call repeatedly.
func TriggerRollover(c *fiber.Ctx) error {
	if err := rolloverCtrl.RunRolloverIfDue(c.Context(), time.Now()); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Rollover failed: " + err.Error()})
	}
	return c.JSON(fiber.Map{
		"message":     "Rollover pass completed",
		"currentWeek": leaderboard.WeekOf(time.Now()),
	})
}
