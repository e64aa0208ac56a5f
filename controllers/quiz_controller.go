package controllers

import (
	"database/sql"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/lib/pq"

	"biblekwiz-backend/database"
	"biblekwiz-backend/leaderboard"
	"biblekwiz-backend/models"
)

var (
	boardRepo      leaderboard.Repository
	scoreProcessor *leaderboard.Processor
	rolloverCtrl   *leaderboard.RolloverController
)

// InitLeaderboard wires the ranking engine into the handlers. Called
// once from main before routes are served.
func InitLeaderboard(repo leaderboard.Repository, processor *leaderboard.Processor, controller *leaderboard.RolloverController) {
	boardRepo = repo
	scoreProcessor = processor
	rolloverCtrl = controller
}

type CreateQuizRequest struct {
	Day       int               `json:"day"`
	Week      int               `json:"week"`
	Month     int               `json:"month"`
	Questions []models.Question `json:"questions"`
}

func CreateQuiz(c *fiber.Ctx) error {
	var req CreateQuizRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if req.Day <= 0 || len(req.Questions) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "day and questions are required"})
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
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to prepare question insert"})
	}
	defer stmt.Close()

	questionIDs := make([]int64, 0, len(req.Questions))
	for _, q := range req.Questions {
		var id int64
		if err := stmt.QueryRow(q.Question, q.OptionA, q.OptionB, q.OptionC, q.OptionD, q.CorrectOption).Scan(&id); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to insert questions"})
		}
		questionIDs = append(questionIDs, id)
	}

	var quizID int
	var createdAt time.Time
	err = tx.QueryRow(`
		INSERT INTO quizzes (day, week, month, question_ids, status)
		VALUES ($1, $2, $3, $4, 'Inactive')
		RETURNING id, created_at
	`, req.Day, req.Week, req.Month, pq.Array(questionIDs)).Scan(&quizID, &createdAt)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create quiz"})
	}

	if err := tx.Commit(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to commit quiz"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Quiz created successfully",
		"data": models.Quiz{
			ID:        quizID,
			Day:       req.Day,
			Week:      req.Week,
			Month:     req.Month,
			Status:    "Inactive",
			CreatedAt: createdAt,
			Questions: req.Questions,
		},
	})
}

func setQuizStatus(c *fiber.Ctx, status string) error {
	quizID, err := strconv.Atoi(c.Params("id"))
	if err != nil || quizID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid quiz id"})
	}

	result, err := database.DB.Exec(`UPDATE quizzes SET status = $1 WHERE id = $2`, status, quizID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update quiz status"})
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Quiz not found"})
	}

	return c.JSON(fiber.Map{"message": "Quiz " + status})
}

func ActivateQuiz(c *fiber.Ctx) error {
	return setQuizStatus(c, "Active")
}

func DeactivateQuiz(c *fiber.Ctx) error {
	return setQuizStatus(c, "Inactive")
}

func fetchQuizQuestions(questionIDs []int64) ([]models.Question, error) {
	rows, err := database.DB.Query(`
		SELECT id, question, option_a, option_b, option_c, option_d, correct_option
		FROM questions
		WHERE id = ANY($1)
	`, pq.Array(questionIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[int]models.Question, len(questionIDs))
	for rows.Next() {
		var q models.Question
		if err := rows.Scan(&q.ID, &q.Question, &q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD, &q.CorrectOption); err != nil {
			return nil, err
		}
		byID[q.ID] = q
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Preserve the quiz's question order.
	questions := make([]models.Question, 0, len(questionIDs))
	for _, id := range questionIDs {
		if q, ok := byID[int(id)]; ok {
			questions = append(questions, q)
		}
	}
	return questions, nil
}

func scanQuizzes(rows *sql.Rows, withQuestions bool) ([]models.Quiz, error) {
	defer rows.Close()

	quizzes := make([]models.Quiz, 0)
	for rows.Next() {
		var quiz models.Quiz
		var questionIDs pq.Int64Array
		if err := rows.Scan(&quiz.ID, &quiz.Day, &quiz.Week, &quiz.Month, &questionIDs, &quiz.Status, &quiz.CreatedAt); err != nil {
			return nil, err
		}
		if withQuestions {
			questions, err := fetchQuizQuestions(questionIDs)
			if err != nil {
				return nil, err
			}
			quiz.Questions = questions
		}
		quizzes = append(quizzes, quiz)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return quizzes, nil
}

const quizColumns = `id, day, week, month, question_ids, status, created_at`

func GetActiveQuiz(c *fiber.Ctx) error {
	rows, err := database.DB.Query(`
		SELECT `+quizColumns+` FROM quizzes WHERE status = 'Active' ORDER BY id ASC LIMIT 1
	`)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve active quiz"})
	}
	quizzes, err := scanQuizzes(rows, true)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to parse active quiz"})
	}
	if len(quizzes) == 0 {
		return c.JSON(fiber.Map{"message": "No active quiz", "data": nil})
	}
	return c.JSON(fiber.Map{"message": "Active quiz retrieved successfully", "data": quizzes[0]})
}

func GetInactiveQuizzes(c *fiber.Ctx) error {
	rows, err := database.DB.Query(`
		SELECT ` + quizColumns + ` FROM quizzes WHERE status = 'Inactive' ORDER BY id ASC
	`)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve inactive quizzes"})
	}
	quizzes, err := scanQuizzes(rows, true)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to parse inactive quizzes"})
	}
	return c.JSON(fiber.Map{"message": "Inactive quizzes retrieved successfully", "data": quizzes})
}

func GetQuizzesByDay(c *fiber.Ctx) error {
	day, err := strconv.Atoi(c.Query("day"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid day parameter"})
	}

	rows, err := database.DB.Query(`
		SELECT `+quizColumns+` FROM quizzes WHERE day = $1 AND status = 'Active' ORDER BY id ASC
	`, day)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve quizzes by day"})
	}
	quizzes, err := scanQuizzes(rows, true)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to parse quizzes"})
	}
	return c.JSON(quizzes)
}

func ListQuizzes(c *fiber.Ctx) error {
	rows, err := database.DB.Query(`SELECT ` + quizColumns + ` FROM quizzes ORDER BY id ASC`)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve quizzes"})
	}
	quizzes, err := scanQuizzes(rows, false)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to parse quizzes"})
	}
	return c.JSON(fiber.Map{"message": "Quizzes retrieved successfully", "data": quizzes})
}

func GetQuiz(c *fiber.Ctx) error {
	quizID, err := strconv.Atoi(c.Params("id"))
	if err != nil || quizID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid quiz id"})
	}

	rows, err := database.DB.Query(`SELECT `+quizColumns+` FROM quizzes WHERE id = $1`, quizID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve quiz"})
	}
	quizzes, err := scanQuizzes(rows, true)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to parse quiz"})
	}
	if len(quizzes) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Quiz not found"})
	}
	return c.JSON(fiber.Map{"message": "Quiz retrieved successfully", "data": quizzes[0]})
}

func UpdateQuiz(c *fiber.Ctx) error {
	quizID, err := strconv.Atoi(c.Params("id"))
	if err != nil || quizID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid quiz id"})
	}

	var req struct {
		Day   *int `json:"day"`
		Week  *int `json:"week"`
		Month *int `json:"month"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	result, err := database.DB.Exec(`
		UPDATE quizzes
		SET day = COALESCE($1, day),
		    week = COALESCE($2, week),
		    month = COALESCE($3, month)
		WHERE id = $4
	`, req.Day, req.Week, req.Month, quizID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update quiz"})
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Quiz not found"})
	}

	return c.JSON(fiber.Map{"message": "Quiz updated successfully"})
}

func DeleteQuiz(c *fiber.Ctx) error {
	quizID, err := strconv.Atoi(c.Params("id"))
	if err != nil || quizID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid quiz id"})
	}

	if _, err := database.DB.Exec(`DELETE FROM quizzes WHERE id = $1`, quizID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete quiz"})
	}
	return c.JSON(fiber.Map{"message": "Quiz deleted successfully"})
}

func UpdateQuestion(c *fiber.Ctx) error {
	questionID, err := strconv.Atoi(c.Params("id"))
	if err != nil || questionID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid question id"})
	}

	var q models.Question
	if err := c.BodyParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	result, err := database.DB.Exec(`
		UPDATE questions
		SET question = $1, option_a = $2, option_b = $3, option_c = $4, option_d = $5, correct_option = $6
		WHERE id = $7
	`, q.Question, q.OptionA, q.OptionB, q.OptionC, q.OptionD, q.CorrectOption, questionID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update question"})
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Question not found"})
	}

	return c.JSON(fiber.Map{"message": "Question updated successfully"})
}

func MarkQuestion(c *fiber.Ctx) error {
	var data struct {
		QuestionID     int    `json:"questionId"`
		SelectedOption string `json:"selectedOption"`
	}
	if err := c.BodyParser(&data); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	var correctOption string
	err := database.DB.QueryRow(`
		SELECT correct_option FROM questions WHERE id = $1
	`, data.QuestionID).Scan(&correctOption)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Question not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to mark question"})
	}

	return c.JSON(fiber.Map{
		"message": "Question marked successfully",
		"data":    fiber.Map{"isCorrect": correctOption == data.SelectedOption},
	})
}

func SubmitQuiz(c *fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(int)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing user ID"})
	}

	var data struct {
		QuizID int   `json:"quizId"`
		Score  int64 `json:"score"`
	}
	if err := c.BodyParser(&data); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	result, err := scoreProcessor.Submit(c.Context(), userID, data.Score)
	rankStale := false
	if err != nil {
		switch {
		case errors.Is(err, leaderboard.ErrInvalidScore):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Score must be non-negative"})
		case errors.Is(err, leaderboard.ErrUnknownUser):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		case errors.Is(err, leaderboard.ErrTransient):
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Score was not recorded, please retry"})
		case errors.Is(err, leaderboard.ErrDegradedRanking):
			// Totals committed; only the rank is unconfirmed.
			rankStale = true
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to record score"})
		}
	}

	// The session row and day completion are bookkeeping for the quiz
	// subsystem; the score itself is already durable.
	if _, err := database.DB.Exec(`
		INSERT INTO quiz_sessions (user_id, quiz_id, score)
		VALUES ($1, $2, $3)
	`, userID, data.QuizID, data.Score); err != nil {
		log.Printf("Failed to record quiz session for user %d: %v", userID, err)
	}
	if err := markDayCompleted(userID, data.QuizID); err != nil {
		log.Printf("Failed to mark day completion for user %d: %v", userID, err)
	}

	return c.JSON(fiber.Map{
		"message": "Quiz session recorded successfully",
		"data": fiber.Map{
			"rank":             result.Rank,
			"currentWeekTotal": result.WeekTotal,
			"rankStale":        rankStale,
		},
	})
}

func markDayCompleted(userID, quizID int) error {
	var day int
	if err := database.DB.QueryRow(`SELECT day FROM quizzes WHERE id = $1`, quizID).Scan(&day); err != nil {
		return err
	}
	_, err := database.DB.Exec(`
		INSERT INTO quiz_completions (user_id, day, completed)
		VALUES ($1, $2, true)
		ON CONFLICT (user_id, day)
		DO UPDATE SET completed = true
	`, userID, day)
	return err
}

func GetLeaderboard(c *fiber.Ctx) error {
	week := leaderboard.WeekOf(time.Now())
	board, err := boardRepo.CurrentLeaderboard(c.Context(), week)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve current week leaderboard"})
	}
	return c.JSON(fiber.Map{"success": true, "data": board})
}

func GetLeaderboardHistory(c *fiber.Ctx) error {
	week, err := strconv.ParseInt(c.Params("week"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid week"})
	}

	snapshot, err := boardRepo.GetSnapshot(c.Context(), week)
	if err != nil {
		if errors.Is(err, leaderboard.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No archived leaderboard for that week"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve leaderboard history"})
	}
	return c.JSON(fiber.Map{"success": true, "data": snapshot})
}
