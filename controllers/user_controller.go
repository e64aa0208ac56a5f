package controllers

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"biblekwiz-backend/database"
	"biblekwiz-backend/mail"
	"biblekwiz-backend/models"
)

func generateVerificationToken() (string, error) {
	b := make([]byte, 16)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func Register(c *fiber.Ctx) error {
	var data struct {
		FullName    string `json:"fullName"`
		Email       string `json:"email"`
		PhoneNumber string `json:"phoneNumber"`
		Password    string `json:"password"`
	}
	if err := c.BodyParser(&data); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}

	data.FullName = strings.TrimSpace(data.FullName)
	data.Email = strings.TrimSpace(data.Email)
	if data.FullName == "" || data.Email == "" || data.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "fullName, email, and password are required"})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(data.Password), 14)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to hash password"})
	}

	token, err := generateVerificationToken()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to generate verification token"})
	}

	var userID int
	err = database.DB.QueryRow(`
        INSERT INTO users (full_name, email, phone_number, password_hash, verified, verification_token)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id
    `, data.FullName, data.Email, data.PhoneNumber, string(hash), false, token).Scan(&userID)
	if err != nil {
		fmt.Println("error: ", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "User already exists or invalid data"})
	}

	verificationURL := fmt.Sprintf("%s/verify-email?token=%s&email=%s",
		os.Getenv("FRONTEND_URL"),
		url.QueryEscape(token),
		url.QueryEscape(data.Email))

	if err := mail.SendVerificationEmail(data.Email, verificationURL); err != nil {
		// Log but keep the signup; the user can request a resend.
		fmt.Printf("Failed to send verification email: %v\n", err)
	}

	return c.JSON(fiber.Map{
		"message":              "User registered successfully. Please check your email to verify your account.",
		"requiresVerification": true,
		"data": fiber.Map{
			"id":       userID,
			"fullName": data.FullName,
			"email":    data.Email,
			"rank":     0,
			"points":   0,
		},
	})
}

func VerifyEmail(c *fiber.Ctx) error {
	token := c.Query("token")
	email := c.Query("email")

	if token == "" || email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid verification link"})
	}

	result, err := database.DB.Exec(`
        UPDATE users
        SET verified = true, verification_token = NULL
        WHERE email = $1 AND verification_token = $2 AND verified = false
    `, email, token)

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Verification failed"})
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid or expired verification link"})
	}

	return c.JSON(fiber.Map{"message": "Email verified successfully. You can now log in."})
}

func ResendVerification(c *fiber.Ctx) error {
	var data struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&data); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}

	var verified bool
	var token string

	err := database.DB.QueryRow(`
        SELECT verified, COALESCE(verification_token, '') FROM users WHERE email = $1
    `, data.Email).Scan(&verified, &token)

	if err != nil {
		// Don't reveal if email exists
		return c.JSON(fiber.Map{"message": "If your email exists in our system, a verification link has been sent"})
	}

	if verified {
		return c.JSON(fiber.Map{"message": "Your email is already verified"})
	}

	if token == "" {
		token, err = generateVerificationToken()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to generate verification token"})
		}

		_, err = database.DB.Exec(`
            UPDATE users SET verification_token = $1 WHERE email = $2
        `, token, data.Email)

		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update verification token"})
		}
	}

	verificationURL := fmt.Sprintf("%s/verify-email?token=%s&email=%s",
		os.Getenv("FRONTEND_URL"),
		url.QueryEscape(token),
		url.QueryEscape(data.Email))

	if err := mail.SendVerificationEmail(data.Email, verificationURL); err != nil {
		fmt.Printf("Failed to send verification email: %v\n", err)
	}

	return c.JSON(fiber.Map{"message": "Verification email has been sent"})
}

func Login(c *fiber.Ctx) error {
	var data struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&data); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}

	var user models.User
	var verified bool
	err := database.DB.QueryRow(`
        SELECT id, full_name, email, password_hash, verified, current_rank, current_week_points, points
        FROM users WHERE email = $1
    `, data.Email).Scan(&user.ID, &user.FullName, &user.Email, &user.PasswordHash, &verified,
		&user.CurrentRank, &user.CurrentWeekPoints, &user.Points)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid credentials"})
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(data.Password)) != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Incorrect password"})
	}

	if !verified {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":                "Email not verified",
			"requiresVerification": true,
		})
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"exp":     time.Now().Add(time.Hour * 72).Unix(),
	})

	secret := os.Getenv("JWT_SECRET")
	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create token"})
	}

	return c.JSON(fiber.Map{
		"token": tokenString,
		"user": fiber.Map{
			"id":                user.ID,
			"fullName":          user.FullName,
			"email":             user.Email,
			"currentRank":       user.CurrentRank,
			"currentWeekPoints": user.CurrentWeekPoints,
			"points":            user.Points,
		},
	})
}

func GetMe(c *fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(int)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing user ID"})
	}

	var user models.User
	err := database.DB.QueryRow(`
		SELECT id, full_name, email, phone_number, current_rank, current_week_points, points
		FROM users WHERE id = $1
	`, userID).Scan(&user.ID, &user.FullName, &user.Email, &user.PhoneNumber,
		&user.CurrentRank, &user.CurrentWeekPoints, &user.Points)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	completions, err := fetchDayCompletions(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch quiz completion"})
	}

	return c.JSON(fiber.Map{
		"user":                 user,
		"quizCompletionStatus": completions,
	})
}

func fetchDayCompletions(userID int) ([]models.DayCompletion, error) {
	rows, err := database.DB.Query(`
		SELECT day, completed FROM quiz_completions WHERE user_id = $1 ORDER BY day ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byDay := make(map[int]bool)
	for rows.Next() {
		var day int
		var completed bool
		if err := rows.Scan(&day, &completed); err != nil {
			return nil, err
		}
		byDay[day] = completed
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Days 1-6 always appear, unfinished days included.
	completions := make([]models.DayCompletion, 0, 6)
	for day := 1; day <= 6; day++ {
		completions = append(completions, models.DayCompletion{Day: day, Completed: byDay[day]})
	}
	return completions, nil
}
