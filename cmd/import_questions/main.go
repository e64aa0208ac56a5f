package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"biblekwiz-backend/database"
	"biblekwiz-backend/quiz"
)

func main() {
	if os.Getenv("RENDER") == "" {
		_ = godotenv.Load()
	}

	csvPath := flag.String("csv", "", "Path to CSV file containing question rows")
	flag.Parse()

	if *csvPath == "" {
		log.Fatal("--csv is required")
	}

	file, err := os.Open(*csvPath)
	if err != nil {
		log.Fatalf("open csv file: %v", err)
	}
	defer file.Close()

	questions, err := quiz.ParseQuestionsCSV(file)
	if err != nil {
		log.Fatalf("parse csv: %v", err)
	}

	database.ConnectDB()

	tx, err := database.DB.Begin()
	if err != nil {
		log.Fatalf("begin transaction: %v", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO questions (question, option_a, option_b, option_c, option_d, correct_option)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`)
	if err != nil {
		log.Fatalf("prepare insert: %v", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, q := range questions {
		var id int
		if err := stmt.QueryRow(q.Question, q.OptionA, q.OptionB, q.OptionC, q.OptionD, q.CorrectOption).Scan(&id); err != nil {
			log.Fatalf("insert question %q: %v", q.Question, err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		log.Fatalf("commit: %v", err)
	}

	fmt.Printf("Imported %d questions from %s\n", inserted, *csvPath)
}
