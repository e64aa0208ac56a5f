package models

import "time"

type Question struct {
	ID            int    `json:"id"`
	Question      string `json:"question"`
	OptionA       string `json:"optionA"`
	OptionB       string `json:"optionB"`
	OptionC       string `json:"optionC"`
	OptionD       string `json:"optionD"`
	CorrectOption string `json:"correctOption"`
}

type Quiz struct {
	ID        int        `json:"id"`
	Day       int        `json:"day"`
	Week      int        `json:"week"`
	Month     int        `json:"month"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
	Questions []Question `json:"questions,omitempty"`
}

type QuizSession struct {
	ID        int       `json:"id"`
	UserID    int       `json:"userId"`
	QuizID    int       `json:"quizId"`
	Score     int64     `json:"score"`
	Timestamp time.Time `json:"timestamp"`
}
