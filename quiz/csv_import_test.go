package quiz

import (
	"strings"
	"testing"
)

func TestParseQuestionsCSVSuccess(t *testing.T) {
	csvData := "question,option_a,option_b,option_c,option_d,correct_option\n" +
		"Who built the ark?,Noah,Moses,David,Paul,A\n" +
		"How many days did creation take?,Five,Six,Seven,Eight,b\n"

	questions, err := ParseQuestionsCSV(strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("expected parse to succeed, got error: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}
	if questions[0].Question != "Who built the ark?" || questions[0].CorrectOption != "A" {
		t.Fatalf("unexpected first row parsed: %+v", questions[0])
	}
	if questions[1].CorrectOption != "B" {
		t.Fatalf("expected lowercase correct option to normalize to B, got %q", questions[1].CorrectOption)
	}
}

func TestParseQuestionsCSVMissingRequiredColumn(t *testing.T) {
	csvData := "question,option_a,option_b,correct_option\nQ,1,2,A\n"

	if _, err := ParseQuestionsCSV(strings.NewReader(csvData)); err == nil {
		t.Fatal("expected missing required column error, got nil")
	}
}

func TestParseQuestionsCSVRejectsBadCorrectOption(t *testing.T) {
	csvData := "question,option_a,option_b,option_c,option_d,correct_option\n" +
		"Q,1,2,3,4,E\n"

	_, err := ParseQuestionsCSV(strings.NewReader(csvData))
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("expected line-numbered correct_option error, got %v", err)
	}
}

func TestParseQuestionsCSVRejectsEmptyOption(t *testing.T) {
	csvData := "question,option_a,option_b,option_c,option_d,correct_option\n" +
		"Q,1,,3,4,A\n"

	if _, err := ParseQuestionsCSV(strings.NewReader(csvData)); err == nil {
		t.Fatal("expected error for empty option cell, got nil")
	}
}
