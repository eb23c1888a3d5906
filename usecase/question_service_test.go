package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/hireloop/interview-relay/adapters/llm"
)

func TestQuestionService_GenerateFromDocument(t *testing.T) {
	generator := llm.NewMockGenerator()
	generator.Reply = "1. What is a goroutine?\n2. Explain channels.\n\n3. How does the scheduler work?"
	service := NewQuestionService(generator, zaptest.NewLogger(t))

	questions, err := service.GenerateFromDocument(context.Background(), "Resume: five years of Go backend work.")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	want := []string{"What is a goroutine?", "Explain channels.", "How does the scheduler work?"}
	if len(questions) != len(want) {
		t.Fatalf("got %d questions %v, want %d", len(questions), questions, len(want))
	}
	for i := range want {
		if questions[i] != want[i] {
			t.Errorf("question %d = %q, want %q", i, questions[i], want[i])
		}
	}

	prompts := generator.Prompts()
	if len(prompts) != 1 || !strings.Contains(prompts[0], "five years of Go backend work") {
		t.Errorf("prompts = %v, want the document embedded", prompts)
	}
}

func TestQuestionService_EmptyDocument(t *testing.T) {
	service := NewQuestionService(llm.NewMockGenerator(), zaptest.NewLogger(t))
	if _, err := service.GenerateFromDocument(context.Background(), "   "); err == nil {
		t.Error("expected error for empty document")
	}
}

func TestQuestionService_GeneratorFailure(t *testing.T) {
	generator := llm.NewMockGenerator()
	generator.Err = errors.New("quota exceeded")
	service := NewQuestionService(generator, zaptest.NewLogger(t))

	if _, err := service.GenerateFromDocument(context.Background(), "doc"); err == nil {
		t.Error("expected error when generation fails")
	}
}

func TestQuestionService_BlankModelOutput(t *testing.T) {
	generator := llm.NewMockGenerator()
	generator.Reply = "\n\n   \n"
	service := NewQuestionService(generator, zaptest.NewLogger(t))

	if _, err := service.GenerateFromDocument(context.Background(), "doc"); err == nil {
		t.Error("expected error when model returns no questions")
	}
}
