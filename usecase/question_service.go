package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hireloop/interview-relay/domain/repositories"
)

const questionPrompt = "Generate 5 technical interview questions based on the following document:\n\n%s"

// QuestionService produces interview questions from candidate documents.
type QuestionService struct {
	generator repositories.TextGenerator
	logger    *zap.Logger
}

func NewQuestionService(generator repositories.TextGenerator, logger *zap.Logger) *QuestionService {
	return &QuestionService{
		generator: generator,
		logger:    logger,
	}
}

// GenerateFromDocument asks the model for questions grounded in the document
// text, one question per returned entry.
func (s *QuestionService) GenerateFromDocument(ctx context.Context, document string) ([]string, error) {
	document = strings.TrimSpace(document)
	if document == "" {
		return nil, errors.New("document text is required")
	}

	raw, err := s.generator.GenerateText(ctx, fmt.Sprintf(questionPrompt, document), repositories.GenerateOptions{})
	if err != nil {
		s.logger.Error("Question generation failed", zap.Error(err))
		return nil, fmt.Errorf("question generation failed: %w", err)
	}

	questions := splitQuestions(raw)
	if len(questions) == 0 {
		return nil, errors.New("model returned no questions")
	}

	s.logger.Info("Generated interview questions", zap.Int("count", len(questions)))
	return questions, nil
}

// splitQuestions breaks model output into one question per line, trimming
// list markers and blank lines.
func splitQuestions(raw string) []string {
	var questions []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "0123456789.-) ")
		if line == "" {
			continue
		}
		questions = append(questions, line)
	}
	return questions
}
