package view

import (
	"checkline/internal/domain"
	"checkline/internal/state"
)

// ColorClass derives the display class for a question. Precedence is fixed:
// read-only wins over the QA comparison, which wins over plain answered.
func ColorClass(s state.State, questionID string, coloringEnabled bool) domain.ColorClass {
	q, ok := s.Questions[questionID]
	if !ok {
		return domain.ColorNone
	}
	if q.ReadOnly {
		return domain.ColorLocked
	}
	own, hasOwn := s.AnswerForQuestion(questionID)
	if coloringEnabled {
		if related, ok := s.RelatedAnswerForQuestion(questionID); ok {
			switch {
			case !hasOwn:
				return domain.ColorInfo
			case own.Value == related.Value:
				return domain.ColorSuccess
			default:
				return domain.ColorDanger
			}
		}
	}
	if hasOwn {
		return domain.ColorAnswered
	}
	return domain.ColorNone
}
