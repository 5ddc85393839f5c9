// Package state holds the normalized entity tables and the pure reducers that
// transition them. Nothing outside Apply writes these tables; derived views
// and resolvers only read them.
package state

import (
	"checkline/internal/domain"
)

// State is the composite of all entity tables. Answers and RelatedAnswers are
// keyed by answer id, Drafts and Errors by question id, everything else by its
// own id. A State value is treated as immutable: Apply returns a new State
// with fresh copies of every table it touches.
type State struct {
	Questions      map[string]domain.Question
	Answers        map[string]domain.Answer
	RelatedAnswers map[string]domain.Answer
	Drafts         map[string]domain.DraftAnswer
	Errors         map[string]domain.QuestionError
	Programs       map[string]domain.Program
	Checklists     map[string]domain.Checklist
	Sections       map[string]domain.Section
}

// Empty returns a State with all tables allocated and empty.
func Empty() State {
	return State{
		Questions:      map[string]domain.Question{},
		Answers:        map[string]domain.Answer{},
		RelatedAnswers: map[string]domain.Answer{},
		Drafts:         map[string]domain.DraftAnswer{},
		Errors:         map[string]domain.QuestionError{},
		Programs:       map[string]domain.Program{},
		Checklists:     map[string]domain.Checklist{},
		Sections:       map[string]domain.Section{},
	}
}

// AnswerForQuestion resolves a question's own answer, if any.
func (s State) AnswerForQuestion(questionID string) (domain.Answer, bool) {
	q, ok := s.Questions[questionID]
	if !ok || q.AnswerID == "" {
		return domain.Answer{}, false
	}
	a, ok := s.Answers[q.AnswerID]
	return a, ok
}

// RelatedAnswerForQuestion resolves the other role's answer, if any.
func (s State) RelatedAnswerForQuestion(questionID string) (domain.Answer, bool) {
	q, ok := s.Questions[questionID]
	if !ok || q.RelatedAnswerID == "" {
		return domain.Answer{}, false
	}
	a, ok := s.RelatedAnswers[q.RelatedAnswerID]
	return a, ok
}

// Answered reports whether the question has a confirmed answer.
func (s State) Answered(questionID string) bool {
	_, ok := s.AnswerForQuestion(questionID)
	return ok
}
