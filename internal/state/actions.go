package state

import "checkline/internal/domain"

// Action is the closed set of store transitions. Apply ignores values outside
// this file's types, leaving the state unchanged.
type Action interface{ isAction() }

// ReceiveQuestions merges questions by id, overwriting changed fields whole.
type ReceiveQuestions struct{ Questions []domain.Question }

// ReceiveAnswers merges confirmed answers by id. A question keeps at most one
// answer: an incoming answer displaces any previous answer of its question.
type ReceiveAnswers struct{ Answers []domain.Answer }

// ReceiveRelatedAnswers merges the other role's answers by id.
type ReceiveRelatedAnswers struct{ Answers []domain.Answer }

// ReceivePrograms, ReceiveChecklists and ReceiveSections populate the
// structural tables from discovery.
type ReceivePrograms struct{ Programs []domain.Program }
type ReceiveChecklists struct{ Checklists []domain.Checklist }
type ReceiveSections struct{ Sections []domain.Section }

// DeleteAnswer removes a confirmed answer (retraction) and unlinks it from
// its question.
type DeleteAnswer struct{ ID string }

// AttachDocument appends a stored document to an answer's document list.
// Append-only and order-preserving.
type AttachDocument struct {
	AnswerID string
	Document domain.Document
}

// StageDraft writes the draft for a question. With Replace the draft is
// overwritten atomically; otherwise set fields merge into the existing draft,
// unset fields keep their previous value and documents append.
type StageDraft struct {
	QuestionID string
	Value      *string
	Comment    *string
	Documents  []domain.Document
	Replace    bool
}

// RemoveDraft discards the staged answer of a question.
type RemoveDraft struct{ QuestionID string }

// SetError records validation messages for a question; RemoveError clears
// them (done on the next successful persist).
type SetError struct{ Err domain.QuestionError }
type RemoveError struct{ QuestionID string }

// ClearEntities atomically empties every entity table. Non-entity state such
// as the configured program id list lives outside the store and is untouched.
type ClearEntities struct{}

func (ReceiveQuestions) isAction()      {}
func (ReceiveAnswers) isAction()        {}
func (ReceiveRelatedAnswers) isAction() {}
func (ReceivePrograms) isAction()       {}
func (ReceiveChecklists) isAction()     {}
func (ReceiveSections) isAction()       {}
func (DeleteAnswer) isAction()          {}
func (AttachDocument) isAction()        {}
func (StageDraft) isAction()            {}
func (RemoveDraft) isAction()           {}
func (SetError) isAction()              {}
func (RemoveError) isAction()           {}
func (ClearEntities) isAction()         {}
