package state

import (
	"maps"
	"slices"

	"checkline/internal/domain"
)

// Apply transitions the store. Pure and total: no I/O, unknown actions return
// the state unchanged. Every table an action touches is reallocated and every
// stored value is detached from the action payload, so callers may rely on
// reference comparison of tables and may reuse payload slices freely.
func Apply(s State, action Action) State {
	switch a := action.(type) {
	case ReceiveQuestions:
		next := s
		next.Questions = maps.Clone(s.Questions)
		for _, q := range a.Questions {
			q.Choices = slices.Clone(q.Choices)
			next.Questions[q.ID] = q
		}
		return next

	case ReceiveAnswers:
		next := s
		next.Answers = maps.Clone(s.Answers)
		for _, in := range a.Answers {
			in.Documents = cloneDocuments(in.Documents)
			// One answer per question: displace a stale answer of the same
			// question before merging.
			for id, existing := range next.Answers {
				if existing.QuestionID == in.QuestionID && id != in.ID {
					delete(next.Answers, id)
				}
			}
			next.Answers[in.ID] = in
		}
		return next

	case ReceiveRelatedAnswers:
		next := s
		next.RelatedAnswers = maps.Clone(s.RelatedAnswers)
		for _, in := range a.Answers {
			in.Documents = cloneDocuments(in.Documents)
			for id, existing := range next.RelatedAnswers {
				if existing.QuestionID == in.QuestionID && id != in.ID {
					delete(next.RelatedAnswers, id)
				}
			}
			next.RelatedAnswers[in.ID] = in
		}
		return next

	case ReceivePrograms:
		next := s
		next.Programs = maps.Clone(s.Programs)
		for _, p := range a.Programs {
			p.ChecklistIDs = slices.Clone(p.ChecklistIDs)
			next.Programs[p.ID] = p
		}
		return next

	case ReceiveChecklists:
		next := s
		next.Checklists = maps.Clone(s.Checklists)
		for _, c := range a.Checklists {
			c.QuestionIDs = slices.Clone(c.QuestionIDs)
			next.Checklists[c.ID] = c
		}
		return next

	case ReceiveSections:
		next := s
		next.Sections = maps.Clone(s.Sections)
		for _, sec := range a.Sections {
			sec.QuestionIDs = slices.Clone(sec.QuestionIDs)
			next.Sections[sec.ID] = sec
		}
		return next

	case DeleteAnswer:
		answer, ok := s.Answers[a.ID]
		if !ok {
			return s
		}
		next := s
		next.Answers = maps.Clone(s.Answers)
		delete(next.Answers, a.ID)
		if q, ok := s.Questions[answer.QuestionID]; ok && q.AnswerID == a.ID {
			next.Questions = maps.Clone(s.Questions)
			q.AnswerID = ""
			next.Questions[q.ID] = q
		}
		return next

	case AttachDocument:
		answer, ok := s.Answers[a.AnswerID]
		if !ok {
			return s
		}
		next := s
		next.Answers = maps.Clone(s.Answers)
		docs := make([]domain.Document, 0, len(answer.Documents)+1)
		docs = append(docs, answer.Documents...)
		docs = append(docs, a.Document)
		answer.Documents = docs
		next.Answers[a.AnswerID] = answer
		return next

	case StageDraft:
		next := s
		next.Drafts = maps.Clone(s.Drafts)
		draft := domain.DraftAnswer{QuestionID: a.QuestionID}
		if prev, ok := s.Drafts[a.QuestionID]; ok && !a.Replace {
			draft = prev
			draft.Documents = cloneDocuments(prev.Documents)
		}
		if a.Value != nil {
			draft.Value = *a.Value
		}
		if a.Comment != nil {
			draft.Comment = *a.Comment
		}
		if a.Replace {
			draft.Value = deref(a.Value)
			draft.Comment = deref(a.Comment)
			draft.Documents = cloneDocuments(a.Documents)
		} else if len(a.Documents) > 0 {
			draft.Documents = append(draft.Documents, cloneDocuments(a.Documents)...)
		}
		next.Drafts[a.QuestionID] = draft
		return next

	case RemoveDraft:
		if _, ok := s.Drafts[a.QuestionID]; !ok {
			return s
		}
		next := s
		next.Drafts = maps.Clone(s.Drafts)
		delete(next.Drafts, a.QuestionID)
		return next

	case SetError:
		next := s
		next.Errors = maps.Clone(s.Errors)
		err := a.Err
		err.Messages = slices.Clone(err.Messages)
		next.Errors[err.QuestionID] = err
		return next

	case RemoveError:
		if _, ok := s.Errors[a.QuestionID]; !ok {
			return s
		}
		next := s
		next.Errors = maps.Clone(s.Errors)
		delete(next.Errors, a.QuestionID)
		return next

	case ClearEntities:
		return Empty()

	default:
		return s
	}
}

func cloneDocuments(docs []domain.Document) []domain.Document {
	if docs == nil {
		return nil
	}
	return slices.Clone(docs)
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
