package state

import (
	"testing"

	"checkline/internal/domain"
)

func strptr(v string) *string { return &v }

func TestReceiveAnswersDisplacesStaleAnswer(t *testing.T) {
	s := Empty()
	s = Apply(s, ReceiveQuestions{Questions: []domain.Question{{ID: "q-1"}}})
	s = Apply(s, ReceiveAnswers{Answers: []domain.Answer{{ID: "a-1", QuestionID: "q-1", Value: "old"}}})
	s = Apply(s, ReceiveAnswers{Answers: []domain.Answer{{ID: "a-2", QuestionID: "q-1", Value: "new"}}})

	if _, ok := s.Answers["a-1"]; ok {
		t.Fatalf("stale answer a-1 still present")
	}
	a, ok := s.Answers["a-2"]
	if !ok || a.Value != "new" {
		t.Fatalf("expected a-2 with value new, got %+v (ok=%v)", a, ok)
	}
}

func TestDeleteAnswerUnlinksQuestion(t *testing.T) {
	s := Empty()
	s = Apply(s, ReceiveQuestions{Questions: []domain.Question{{ID: "q-1", AnswerID: "a-1"}}})
	s = Apply(s, ReceiveAnswers{Answers: []domain.Answer{{ID: "a-1", QuestionID: "q-1", Value: "42"}}})
	s = Apply(s, DeleteAnswer{ID: "a-1"})

	if _, ok := s.Answers["a-1"]; ok {
		t.Fatalf("answer survived deletion")
	}
	if got := s.Questions["q-1"].AnswerID; got != "" {
		t.Fatalf("question still links answer %q", got)
	}
	if s.Answered("q-1") {
		t.Fatalf("question still counts as answered")
	}
}

func TestDeleteUnknownAnswerIsNoop(t *testing.T) {
	s := Empty()
	s = Apply(s, ReceiveAnswers{Answers: []domain.Answer{{ID: "a-1", QuestionID: "q-1"}}})
	next := Apply(s, DeleteAnswer{ID: "nope"})
	if len(next.Answers) != 1 {
		t.Fatalf("expected untouched answers, got %d", len(next.Answers))
	}
}

func TestStageDraftMergesFields(t *testing.T) {
	s := Empty()
	s = Apply(s, StageDraft{QuestionID: "q-1", Value: strptr("120000")})
	s = Apply(s, StageDraft{QuestionID: "q-1", Comment: strptr("odometer photo attached")})

	d := s.Drafts["q-1"]
	if d.Value != "120000" {
		t.Fatalf("merge lost value: %+v", d)
	}
	if d.Comment != "odometer photo attached" {
		t.Fatalf("merge lost comment: %+v", d)
	}
}

func TestStageDraftReplaceOverwritesWhole(t *testing.T) {
	s := Empty()
	s = Apply(s, StageDraft{QuestionID: "q-1", Value: strptr("scratched"), Comment: strptr("left door")})
	s = Apply(s, StageDraft{QuestionID: "q-1", Value: strptr("ok"), Replace: true})

	d := s.Drafts["q-1"]
	if d.Value != "ok" || d.Comment != "" || d.Documents != nil {
		t.Fatalf("replace kept stale fields: %+v", d)
	}
}

func TestStageDraftAppendsDocuments(t *testing.T) {
	s := Empty()
	s = Apply(s, StageDraft{QuestionID: "q-1", Documents: []domain.Document{{Name: "one.jpg"}}})
	s = Apply(s, StageDraft{QuestionID: "q-1", Documents: []domain.Document{{Name: "two.jpg"}}})

	d := s.Drafts["q-1"]
	if len(d.Documents) != 2 || d.Documents[0].Name != "one.jpg" || d.Documents[1].Name != "two.jpg" {
		t.Fatalf("documents not appended in order: %+v", d.Documents)
	}
}

func TestAttachDocumentPreservesOrder(t *testing.T) {
	s := Empty()
	s = Apply(s, ReceiveAnswers{Answers: []domain.Answer{{ID: "a-1", QuestionID: "q-1"}}})
	s = Apply(s, AttachDocument{AnswerID: "a-1", Document: domain.Document{ID: "d-1", Name: "front.jpg"}})
	s = Apply(s, AttachDocument{AnswerID: "a-1", Document: domain.Document{ID: "d-2", Name: "back.jpg"}})

	docs := s.Answers["a-1"].Documents
	if len(docs) != 2 || docs[0].ID != "d-1" || docs[1].ID != "d-2" {
		t.Fatalf("unexpected document order: %+v", docs)
	}
}

func TestApplyDetachesPayload(t *testing.T) {
	s := Empty()
	qs := []domain.Question{{ID: "q-1", Choices: []domain.Choice{{Value: "ok"}}}}
	s = Apply(s, ReceiveQuestions{Questions: qs})

	qs[0].Choices[0].Value = "mutated"
	if s.Questions["q-1"].Choices[0].Value != "ok" {
		t.Fatalf("stored question shares memory with the action payload")
	}

	docs := []domain.Document{{Name: "a.jpg"}}
	s = Apply(s, StageDraft{QuestionID: "q-1", Documents: docs})
	docs[0].Name = "mutated"
	if s.Drafts["q-1"].Documents[0].Name != "a.jpg" {
		t.Fatalf("stored draft shares memory with the action payload")
	}
}

func TestApplyLeavesPriorStateUntouched(t *testing.T) {
	before := Empty()
	before = Apply(before, ReceiveAnswers{Answers: []domain.Answer{{ID: "a-1", QuestionID: "q-1", Value: "old"}}})
	after := Apply(before, ReceiveAnswers{Answers: []domain.Answer{{ID: "a-2", QuestionID: "q-1", Value: "new"}}})

	if before.Answers["a-1"].Value != "old" {
		t.Fatalf("prior state mutated")
	}
	if _, ok := after.Answers["a-1"]; ok {
		t.Fatalf("next state kept displaced answer")
	}
}

func TestClearEntitiesEmptiesEverything(t *testing.T) {
	s := Empty()
	s = Apply(s, ReceiveQuestions{Questions: []domain.Question{{ID: "q-1"}}})
	s = Apply(s, ReceiveAnswers{Answers: []domain.Answer{{ID: "a-1", QuestionID: "q-1"}}})
	s = Apply(s, ReceivePrograms{Programs: []domain.Program{{ID: "p-1"}}})
	s = Apply(s, StageDraft{QuestionID: "q-1", Value: strptr("x")})
	s = Apply(s, SetError{Err: domain.QuestionError{QuestionID: "q-1", Messages: []string{"bad"}}})

	s = Apply(s, ClearEntities{})
	if len(s.Questions)+len(s.Answers)+len(s.Programs)+len(s.Drafts)+len(s.Errors) != 0 {
		t.Fatalf("clear left data behind: %+v", s)
	}

	// clearing twice is the same as clearing once
	again := Apply(s, ClearEntities{})
	if len(again.Questions) != 0 {
		t.Fatalf("second clear misbehaved")
	}
}

func TestSetAndRemoveError(t *testing.T) {
	s := Empty()
	s = Apply(s, SetError{Err: domain.QuestionError{QuestionID: "q-1", Source: domain.ErrorClient, Messages: []string{"answer is required"}}})
	if qe, ok := s.Errors["q-1"]; !ok || len(qe.Messages) != 1 {
		t.Fatalf("error not recorded: %+v", s.Errors)
	}
	s = Apply(s, RemoveError{QuestionID: "q-1"})
	if _, ok := s.Errors["q-1"]; ok {
		t.Fatalf("error not cleared")
	}
}

func TestStoreDispatchSnapshots(t *testing.T) {
	st := NewStore()
	st.Dispatch(ReceiveQuestions{Questions: []domain.Question{{ID: "q-1"}}})
	snap := st.State()
	st.Dispatch(ReceiveQuestions{Questions: []domain.Question{{ID: "q-2"}}})
	if len(snap.Questions) != 1 {
		t.Fatalf("snapshot changed after later dispatch")
	}
	if len(st.State().Questions) != 2 {
		t.Fatalf("store lost a dispatch")
	}
}
