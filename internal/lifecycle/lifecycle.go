// Package lifecycle drives an answer from staged draft to confirmed answer:
// stage -> validate -> persist -> attach documents -> advance. It is the only
// component issuing outbound requests; everything it learns flows back into
// the store through actions.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"checkline/internal/domain"
	"checkline/internal/remote"
	"checkline/internal/settings"
	"checkline/internal/state"
	"checkline/internal/view"
)

// Remote is the slice of the service client the lifecycle needs.
type Remote interface {
	PersistAnswer(ctx context.Context, req remote.PersistRequest) (remote.PersistResult, error)
	UploadDocument(ctx context.Context, req remote.UploadRequest) (domain.Document, error)
	DeleteAnswer(ctx context.Context, answerID string) (remote.DeleteResult, error)
}

// Navigator receives fire-and-forget navigation requests.
type Navigator interface {
	GoTo(questionID string)
}

// Settings reads the interaction settings that steer the lifecycle.
type Settings interface {
	Bool(key string, def bool) bool
}

// Phase is the observable per-question lifecycle state.
type Phase string

const (
	PhaseClean      Phase = "clean"
	PhaseDrafting   Phase = "drafting"
	PhasePersisting Phase = "persisting"
	PhaseSaved      Phase = "saved"
	PhaseError      Phase = "error"
)

// ErrSaveInFlight refuses a second save for a question while one is still
// outstanding. Saves for different questions are independent.
var ErrSaveInFlight = errors.New("a save for this question is already in flight")

// ErrNoDraft means save was called with nothing staged.
var ErrNoDraft = errors.New("no draft staged for question")

// ClientValidationError fails a save before any request goes out.
type ClientValidationError struct {
	QuestionID string
	Messages   []string
}

func (e *ClientValidationError) Error() string {
	return fmt.Sprintf("answer for question %s failed validation: %v", e.QuestionID, e.Messages)
}

// RetractionError is a rejected delete. The answer stays in place and the
// failure must be shown to the user.
type RetractionError struct {
	AnswerID string
	Cause    error
}

func (e *RetractionError) Error() string {
	return fmt.Sprintf("answer %s could not be retracted: %v", e.AnswerID, e.Cause)
}

func (e *RetractionError) Unwrap() error { return e.Cause }

// DocumentError is one failed upload. The parent answer stays persisted.
type DocumentError struct {
	Filename string
	Cause    error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("document %s failed to upload: %v", e.Filename, e.Cause)
}

func (e *DocumentError) Unwrap() error { return e.Cause }

// DocumentErrors aggregates per-document failures of one save.
type DocumentErrors []*DocumentError

func (e DocumentErrors) Error() string {
	return fmt.Sprintf("%d of the answer's documents failed to upload", len(e))
}

// Controller orchestrates the lifecycle for all questions of a session.
type Controller struct {
	Store     *state.Store
	Views     *view.Views
	Remote    Remote
	Navigator Navigator
	Settings  Settings
	// User is the acting user id stamped on persisted answers.
	User string
	// Visibility supplies the current filter configuration so auto-advance
	// computes navigation against the same ordering the UI shows.
	Visibility func() view.Options
	Now        func() time.Time

	inFlight map[string]bool
}

// New wires a controller. Visibility defaults to no filters.
func New(store *state.Store, views *view.Views, rc Remote, nav Navigator, set Settings, user string) *Controller {
	return &Controller{
		Store:      store,
		Views:      views,
		Remote:     rc,
		Navigator:  nav,
		Settings:   set,
		User:       user,
		Visibility: func() view.Options { return view.Options{} },
		Now:        time.Now,
		inFlight:   map[string]bool{},
	}
}

// Edit is one staging step. Nil fields keep the previous draft value; Replace
// overwrites the draft atomically (multiple-choice semantics).
type Edit struct {
	Value     *string
	Comment   *string
	Documents []domain.Document
	Replace   bool
}

// Phase reports where a question sits in the lifecycle.
func (c *Controller) Phase(questionID string) Phase {
	if c.inFlight[questionID] {
		return PhasePersisting
	}
	s := c.Store.State()
	if _, ok := s.Errors[questionID]; ok {
		return PhaseError
	}
	if _, ok := s.Drafts[questionID]; ok {
		return PhaseDrafting
	}
	if s.Answered(questionID) {
		return PhaseSaved
	}
	return PhaseClean
}

// Stage writes or amends the draft for a question. Always synchronous,
// always succeeds for a known question. When the auto-submit setting is on,
// a replacing choice edit chains straight into Save.
func (c *Controller) Stage(ctx context.Context, questionID string, edit Edit) error {
	q, ok := c.Store.State().Questions[questionID]
	if !ok {
		return fmt.Errorf("unknown question %s", questionID)
	}
	if edit.Value != nil {
		cleaned := domain.CleanValue(q.Type, *edit.Value)
		edit.Value = &cleaned
	}
	c.Store.Dispatch(state.StageDraft{
		QuestionID: questionID,
		Value:      edit.Value,
		Comment:    edit.Comment,
		Documents:  edit.Documents,
		Replace:    edit.Replace,
	})
	if edit.Replace && q.Type == domain.TypeMultipleChoice &&
		c.Settings.Bool(settings.KeyAutoSubmit, false) {
		return c.Save(ctx, questionID)
	}
	return nil
}

// Save validates the staged draft and persists it. On success the draft is
// gone, the canonical answer is merged, pending documents are uploaded, and
// any existing error for the question is cleared. On failure the draft stays
// so the user can correct and resubmit.
func (c *Controller) Save(ctx context.Context, questionID string) error {
	st := c.Store.State()
	q, ok := st.Questions[questionID]
	if !ok {
		return fmt.Errorf("unknown question %s", questionID)
	}
	draft, ok := st.Drafts[questionID]
	if !ok {
		return ErrNoDraft
	}
	if c.inFlight[questionID] {
		return ErrSaveInFlight
	}

	autoAdvance := c.Settings.Bool(settings.KeyAutoAdvance, false)
	deferCorrection := c.Settings.Bool(settings.KeyDeferCorrection, false)
	skipAnswered := c.Settings.Bool(settings.KeySkipAnswered, false)

	// The navigation target is computed before the save lands: saving can
	// change which questions are visible, and the next question must come
	// from the ordering the user was looking at.
	var nextID string
	var hasNext bool
	if autoAdvance {
		opts := c.Visibility()
		opts.OpenQuestionID = questionID
		ids := c.Views.VisibleQuestions(st, opts)
		nextID, hasNext = view.NextQuestionID(st, ids, questionID, skipAnswered)
	}

	if msgs := domain.ValidateDraft(q, draft); len(msgs) > 0 {
		c.Store.Dispatch(state.SetError{Err: domain.QuestionError{
			QuestionID: questionID,
			Source:     domain.ErrorClient,
			Messages:   msgs,
		}})
		// Deferred correction: the error stays on the question but the user
		// keeps moving.
		if autoAdvance && deferCorrection && hasNext {
			c.Navigator.GoTo(nextID)
		}
		return &ClientValidationError{QuestionID: questionID, Messages: msgs}
	}

	c.inFlight[questionID] = true
	defer delete(c.inFlight, questionID)

	result, err := c.Remote.PersistAnswer(ctx, remote.PersistRequest{
		Question: questionID,
		User:     c.User,
		Answer:   draft.Value,
		Comment:  draft.Comment,
	})
	if err != nil {
		c.Store.Dispatch(state.SetError{Err: persistError(questionID, err)})
		if autoAdvance && deferCorrection && hasNext {
			c.Navigator.GoTo(nextID)
		}
		return err
	}

	c.Store.Dispatch(state.RemoveError{QuestionID: questionID})
	c.merge(result.Unnested)
	c.Store.Dispatch(state.RemoveDraft{QuestionID: questionID})

	docErrs := c.attachDocuments(ctx, questionID, draft.Documents)

	if autoAdvance && hasNext {
		c.Navigator.GoTo(nextID)
	}
	if len(docErrs) > 0 {
		return docErrs
	}
	return nil
}

// attachDocuments uploads the draft's pending documents against the freshly
// created answer. Each failure is reported on its own; none rolls back the
// persisted answer.
func (c *Controller) attachDocuments(ctx context.Context, questionID string, docs []domain.Document) DocumentErrors {
	if len(docs) == 0 {
		return nil
	}
	answer, ok := c.Store.State().AnswerForQuestion(questionID)
	if !ok {
		errs := make(DocumentErrors, len(docs))
		for i, doc := range docs {
			errs[i] = &DocumentError{Filename: doc.Name, Cause: errors.New("no persisted answer to attach to")}
		}
		return errs
	}
	var errs DocumentErrors
	for _, doc := range docs {
		stored, err := c.Remote.UploadDocument(ctx, remote.UploadRequest{
			DataURL:  doc.RawDataURL,
			Filename: doc.Name,
			AnswerID: answer.ID,
		})
		if err != nil {
			errs = append(errs, &DocumentError{Filename: doc.Name, Cause: err})
			continue
		}
		c.Store.Dispatch(state.AttachDocument{AnswerID: answer.ID, Document: stored})
	}
	return errs
}

// Retract deletes a confirmed answer. On success the answer leaves the store
// and any question availability the service returned is merged. On failure
// the answer stays and the caller gets a RetractionError to surface.
func (c *Controller) Retract(ctx context.Context, answerID string) error {
	result, err := c.Remote.DeleteAnswer(ctx, answerID)
	if err != nil {
		return &RetractionError{AnswerID: answerID, Cause: err}
	}
	c.Store.Dispatch(state.DeleteAnswer{ID: answerID})
	c.merge(result.Unnested)
	return nil
}

// Clear discards the draft without persisting. Always succeeds. A persist
// already in flight for the question is not cancelled; its late response
// merges as given (last-write-wins over server latency).
func (c *Controller) Clear(questionID string) {
	c.Store.Dispatch(state.RemoveDraft{QuestionID: questionID})
}

func (c *Controller) merge(u remote.Unnested) {
	if len(u.Questions) > 0 {
		c.Store.Dispatch(state.ReceiveQuestions{Questions: u.Questions})
	}
	if len(u.Answers) > 0 {
		c.Store.Dispatch(state.ReceiveAnswers{Answers: u.Answers})
	}
	if len(u.RelatedAnswers) > 0 {
		c.Store.Dispatch(state.ReceiveRelatedAnswers{Answers: u.RelatedAnswers})
	}
}

// persistError maps a persist failure onto the error table: structured
// service rejections keep their field messages, everything else becomes a
// generic client-side entry.
func persistError(questionID string, err error) domain.QuestionError {
	var ve *remote.ValidationError
	if errors.As(err, &ve) {
		return domain.QuestionError{
			QuestionID: questionID,
			Source:     domain.ErrorServer,
			Messages:   ve.Messages(),
		}
	}
	return domain.QuestionError{
		QuestionID: questionID,
		Source:     domain.ErrorClient,
		Messages:   []string{"answer could not be saved"},
	}
}
