package lifecycle

import (
	"context"
	"errors"
	"strings"
	"testing"

	"checkline/internal/domain"
	"checkline/internal/remote"
	"checkline/internal/state"
	"checkline/internal/view"
)

// stubRemote echoes persisted answers back as the service would: the
// question returned carries the created answer nested.
type stubRemote struct {
	persistErr error
	uploadErr  map[string]error // by filename
	deleteErr  error
	persisted  []remote.PersistRequest
	uploaded   []remote.UploadRequest
	// onPersist runs inside PersistAnswer, before the response, to model
	// things happening while the request is on the wire.
	onPersist func()
}

func (r *stubRemote) PersistAnswer(ctx context.Context, req remote.PersistRequest) (remote.PersistResult, error) {
	if r.onPersist != nil {
		r.onPersist()
	}
	if r.persistErr != nil {
		return remote.PersistResult{}, r.persistErr
	}
	r.persisted = append(r.persisted, req)
	answerID := "srv-" + req.Question
	return remote.PersistResult{Unnested: remote.Unnested{
		Questions: []domain.Question{{ID: req.Question, Type: domain.TypeOpen, ConditionMet: true, AnswerID: answerID}},
		Answers:   []domain.Answer{{ID: answerID, QuestionID: req.Question, Value: req.Answer, Comment: req.Comment}},
	}}, nil
}

func (r *stubRemote) UploadDocument(ctx context.Context, req remote.UploadRequest) (domain.Document, error) {
	if err := r.uploadErr[req.Filename]; err != nil {
		return domain.Document{}, err
	}
	r.uploaded = append(r.uploaded, req)
	return domain.Document{ID: "doc-" + req.Filename, Name: req.Filename}, nil
}

func (r *stubRemote) DeleteAnswer(ctx context.Context, answerID string) (remote.DeleteResult, error) {
	if r.deleteErr != nil {
		return remote.DeleteResult{}, r.deleteErr
	}
	return remote.DeleteResult{}, nil
}

type stubNavigator struct{ visited []string }

func (n *stubNavigator) GoTo(id string) { n.visited = append(n.visited, id) }

type stubSettings map[string]bool

func (s stubSettings) Bool(key string, def bool) bool {
	if v, ok := s[key]; ok {
		return v
	}
	return def
}

type testEnv struct {
	Controller *Controller
	Remote     *stubRemote
	Navigator  *stubNavigator
	Settings   stubSettings
	Ctx        context.Context
}

func newTestEnv(t *testing.T, questions ...domain.Question) testEnv {
	t.Helper()
	store := state.NewStore()
	if len(questions) == 0 {
		questions = []domain.Question{{ID: "q-1", Type: domain.TypeOpen, ConditionMet: true}}
	}
	store.Dispatch(state.ReceiveQuestions{Questions: questions})
	rc := &stubRemote{}
	nav := &stubNavigator{}
	set := stubSettings{}
	ctl := New(store, &view.Views{}, rc, nav, set, "tester")
	return testEnv{Controller: ctl, Remote: rc, Navigator: nav, Settings: set, Ctx: context.Background()}
}

func strptr(v string) *string { return &v }

func TestSaveRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	if err := env.Controller.Stage(env.Ctx, "q-1", Edit{Value: strptr("  120000 ")}); err != nil {
		t.Fatalf("stage: %v", err)
	}
	if got := env.Controller.Phase("q-1"); got != PhaseDrafting {
		t.Fatalf("phase after stage = %s", got)
	}
	if err := env.Controller.Save(env.Ctx, "q-1"); err != nil {
		t.Fatalf("save: %v", err)
	}

	st := env.Controller.Store.State()
	if _, ok := st.Drafts["q-1"]; ok {
		t.Fatalf("draft survived a successful save")
	}
	a, ok := st.AnswerForQuestion("q-1")
	if !ok || a.Value != "120000" {
		t.Fatalf("answer = %+v, %v; open values are trimmed on stage", a, ok)
	}
	if _, ok := st.Errors["q-1"]; ok {
		t.Fatalf("error recorded on success")
	}
	if got := env.Controller.Phase("q-1"); got != PhaseSaved {
		t.Fatalf("phase after save = %s", got)
	}
}

func TestSaveWithoutDraft(t *testing.T) {
	env := newTestEnv(t)
	if err := env.Controller.Save(env.Ctx, "q-1"); !errors.Is(err, ErrNoDraft) {
		t.Fatalf("expected ErrNoDraft, got %v", err)
	}
}

func TestClientValidationKeepsDraft(t *testing.T) {
	q := domain.Question{ID: "q-1", Type: domain.TypeMultipleChoice, ConditionMet: true,
		Choices: []domain.Choice{{Value: "scratched", Label: "scratched", RequiresComment: true}}}
	env := newTestEnv(t, q)
	if err := env.Controller.Stage(env.Ctx, "q-1", Edit{Value: strptr("scratched")}); err != nil {
		t.Fatalf("stage: %v", err)
	}
	err := env.Controller.Save(env.Ctx, "q-1")
	var cve *ClientValidationError
	if !errors.As(err, &cve) {
		t.Fatalf("expected ClientValidationError, got %v", err)
	}
	if len(cve.Messages) != 1 || !strings.Contains(cve.Messages[0], "requires a comment") {
		t.Fatalf("messages = %v", cve.Messages)
	}

	st := env.Controller.Store.State()
	if _, ok := st.Drafts["q-1"]; !ok {
		t.Fatalf("draft dropped on a rejected save")
	}
	qe, ok := st.Errors["q-1"]
	if !ok || qe.Source != domain.ErrorClient {
		t.Fatalf("error entry = %+v, %v", qe, ok)
	}
	if len(env.Remote.persisted) != 0 {
		t.Fatalf("invalid draft reached the service")
	}
	if got := env.Controller.Phase("q-1"); got != PhaseError {
		t.Fatalf("phase = %s", got)
	}

	// correcting the draft and resaving clears the error
	if err := env.Controller.Stage(env.Ctx, "q-1", Edit{Comment: strptr("left door, 3cm")}); err != nil {
		t.Fatalf("restage: %v", err)
	}
	if err := env.Controller.Save(env.Ctx, "q-1"); err != nil {
		t.Fatalf("resave: %v", err)
	}
	if _, ok := env.Controller.Store.State().Errors["q-1"]; ok {
		t.Fatalf("error not cleared by the successful persist")
	}
}

func TestDeferredCorrectionNavigation(t *testing.T) {
	q1 := domain.Question{ID: "q-1", Type: domain.TypeMultipleChoice, ConditionMet: true,
		Choices: []domain.Choice{{Value: "bad", Label: "bad", RequiresComment: true}}}
	q2 := domain.Question{ID: "q-2", Type: domain.TypeOpen, ConditionMet: true, Priority: 1}

	env := newTestEnv(t, q1, q2)
	env.Settings["auto_advance"] = true
	env.Settings["defer_correction"] = true
	_ = env.Controller.Stage(env.Ctx, "q-1", Edit{Value: strptr("bad")})
	if err := env.Controller.Save(env.Ctx, "q-1"); err == nil {
		t.Fatalf("expected validation error")
	}
	if len(env.Navigator.visited) != 1 || env.Navigator.visited[0] != "q-2" {
		t.Fatalf("deferred correction did not advance: %v", env.Navigator.visited)
	}

	// without defer_correction a failed save must not move the cursor
	env2 := newTestEnv(t, q1, q2)
	env2.Settings["auto_advance"] = true
	_ = env2.Controller.Stage(env2.Ctx, "q-1", Edit{Value: strptr("bad")})
	_ = env2.Controller.Save(env2.Ctx, "q-1")
	if len(env2.Navigator.visited) != 0 {
		t.Fatalf("failed save advanced without defer_correction: %v", env2.Navigator.visited)
	}
}

func TestAutoAdvanceTargetComputedBeforeSave(t *testing.T) {
	q1 := domain.Question{ID: "q-1", Type: domain.TypeOpen, ConditionMet: true}
	q2 := domain.Question{ID: "q-2", Type: domain.TypeOpen, ConditionMet: true, Priority: 1}
	env := newTestEnv(t, q1, q2)
	env.Settings["auto_advance"] = true
	_ = env.Controller.Stage(env.Ctx, "q-1", Edit{Value: strptr("x")})
	if err := env.Controller.Save(env.Ctx, "q-1"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(env.Navigator.visited) != 1 || env.Navigator.visited[0] != "q-2" {
		t.Fatalf("advance = %v", env.Navigator.visited)
	}
}

func TestServerRejectionRecordsFieldMessages(t *testing.T) {
	env := newTestEnv(t)
	env.Remote.persistErr = &remote.ValidationError{
		Message: "answer rejected",
		Fields:  map[string][]string{"comment": {"a comment is required"}},
	}
	_ = env.Controller.Stage(env.Ctx, "q-1", Edit{Value: strptr("x")})
	err := env.Controller.Save(env.Ctx, "q-1")
	var ve *remote.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected the validation error back, got %v", err)
	}

	st := env.Controller.Store.State()
	qe, ok := st.Errors["q-1"]
	if !ok || qe.Source != domain.ErrorServer {
		t.Fatalf("error entry = %+v, %v", qe, ok)
	}
	if len(qe.Messages) != 1 || qe.Messages[0] != "comment: a comment is required" {
		t.Fatalf("messages = %v", qe.Messages)
	}
	if _, ok := st.Drafts["q-1"]; !ok {
		t.Fatalf("draft dropped on server rejection")
	}
}

func TestMalformedFailureRecordsGenericMessage(t *testing.T) {
	env := newTestEnv(t)
	env.Remote.persistErr = errors.New("connection reset")
	_ = env.Controller.Stage(env.Ctx, "q-1", Edit{Value: strptr("x")})
	if err := env.Controller.Save(env.Ctx, "q-1"); err == nil {
		t.Fatalf("expected failure")
	}
	qe := env.Controller.Store.State().Errors["q-1"]
	if len(qe.Messages) != 1 || qe.Messages[0] != "answer could not be saved" {
		t.Fatalf("messages = %v", qe.Messages)
	}
}

func TestSaveInFlightRefusesSecondSave(t *testing.T) {
	env := newTestEnv(t)
	var inner error
	env.Remote.onPersist = func() {
		inner = env.Controller.Save(env.Ctx, "q-1")
	}
	_ = env.Controller.Stage(env.Ctx, "q-1", Edit{Value: strptr("x")})
	if err := env.Controller.Save(env.Ctx, "q-1"); err != nil {
		t.Fatalf("outer save: %v", err)
	}
	if !errors.Is(inner, ErrSaveInFlight) {
		t.Fatalf("inner save = %v, want ErrSaveInFlight", inner)
	}
}

func TestLatePersistAfterClearWins(t *testing.T) {
	env := newTestEnv(t)
	env.Remote.onPersist = func() {
		// the user clears the field while the request is on the wire
		env.Controller.Clear("q-1")
	}
	_ = env.Controller.Stage(env.Ctx, "q-1", Edit{Value: strptr("late")})
	if err := env.Controller.Save(env.Ctx, "q-1"); err != nil {
		t.Fatalf("save: %v", err)
	}
	st := env.Controller.Store.State()
	a, ok := st.AnswerForQuestion("q-1")
	if !ok || a.Value != "late" {
		t.Fatalf("late response not merged: %+v, %v", a, ok)
	}
	if _, ok := st.Drafts["q-1"]; ok {
		t.Fatalf("draft present after clear and save")
	}
}

func TestAutoSubmitChainsChoiceStage(t *testing.T) {
	q := domain.Question{ID: "q-1", Type: domain.TypeMultipleChoice, ConditionMet: true,
		Choices: []domain.Choice{{Value: "ok", Label: "ok"}}}
	env := newTestEnv(t, q)
	env.Settings["auto_submit_choice"] = true
	if err := env.Controller.Stage(env.Ctx, "q-1", Edit{Value: strptr("ok"), Replace: true}); err != nil {
		t.Fatalf("stage: %v", err)
	}
	if len(env.Remote.persisted) != 1 {
		t.Fatalf("replacing choice edit did not chain into save")
	}

	// a merging (non-replace) edit never auto-submits
	env2 := newTestEnv(t, q)
	env2.Settings["auto_submit_choice"] = true
	_ = env2.Controller.Stage(env2.Ctx, "q-1", Edit{Value: strptr("ok")})
	if len(env2.Remote.persisted) != 0 {
		t.Fatalf("merging edit auto-submitted")
	}
}

func TestPartialDocumentUpload(t *testing.T) {
	env := newTestEnv(t)
	env.Remote.uploadErr = map[string]error{"broken.jpg": errors.New("too large")}
	_ = env.Controller.Stage(env.Ctx, "q-1", Edit{
		Value: strptr("x"),
		Documents: []domain.Document{
			{Name: "front.jpg", RawDataURL: "data:image/jpeg;base64,AA==", Image: true},
			{Name: "broken.jpg", RawDataURL: "data:image/jpeg;base64,BB==", Image: true},
		},
	})
	err := env.Controller.Save(env.Ctx, "q-1")
	var docErrs DocumentErrors
	if !errors.As(err, &docErrs) {
		t.Fatalf("expected DocumentErrors, got %v", err)
	}
	if len(docErrs) != 1 || docErrs[0].Filename != "broken.jpg" {
		t.Fatalf("doc errors = %v", docErrs)
	}

	// the answer and the successful document both landed
	st := env.Controller.Store.State()
	a, ok := st.AnswerForQuestion("q-1")
	if !ok {
		t.Fatalf("answer missing after partial upload")
	}
	if len(a.Documents) != 1 || a.Documents[0].Name != "front.jpg" {
		t.Fatalf("attached documents = %+v", a.Documents)
	}
}

func TestRetract(t *testing.T) {
	env := newTestEnv(t)
	_ = env.Controller.Stage(env.Ctx, "q-1", Edit{Value: strptr("x")})
	if err := env.Controller.Save(env.Ctx, "q-1"); err != nil {
		t.Fatalf("save: %v", err)
	}
	a, _ := env.Controller.Store.State().AnswerForQuestion("q-1")

	env.Remote.deleteErr = errors.New("locked")
	err := env.Controller.Retract(env.Ctx, a.ID)
	var re *RetractionError
	if !errors.As(err, &re) || re.AnswerID != a.ID {
		t.Fatalf("expected RetractionError for %s, got %v", a.ID, err)
	}
	if !env.Controller.Store.State().Answered("q-1") {
		t.Fatalf("failed retraction removed the answer")
	}

	env.Remote.deleteErr = nil
	if err := env.Controller.Retract(env.Ctx, a.ID); err != nil {
		t.Fatalf("retract: %v", err)
	}
	if env.Controller.Store.State().Answered("q-1") {
		t.Fatalf("answer survived retraction")
	}
}

func TestStageUnknownQuestion(t *testing.T) {
	env := newTestEnv(t)
	if err := env.Controller.Stage(env.Ctx, "q-missing", Edit{Value: strptr("x")}); err == nil {
		t.Fatalf("expected an error for an unknown question")
	}
}
