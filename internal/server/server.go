// Package server is the local checklist service behind `cl serve`: the same
// API surface the engine talks to in production, backed by the workspace
// database. It exists for development and for exercising the full answer
// lifecycle end to end.
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"checkline/internal/domain"
	"checkline/internal/events"
	"checkline/internal/repo"
)

// Config for the HTTP API handler.
type Config struct {
	Repo     repo.Repo
	Events   events.Writer
	Auth     AuthConfig
	BasePath string
	Now      func() time.Time
}

func (c Config) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"validation_failed"`
	Message string         `json:"message" example:"answer rejected"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var se huma.StatusError
	if errors.As(err, &se) {
		return se
	}
	if errors.Is(err, repo.ErrNotFound) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": err.Error()})
}

// New returns an HTTP handler exposing the checklist API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v0"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}

	router := chi.NewRouter()
	router.Use(cfg.Auth.Middleware)

	hcfg := huma.DefaultConfig("Checkline Service", "0.1.0")
	hcfg.DocsPath = ""
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerHealth(group)
	registerDiscovery(group, cfg)
	registerAnswers(group, cfg)
	registerDocuments(group, cfg)
	registerAuth(group, cfg)

	return router, nil
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body struct {
			Status string `json:"status"`
		}
	}, error) {
		resp := &struct {
			Body struct {
				Status string `json:"status"`
			}
		}{}
		resp.Body.Status = "ok"
		return resp, nil
	})
}

func registerDiscovery(api huma.API, cfg Config) {
	huma.Register(api, huma.Operation{
		OperationID: "list-programs",
		Method:      http.MethodGet,
		Path:        "/programs",
		Summary:     "List programs",
	}, func(ctx context.Context, input *struct {
		IDs string `query:"ids"`
	}) (*struct{ Body ProgramList }, error) {
		var ids []string
		if input.IDs != "" {
			ids = strings.Split(input.IDs, ",")
		}
		items, err := cfg.Repo.ListPrograms(ctx, ids)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct{ Body ProgramList }{Body: ProgramList{Items: items}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-checklists",
		Method:      http.MethodGet,
		Path:        "/programs/{program_id}/checklists",
		Summary:     "List a program's checklists",
	}, func(ctx context.Context, input *struct {
		ProgramID string `path:"program_id"`
	}) (*struct{ Body ChecklistList }, error) {
		items, err := cfg.Repo.ListChecklists(ctx, input.ProgramID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct{ Body ChecklistList }{Body: ChecklistList{Items: items}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-questions",
		Method:      http.MethodGet,
		Path:        "/checklists/{checklist_id}/questions",
		Summary:     "List a checklist's questions with nested answers",
	}, func(ctx context.Context, input *struct {
		ChecklistID string `path:"checklist_id"`
	}) (*struct{ Body QuestionList }, error) {
		p, authErr := requirePrincipal(ctx)
		if authErr != nil {
			return nil, authErr
		}
		questions, err := cfg.Repo.ListQuestions(ctx, input.ChecklistID)
		if err != nil {
			return nil, handleError(err)
		}
		items := make([]WireQuestion, 0, len(questions))
		for _, q := range questions {
			wq, err := wireQuestion(ctx, cfg, q, p.Role)
			if err != nil {
				return nil, handleError(err)
			}
			items = append(items, wq)
		}
		return &struct{ Body QuestionList }{Body: QuestionList{Items: items}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-sections",
		Method:      http.MethodGet,
		Path:        "/sections",
		Summary:     "List sections",
	}, func(ctx context.Context, _ *struct{}) (*struct{ Body SectionList }, error) {
		items, err := cfg.Repo.ListSections(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct{ Body SectionList }{Body: SectionList{Items: items}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-specifications",
		Method:      http.MethodGet,
		Path:        "/specifications",
		Summary:     "List collection request specifications",
	}, func(ctx context.Context, _ *struct{}) (*struct{ Body SpecificationList }, error) {
		items, err := cfg.Repo.ListSpecifications(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct{ Body SpecificationList }{Body: SpecificationList{Items: items}}, nil
	})
}

func registerAnswers(api huma.API, cfg Config) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-answer",
		Method:        http.MethodPost,
		Path:          "/answers",
		Summary:       "Persist an answer",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		Body CreateAnswerRequest `json:"body"`
	}) (*struct{ Body QuestionEnvelope }, error) {
		p, authErr := requirePrincipal(ctx)
		if authErr != nil {
			return nil, authErr
		}
		q, err := cfg.Repo.GetQuestion(ctx, input.Body.Question)
		if err != nil {
			return nil, handleError(err)
		}
		if q.ReadOnly {
			return nil, newAPIError(http.StatusConflict, "read_only", "question is read only", nil)
		}
		if fields := validateAnswer(q, input.Body); len(fields) > 0 {
			return nil, newAPIError(http.StatusBadRequest, "validation_failed", "answer rejected",
				map[string]any{"fields": fields})
		}

		answer := domain.Answer{
			ID:         uuid.NewString(),
			QuestionID: q.ID,
			Value:      input.Body.Answer,
			Comment:    input.Body.Comment,
			UserRole:   p.Role,
			Locked:     p.Role == "reviewer",
			CreatedAt:  cfg.now().UTC().Format(time.RFC3339),
		}
		tx, err := cfg.Repo.DB.BeginTx(ctx, nil)
		if err != nil {
			return nil, handleError(err)
		}
		defer tx.Rollback()
		if err := cfg.Repo.DeleteAnswersForRole(ctx, tx, q.ID, p.Role); err != nil {
			return nil, handleError(err)
		}
		if err := cfg.Repo.InsertAnswer(ctx, tx, answer, p.UserID); err != nil {
			return nil, handleError(err)
		}
		if err := cfg.Events.Append(ctx, tx, "answer.saved", "answer", answer.ID, p.UserID,
			events.EventPayload{"question": q.ID}); err != nil {
			return nil, handleError(err)
		}
		if err := tx.Commit(); err != nil {
			return nil, handleError(err)
		}

		wq, err := wireQuestion(ctx, cfg, q, p.Role)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct{ Body QuestionEnvelope }{Body: QuestionEnvelope{Question: wq}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-answer",
		Method:      http.MethodDelete,
		Path:        "/answers/{answer_id}",
		Summary:     "Retract an answer",
		Errors:      []int{http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		AnswerID string `path:"answer_id"`
	}) (*struct{ Body QuestionsEnvelope }, error) {
		p, authErr := requirePrincipal(ctx)
		if authErr != nil {
			return nil, authErr
		}
		answer, err := cfg.Repo.GetAnswer(ctx, input.AnswerID)
		if err != nil {
			return nil, handleError(err)
		}
		if answer.Locked {
			return nil, newAPIError(http.StatusConflict, "not_retractable", "answer is locked and cannot be retracted", nil)
		}
		tx, err := cfg.Repo.DB.BeginTx(ctx, nil)
		if err != nil {
			return nil, handleError(err)
		}
		defer tx.Rollback()
		if err := cfg.Repo.DeleteAnswer(ctx, tx, input.AnswerID); err != nil {
			return nil, handleError(err)
		}
		if err := cfg.Events.Append(ctx, tx, "answer.retracted", "answer", input.AnswerID, p.UserID,
			events.EventPayload{"question": answer.QuestionID}); err != nil {
			return nil, handleError(err)
		}
		if err := tx.Commit(); err != nil {
			return nil, handleError(err)
		}

		q, err := cfg.Repo.GetQuestion(ctx, answer.QuestionID)
		if err != nil {
			return nil, handleError(err)
		}
		wq, err := wireQuestion(ctx, cfg, q, p.Role)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct{ Body QuestionsEnvelope }{Body: QuestionsEnvelope{Questions: []WireQuestion{wq}}}, nil
	})
}

func registerDocuments(api huma.API, cfg Config) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-document",
		Method:        http.MethodPost,
		Path:          "/documents",
		Summary:       "Attach a document to an answer",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Body CreateDocumentRequest `json:"body"`
	}) (*struct{ Body DocumentEnvelope }, error) {
		if input.Body.DocumentRaw == "" || input.Body.DocumentRawName == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "document_raw and document_raw_name are required", nil)
		}
		if _, err := cfg.Repo.GetAnswer(ctx, input.Body.ObjectID); err != nil {
			return nil, handleError(err)
		}
		doc := domain.Document{
			ID:         uuid.NewString(),
			Name:       input.Body.DocumentRawName,
			RawDataURL: input.Body.DocumentRaw,
		}
		if err := cfg.Repo.InsertDocument(ctx, doc, input.Body.ObjectID, cfg.now().UTC().Format(time.RFC3339)); err != nil {
			return nil, handleError(err)
		}
		stored := domain.Document{ID: doc.ID, Name: doc.Name}
		return &struct{ Body DocumentEnvelope }{Body: DocumentEnvelope{Object: stored}}, nil
	})
}

func registerAuth(api huma.API, cfg Config) {
	if cfg.Auth.JWTSecret == "" {
		return
	}
	huma.Register(api, huma.Operation{
		OperationID: "dev-token",
		Method:      http.MethodPost,
		Path:        "/auth/token",
		Summary:     "Mint a development token",
	}, func(ctx context.Context, input *struct {
		Body struct {
			User string `json:"user"`
			Role string `json:"role,omitempty"`
		} `json:"body"`
	}) (*struct{ Body TokenResponse }, error) {
		if input.Body.User == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "user is required", nil)
		}
		token, err := cfg.Auth.MintToken(input.Body.User, input.Body.Role, 24*time.Hour)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct{ Body TokenResponse }{Body: TokenResponse{Token: token}}, nil
	})
}

// validateAnswer re-checks the choice requirements server side. Only the
// comment can be enforced at creation time; documents attach afterwards.
func validateAnswer(q domain.Question, req CreateAnswerRequest) map[string][]string {
	fields := map[string][]string{}
	if strings.TrimSpace(req.Answer) == "" {
		fields["answer"] = append(fields["answer"], "answer is required")
	}
	if q.Type == domain.TypeMultipleChoice {
		if choice, ok := q.ChoiceByValue(req.Answer); ok {
			if choice.RequiresComment && strings.TrimSpace(req.Comment) == "" {
				fields["comment"] = append(fields["comment"], "choice \""+choice.Label+"\" requires a comment")
			}
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// wireQuestion composes the response shape: the question with the
// requester's own answer and the other role's answer nested.
func wireQuestion(ctx context.Context, cfg Config, q domain.Question, role string) (WireQuestion, error) {
	answers, err := cfg.Repo.AnswersForQuestion(ctx, q.ID)
	if err != nil {
		return WireQuestion{}, err
	}
	wq := WireQuestion{Question: q}
	for i := range answers {
		a := answers[i]
		if a.UserRole == role {
			wq.Answer = &a
			wq.Question.AnswerID = a.ID
		} else {
			wq.RelatedAnswer = &a
			wq.Question.RelatedAnswerID = a.ID
		}
	}
	return wq, nil
}
