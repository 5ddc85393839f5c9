// Package remote implements the checklist service API on top of the
// transport collaborator: answer persistence, document upload, retraction
// and discovery. Responses carry questions with nested answer objects; this
// package unnests them so the store can keep normalized tables.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"checkline/internal/domain"
	"checkline/internal/transport"
)

// Client is the checklist service API client.
type Client struct {
	Transport *transport.Client
	// Home scopes answer persistence to the inspected object.
	Home string
}

// ValidationError is a structured 400-style rejection: field-level messages
// from the service.
type ValidationError struct {
	Message string
	Fields  map[string][]string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "answer rejected by service"
}

// Messages flattens the field messages for the error table.
func (e *ValidationError) Messages() []string {
	var out []string
	for field, msgs := range e.Fields {
		for _, m := range msgs {
			out = append(out, field+": "+m)
		}
	}
	if len(out) == 0 && e.Message != "" {
		out = []string{e.Message}
	}
	return out
}

// wireQuestion is the service's question shape with nested answers.
type wireQuestion struct {
	domain.Question
	Answer        *domain.Answer `json:"answer,omitempty"`
	RelatedAnswer *domain.Answer `json:"related_answer,omitempty"`
}

// Unnested is a question split from its nested answers, with the back
// references wired up.
type Unnested struct {
	Questions      []domain.Question
	Answers        []domain.Answer
	RelatedAnswers []domain.Answer
}

func unnest(wire []wireQuestion) Unnested {
	var out Unnested
	for _, w := range wire {
		q := w.Question
		if w.Answer != nil {
			a := *w.Answer
			a.QuestionID = q.ID
			q.AnswerID = a.ID
			out.Answers = append(out.Answers, a)
		}
		if w.RelatedAnswer != nil {
			a := *w.RelatedAnswer
			a.QuestionID = q.ID
			q.RelatedAnswerID = a.ID
			out.RelatedAnswers = append(out.RelatedAnswers, a)
		}
		out.Questions = append(out.Questions, q)
	}
	return out
}

// PersistRequest is the answer persistence payload.
type PersistRequest struct {
	Home     string `json:"home"`
	Question string `json:"question"`
	User     string `json:"user"`
	Answer   string `json:"answer"`
	Comment  string `json:"comment,omitempty"`
}

// PersistResult carries the canonical question the service returned, with
// its nested answers unnested.
type PersistResult struct {
	Unnested
}

// PersistAnswer saves an answer. A structured 400 comes back as a
// *ValidationError; anything else is a transport-level failure.
func (c *Client) PersistAnswer(ctx context.Context, req PersistRequest) (PersistResult, error) {
	if req.Home == "" {
		req.Home = c.Home
	}
	raw, err := c.Transport.Post(ctx, "v0/answers", req)
	if err != nil {
		return PersistResult{}, classify(err)
	}
	var resp struct {
		Question wireQuestion `json:"question"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil || resp.Question.ID == "" {
		return PersistResult{}, fmt.Errorf("malformed persist response: %w", errOr(err))
	}
	return PersistResult{Unnested: unnest([]wireQuestion{resp.Question})}, nil
}

// UploadRequest is a pending document plus the answer it belongs to.
type UploadRequest struct {
	DataURL  string
	Filename string
	AnswerID string
}

// UploadDocument stores a document against an answer. The service wraps the
// created document under an "object" field.
func (c *Client) UploadDocument(ctx context.Context, req UploadRequest) (domain.Document, error) {
	body := map[string]any{
		"document_raw":      req.DataURL,
		"document_raw_name": req.Filename,
		"object_id":         req.AnswerID,
	}
	raw, err := c.Transport.Post(ctx, "v0/documents", body)
	if err != nil {
		return domain.Document{}, classify(err)
	}
	var resp struct {
		Object domain.Document `json:"object"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil || resp.Object.ID == "" {
		return domain.Document{}, fmt.Errorf("malformed document response: %w", errOr(err))
	}
	return resp.Object, nil
}

// DeleteResult optionally carries updated question availability after a
// retraction.
type DeleteResult struct {
	Unnested
}

// DeleteAnswer retracts a confirmed answer.
func (c *Client) DeleteAnswer(ctx context.Context, answerID string) (DeleteResult, error) {
	raw, err := c.Transport.Delete(ctx, "v0/answers/"+url.PathEscape(answerID))
	if err != nil {
		return DeleteResult{}, classify(err)
	}
	if len(raw) == 0 {
		return DeleteResult{}, nil
	}
	var resp struct {
		Questions []wireQuestion `json:"questions"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return DeleteResult{}, fmt.Errorf("malformed delete response: %w", err)
	}
	return DeleteResult{Unnested: unnest(resp.Questions)}, nil
}

// Programs fetches programs by id; with no ids, all of them.
func (c *Client) Programs(ctx context.Context, ids []string) ([]domain.Program, error) {
	endpoint := "v0/programs"
	if len(ids) > 0 {
		endpoint += "?ids=" + url.QueryEscape(strings.Join(ids, ","))
	}
	var resp struct {
		Items []domain.Program `json:"items"`
	}
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// Checklists fetches a program's checklists.
func (c *Client) Checklists(ctx context.Context, programID string) ([]domain.Checklist, error) {
	var resp struct {
		Items []domain.Checklist `json:"items"`
	}
	endpoint := "v0/programs/" + url.PathEscape(programID) + "/checklists"
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// Questions fetches a checklist's questions, unnesting embedded answers.
func (c *Client) Questions(ctx context.Context, checklistID string) (Unnested, error) {
	var resp struct {
		Items []wireQuestion `json:"items"`
	}
	endpoint := "v0/checklists/" + url.PathEscape(checklistID) + "/questions"
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return Unnested{}, err
	}
	return unnest(resp.Items), nil
}

// Sections fetches the section grouping.
func (c *Client) Sections(ctx context.Context) ([]domain.Section, error) {
	var resp struct {
		Items []domain.Section `json:"items"`
	}
	if err := c.getJSON(ctx, "v0/sections", &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// Specifications fetches per collection-request metadata.
func (c *Client) Specifications(ctx context.Context) ([]domain.Specification, error) {
	var resp struct {
		Items []domain.Specification `json:"items"`
	}
	if err := c.getJSON(ctx, "v0/specifications", &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	raw, err := c.Transport.Get(ctx, endpoint)
	if err != nil {
		return classify(err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("malformed response for %s: %w", endpoint, err)
	}
	return nil
}

// errorEnvelope matches the service's error body.
type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details struct {
			Fields map[string][]string `json:"fields"`
		} `json:"details"`
	} `json:"error"`
}

// classify turns a 400 with field details into a *ValidationError and leaves
// everything else as the transport failure it was.
func classify(err error) error {
	var f *transport.Failure
	if !errors.As(err, &f) {
		return err
	}
	if f.Status != http.StatusBadRequest || len(f.Body) == 0 {
		return err
	}
	var env errorEnvelope
	if jsonErr := json.Unmarshal(f.Body, &env); jsonErr != nil {
		return err
	}
	if len(env.Error.Details.Fields) == 0 && env.Error.Message == "" {
		return err
	}
	return &ValidationError{Message: env.Error.Message, Fields: env.Error.Details.Fields}
}

func errOr(err error) error {
	if err != nil {
		return err
	}
	return errors.New("missing question")
}
