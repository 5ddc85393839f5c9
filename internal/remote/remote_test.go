package remote_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"checkline/internal/remote"
	"checkline/internal/transport"
)

type recorded struct {
	Method string
	Path   string
	Query  string
	Body   map[string]any
}

// newTestClient serves canned responses per path and records what arrived.
func newTestClient(t *testing.T, responses map[string]string) (*remote.Client, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&rec.Body)
		}
		calls = append(calls, rec)
		body, ok := responses[r.Method+" "+r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":{"code":"not_found","message":"no such route"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return &remote.Client{Transport: transport.New(srv.URL), Home: "home-1"}, &calls
}

func TestPersistAnswerRequestShapeAndUnnesting(t *testing.T) {
	client, calls := newTestClient(t, map[string]string{
		"POST /v0/answers": `{"question":{"id":"q-1","type":"open",
			"answer":{"id":"a-1","value":"42"},
			"related_answer":{"id":"r-1","value":"41"}}}`,
	})
	res, err := client.PersistAnswer(context.Background(), remote.PersistRequest{
		Question: "q-1", User: "tester", Answer: "42", Comment: "checked twice",
	})
	if err != nil {
		t.Fatalf("persist: %v", err)
	}

	call := (*calls)[0]
	if call.Body["home"] != "home-1" {
		t.Fatalf("home not defaulted from the client: %v", call.Body)
	}
	if call.Body["question"] != "q-1" || call.Body["answer"] != "42" || call.Body["comment"] != "checked twice" {
		t.Fatalf("payload = %v", call.Body)
	}

	if len(res.Questions) != 1 || res.Questions[0].AnswerID != "a-1" || res.Questions[0].RelatedAnswerID != "r-1" {
		t.Fatalf("question back-refs = %+v", res.Questions)
	}
	if len(res.Answers) != 1 || res.Answers[0].QuestionID != "q-1" {
		t.Fatalf("answer unnesting = %+v", res.Answers)
	}
	if len(res.RelatedAnswers) != 1 || res.RelatedAnswers[0].QuestionID != "q-1" {
		t.Fatalf("related unnesting = %+v", res.RelatedAnswers)
	}
}

func TestPersistAnswer400BecomesValidationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":"validation_failed","message":"answer rejected",
			"details":{"fields":{"comment":["a comment is required"]}}}}`))
	}))
	defer srv.Close()
	client := &remote.Client{Transport: transport.New(srv.URL)}

	_, err := client.PersistAnswer(context.Background(), remote.PersistRequest{Question: "q-1", Answer: "x"})
	var ve *remote.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if ve.Fields["comment"][0] != "a comment is required" {
		t.Fatalf("fields = %v", ve.Fields)
	}
	msgs := ve.Messages()
	if len(msgs) != 1 || msgs[0] != "comment: a comment is required" {
		t.Fatalf("messages = %v", msgs)
	}
}

func TestPersistAnswerPlain400StaysTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()
	client := &remote.Client{Transport: transport.New(srv.URL)}

	_, err := client.PersistAnswer(context.Background(), remote.PersistRequest{Question: "q-1", Answer: "x"})
	var ve *remote.ValidationError
	if errors.As(err, &ve) {
		t.Fatalf("unstructured 400 misclassified as validation error")
	}
	var f *transport.Failure
	if !errors.As(err, &f) || f.Status != http.StatusBadRequest {
		t.Fatalf("expected transport failure, got %v", err)
	}
}

func TestUploadDocumentPayload(t *testing.T) {
	client, calls := newTestClient(t, map[string]string{
		"POST /v0/documents": `{"object":{"id":"d-1","name":"front.jpg"}}`,
	})
	doc, err := client.UploadDocument(context.Background(), remote.UploadRequest{
		DataURL: "data:image/jpeg;base64,AA==", Filename: "front.jpg", AnswerID: "a-1",
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	body := (*calls)[0].Body
	if body["document_raw"] != "data:image/jpeg;base64,AA==" ||
		body["document_raw_name"] != "front.jpg" || body["object_id"] != "a-1" {
		t.Fatalf("payload = %v", body)
	}
	if doc.ID != "d-1" || doc.Name != "front.jpg" {
		t.Fatalf("document = %+v", doc)
	}
}

func TestDeleteAnswerReturnsUpdatedQuestions(t *testing.T) {
	client, calls := newTestClient(t, map[string]string{
		"DELETE /v0/answers/a-1": `{"questions":[{"id":"q-1","type":"open"}]}`,
	})
	res, err := client.DeleteAnswer(context.Background(), "a-1")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if (*calls)[0].Method != http.MethodDelete {
		t.Fatalf("method = %s", (*calls)[0].Method)
	}
	if len(res.Questions) != 1 || res.Questions[0].ID != "q-1" {
		t.Fatalf("questions = %+v", res.Questions)
	}
}

func TestDiscoveryEnvelopes(t *testing.T) {
	client, calls := newTestClient(t, map[string]string{
		"GET /v0/programs": `{"items":[{"id":"p-1","name":"Vehicle intake","checklist_ids":["c-1"]}]}`,
		"GET /v0/programs/p-1/checklists": `{"items":[{"id":"c-1","program_id":"p-1","name":"Exterior"}]}`,
		"GET /v0/checklists/c-1/questions": `{"items":[
			{"id":"q-1","type":"open","answer":{"id":"a-1","value":"42"}}]}`,
		"GET /v0/sections":       `{"items":[{"id":"sec-1","name":"Body"}]}`,
		"GET /v0/specifications": `{"items":[{"collection_request_id":"cr-1","role":"inspector"}]}`,
	})
	ctx := context.Background()

	programs, err := client.Programs(ctx, []string{"p-1", "p-2"})
	if err != nil || len(programs) != 1 || programs[0].ID != "p-1" {
		t.Fatalf("programs = %+v, %v", programs, err)
	}
	if q := (*calls)[0].Query; q != "ids=p-1%2Cp-2" {
		t.Fatalf("ids query = %q", q)
	}

	checklists, err := client.Checklists(ctx, "p-1")
	if err != nil || len(checklists) != 1 {
		t.Fatalf("checklists = %+v, %v", checklists, err)
	}

	unnested, err := client.Questions(ctx, "c-1")
	if err != nil || len(unnested.Questions) != 1 || unnested.Questions[0].AnswerID != "a-1" {
		t.Fatalf("questions = %+v, %v", unnested, err)
	}

	sections, err := client.Sections(ctx)
	if err != nil || len(sections) != 1 {
		t.Fatalf("sections = %+v, %v", sections, err)
	}

	specs, err := client.Specifications(ctx)
	if err != nil || len(specs) != 1 || specs[0].CollectionRequestID != "cr-1" {
		t.Fatalf("specifications = %+v, %v", specs, err)
	}
}

func TestMalformedPersistResponse(t *testing.T) {
	client, _ := newTestClient(t, map[string]string{
		"POST /v0/answers": `{"question":{}}`,
	})
	if _, err := client.PersistAnswer(context.Background(), remote.PersistRequest{Question: "q-1", Answer: "x"}); err == nil {
		t.Fatalf("expected an error for a response without a question id")
	}
}
