package server

import "checkline/internal/domain"

// Request payloads

type CreateAnswerRequest struct {
	Home     string `json:"home,omitempty"`
	Question string `json:"question"`
	User     string `json:"user,omitempty"`
	Answer   string `json:"answer"`
	Comment  string `json:"comment,omitempty"`
}

type CreateDocumentRequest struct {
	DocumentRaw     string `json:"document_raw"`
	DocumentRawName string `json:"document_raw_name"`
	ObjectID        string `json:"object_id"`
}

// Response payloads

// WireQuestion is the question shape on the wire: the canonical question with
// the requester's own answer and the other role's answer nested.
type WireQuestion struct {
	domain.Question
	Answer        *domain.Answer `json:"answer,omitempty"`
	RelatedAnswer *domain.Answer `json:"related_answer,omitempty"`
}

type QuestionEnvelope struct {
	Question WireQuestion `json:"question"`
}

type QuestionsEnvelope struct {
	Questions []WireQuestion `json:"questions,omitempty"`
}

type DocumentEnvelope struct {
	Object domain.Document `json:"object"`
}

type ProgramList struct {
	Items []domain.Program `json:"items"`
}

type ChecklistList struct {
	Items []domain.Checklist `json:"items"`
}

type QuestionList struct {
	Items []WireQuestion `json:"items"`
}

type SectionList struct {
	Items []domain.Section `json:"items"`
}

type SpecificationList struct {
	Items []domain.Specification `json:"items"`
}

type TokenResponse struct {
	Token string `json:"token"`
}
