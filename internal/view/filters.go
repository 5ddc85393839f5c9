package view

import "checkline/internal/domain"

// Requirement filters on whether a question is required or optional.
type Requirement string

const (
	RequirementAny      Requirement = ""
	RequirementRequired Requirement = "required"
	RequirementOptional Requirement = "optional"
)

// Answeredness filters on whether a question already has a confirmed answer.
type Answeredness string

const (
	AnsweredAny Answeredness = ""
	AnsweredYes Answeredness = "answered"
	AnsweredNo  Answeredness = "unanswered"
)

// Filters is the active filter configuration. Empty slices mean "no filter on
// that dimension".
type Filters struct {
	Types       []domain.QuestionType
	Requirement Requirement
	Answered    Answeredness
	SectionIDs  []string
	ProgramIDs  []string
}

// Options parameterizes the visible-question selector beyond the raw filters.
type Options struct {
	Filters        Filters
	SplitByProgram bool
	// OpenQuestionID is the question currently open for editing. It always
	// survives filtering; dropping it would corrupt next/previous.
	OpenQuestionID string
}

func typeEnabled(types []domain.QuestionType, t domain.QuestionType) bool {
	if len(types) == 0 {
		return true
	}
	for _, enabled := range types {
		if enabled == t {
			return true
		}
	}
	return false
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
