package domain

import "strings"

// typeBehavior attaches validation and value-cleaning to a question type.
// The table is exhaustive over Types; an unknown type validates to nothing
// and cleans to itself.
type typeBehavior struct {
	validate func(q Question, d DraftAnswer) []string
	clean    func(value string) string
}

var behaviors = map[QuestionType]typeBehavior{
	TypeOpen: {
		validate: func(Question, DraftAnswer) []string { return nil },
		clean:    strings.TrimSpace,
	},
	TypeMultipleChoice: {
		validate: validateChoice,
		clean:    func(v string) string { return v },
	},
	TypeCascadingSelect: {
		validate: func(Question, DraftAnswer) []string { return nil },
		clean:    func(v string) string { return v },
	},
	TypeDate: {
		validate: func(Question, DraftAnswer) []string { return nil },
		clean:    strings.TrimSpace,
	},
}

// ValidateDraft runs the type-specific validation of a staged answer and
// returns the requirement messages, empty when the draft may be persisted.
func ValidateDraft(q Question, d DraftAnswer) []string {
	b, ok := behaviors[q.Type]
	if !ok {
		return nil
	}
	return b.validate(q, d)
}

// CleanValue normalizes a raw value per the question's type before staging.
func CleanValue(t QuestionType, value string) string {
	b, ok := behaviors[t]
	if !ok {
		return value
	}
	return b.clean(value)
}

func validateChoice(q Question, d DraftAnswer) []string {
	choice, ok := q.ChoiceByValue(d.Value)
	if !ok {
		// A free value on a choice question has no structural requirements.
		return nil
	}
	var msgs []string
	if choice.RequiresComment && strings.TrimSpace(d.Comment) == "" {
		msgs = append(msgs, "choice \""+choice.Label+"\" requires a comment")
	}
	if choice.RequiresImage && !hasDocument(d.Documents, true) {
		msgs = append(msgs, "choice \""+choice.Label+"\" requires an image")
	}
	if choice.RequiresDocument && !hasDocument(d.Documents, false) {
		msgs = append(msgs, "choice \""+choice.Label+"\" requires a document")
	}
	return msgs
}

func hasDocument(docs []Document, image bool) bool {
	for _, doc := range docs {
		if doc.Image == image {
			return true
		}
	}
	return false
}
