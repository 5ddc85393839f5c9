package domain

// QuestionType is the closed set of question kinds the engine understands.
// Validation and value-cleaning behavior hangs off this tag (see behavior.go)
// so adding a type is a compile-time extension, not a runtime branch.
type QuestionType string

const (
	TypeOpen            QuestionType = "open"
	TypeMultipleChoice  QuestionType = "multiple_choice"
	TypeCascadingSelect QuestionType = "cascading_select"
	TypeDate            QuestionType = "date"
)

// Types lists every known question type in a stable order.
var Types = []QuestionType{TypeOpen, TypeMultipleChoice, TypeCascadingSelect, TypeDate}

// ColorClass is the display class derived for a question row.
type ColorClass string

const (
	ColorNone     ColorClass = ""
	ColorLocked   ColorClass = "locked"
	ColorInfo     ColorClass = "info"
	ColorSuccess  ColorClass = "success"
	ColorDanger   ColorClass = "danger"
	ColorAnswered ColorClass = "answered"
)

// Choice is one selectable option of a multiple-choice question. A choice can
// demand extra material before an answer picking it may be persisted.
type Choice struct {
	ID               string `json:"id"`
	QuestionID       string `json:"question_id"`
	Label            string `json:"label"`
	Value            string `json:"value"`
	RequiresComment  bool   `json:"requires_comment,omitempty"`
	RequiresImage    bool   `json:"requires_image,omitempty"`
	RequiresDocument bool   `json:"requires_document,omitempty"`
}

// Document is an attachment, either pending upload (RawDataURL set) or already
// stored by the service (ID set).
type Document struct {
	ID         string `json:"id,omitempty"`
	Name       string `json:"name"`
	RawDataURL string `json:"raw_data_url,omitempty"`
	Image      bool   `json:"image,omitempty"`
}

type Question struct {
	ID                  string       `json:"id"`
	ExternalKey         string       `json:"external_key"`
	Priority            int          `json:"priority"`
	Type                QuestionType `json:"type" enum:"open,multiple_choice,cascading_select,date"`
	Text                string       `json:"text"`
	Optional            bool         `json:"optional"`
	Unit                string       `json:"unit,omitempty"`
	ReadOnly            bool         `json:"read_only"`
	CollectionRequestID string       `json:"collection_request_id"`
	ProgramID           string       `json:"program_id"`
	SectionID           string       `json:"section_id,omitempty"`
	Choices             []Choice     `json:"choices,omitempty"`
	ConditionMet        bool         `json:"condition_met"`
	AnswerID            string       `json:"answer_id,omitempty"`
	RelatedAnswerID     string       `json:"related_answer_id,omitempty"`
}

// ChoiceByValue resolves a stored answer value to its choice definition.
func (q Question) ChoiceByValue(value string) (Choice, bool) {
	for _, c := range q.Choices {
		if c.Value == value {
			return c, true
		}
	}
	return Choice{}, false
}

// Answer is a server-confirmed answer. The same shape doubles as a related
// answer (another role's answer to the same question) in its own table.
type Answer struct {
	ID         string     `json:"id"`
	QuestionID string     `json:"question_id"`
	Value      string     `json:"value"`
	Comment    string     `json:"comment,omitempty"`
	Documents  []Document `json:"documents,omitempty"`
	UserRole   string     `json:"user_role,omitempty"`
	Failed     bool       `json:"failed,omitempty"`
	Locked     bool       `json:"locked,omitempty"`
	CreatedAt  string     `json:"created_at,omitempty" format:"date-time"`
}

// DraftAnswer is a locally staged, unpersisted edit. At most one exists per
// question; it is the input to validation, never sent to the server as-is.
type DraftAnswer struct {
	QuestionID string     `json:"question_id"`
	Value      string     `json:"value"`
	Comment    string     `json:"comment,omitempty"`
	Documents  []Document `json:"documents,omitempty"`
}

// ErrorSource distinguishes where a question error came from.
type ErrorSource string

const (
	ErrorClient ErrorSource = "client"
	ErrorServer ErrorSource = "server"
)

// QuestionError carries validation messages keyed to a question. Set when a
// save is rejected, cleared by the next successful persist.
type QuestionError struct {
	QuestionID string      `json:"question_id"`
	Source     ErrorSource `json:"source"`
	Messages   []string    `json:"messages"`
}

type Program struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	ChecklistIDs []string `json:"checklist_ids,omitempty"`
}

type Checklist struct {
	ID          string   `json:"id"`
	ProgramID   string   `json:"program_id"`
	Name        string   `json:"name"`
	QuestionIDs []string `json:"question_ids,omitempty"`
}

type Section struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	QuestionIDs []string `json:"question_ids,omitempty"`
}

// Specification is per collection-request metadata: the active role, whether
// the request is read-only, and the cascade lookup for cascading questions.
// Specifications are built once per discovery and never mutated; re-discovery
// swaps the whole table.
type Specification struct {
	CollectionRequestID string       `json:"collection_request_id"`
	Role                string       `json:"role"`
	ReadOnly            bool         `json:"read_only"`
	Cascade             *CascadeSpec `json:"cascade,omitempty"`
}

// CascadeLevel names one level of a cascading field. LabelCode is the key the
// level contributes to the flat answer value.
type CascadeLevel struct {
	LabelCode string `json:"label_code"`
	Label     string `json:"label"`
}

// CascadeNode is a node of the cascade lookup tree. Inner nodes carry
// Children; the leaf depth carries Leaves, formatted for display through the
// spec's template.
type CascadeNode struct {
	Children map[string]*CascadeNode `json:"children,omitempty"`
	Leaves   []map[string]string     `json:"leaves,omitempty"`
}

// CascadeSpec describes a cascading field: its ordered levels, the display
// template for leaf entries, and the lookup tree.
type CascadeSpec struct {
	Levels       []CascadeLevel `json:"levels"`
	LeafTemplate string         `json:"leaf_template"`
	Lookup       *CascadeNode   `json:"lookup"`
}
