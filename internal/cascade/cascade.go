// Package cascade resolves a chain of dependent choice boxes (for example
// brand -> model -> characteristic) against a nested lookup tree. Each
// level's candidates depend on all earlier selections; free-text custom
// entries and an explicit skip are supported at every non-leaf level.
package cascade

import (
	"sort"
	"strings"

	"checkline/internal/domain"
)

// CustomPrefix marks a free-text value so it can be told apart from an exact
// catalog match. It is stripped when the flat answer value is derived.
const CustomPrefix = "custom:"

// Skip is the sentinel a user picks to pass over a level.
const Skip = "n/a"

// Candidate is one selectable entry of a level after filtering. Custom marks
// a synthesized free-text entry that is not in the catalog.
type Candidate struct {
	Text   string
	Custom bool
}

type selection struct {
	value   string
	set     bool
	custom  bool
	skipped bool
}

// Resolver tracks the selections of one cascading field. It only reads the
// specification it is built from; the spec table itself is owned elsewhere.
type Resolver struct {
	spec       domain.CascadeSpec
	selections []selection
	autoFilled []bool
	// Disabled locks every level, mirroring a read-only collection request.
	Disabled bool
}

// New builds a resolver with no selections.
func New(spec domain.CascadeSpec) *Resolver {
	return &Resolver{
		spec:       spec,
		selections: make([]selection, len(spec.Levels)),
		autoFilled: make([]bool, len(spec.Levels)),
	}
}

// Levels returns the number of levels.
func (r *Resolver) Levels() int { return len(r.spec.Levels) }

func (r *Resolver) leaf() int { return len(r.spec.Levels) - 1 }

// Selected returns the selected value of a level and whether one is set.
// Custom values keep their prefix marker here.
func (r *Resolver) Selected(level int) (string, bool) {
	if level < 0 || level >= len(r.selections) {
		return "", false
	}
	sel := r.selections[level]
	if !sel.set || sel.skipped {
		return "", false
	}
	return sel.value, true
}

// node walks the lookup tree using the selections above depth. A custom or
// skipped selection has no catalog subtree, so the walk ends there.
func (r *Resolver) node(depth int) *domain.CascadeNode {
	n := r.spec.Lookup
	for i := 0; i < depth && n != nil; i++ {
		sel := r.selections[i]
		if !sel.set || sel.skipped || sel.custom {
			return nil
		}
		if n.Children == nil {
			return nil
		}
		n = n.Children[sel.value]
	}
	return n
}

// Choices returns the catalog candidates of a level: the sorted key set for
// inner levels, the template-formatted leaf entries at the leaf.
func (r *Resolver) Choices(level int) []string {
	n := r.node(level)
	if n == nil {
		return nil
	}
	if n.Leaves != nil {
		out := make([]string, len(n.Leaves))
		for i, item := range n.Leaves {
			out[i] = FormatLeaf(r.spec.LeafTemplate, item)
		}
		return out
	}
	out := make([]string, 0, len(n.Children))
	for k := range n.Children {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Available reports whether a level may be edited. Level 0 always is, unless
// the whole field is disabled. Deeper levels open up once the prior level is
// selected or skipped, or when they already hold a value. A leaf auto-filled
// from a single candidate stays locked so the derived value cannot drift from
// the catalog by accident.
func (r *Resolver) Available(level int) bool {
	if r.Disabled || level < 0 || level >= len(r.selections) {
		return false
	}
	if r.autoFilled[level] && len(r.Choices(level)) == 1 {
		return false
	}
	if level == 0 {
		return true
	}
	if r.selections[level].set {
		return true
	}
	return r.selections[level-1].set
}

// Select records a concrete catalog value for a level. Selections below the
// level are truncated: choosing higher up invalidates every deeper choice.
func (r *Resolver) Select(level int, value string) {
	r.setSelection(level, selection{value: value, set: true})
}

// SelectCustom records a free-text value, marked with the custom prefix.
func (r *Resolver) SelectCustom(level int, text string) {
	r.setSelection(level, selection{value: CustomPrefix + text, set: true, custom: true})
}

// SelectSkip passes over a level, keeping deeper levels reachable.
func (r *Resolver) SelectSkip(level int) {
	r.setSelection(level, selection{value: Skip, set: true, skipped: true})
}

func (r *Resolver) setSelection(level int, sel selection) {
	if level < 0 || level >= len(r.selections) {
		return
	}
	r.selections[level] = sel
	for i := level + 1; i < len(r.selections); i++ {
		r.selections[i] = selection{}
		r.autoFilled[i] = false
	}
	r.autoFill()
}

// autoFill locks in the leaf when everything above it is decided and the
// catalog leaves exactly one possibility.
func (r *Resolver) autoFill() {
	leaf := r.leaf()
	if leaf <= 0 || r.selections[leaf].set {
		return
	}
	for i := 0; i < leaf; i++ {
		if !r.selections[i].set {
			return
		}
	}
	choices := r.Choices(leaf)
	if len(choices) == 1 {
		r.selections[leaf] = selection{value: choices[0], set: true}
		r.autoFilled[leaf] = true
	}
}

// Refresh filters a level's candidates by a case-insensitive substring. At
// inner levels a search with no exact catalog match synthesizes one custom
// candidate carrying the search text, so a free-text value can always be
// committed. The leaf level never synthesizes: leaf values come from the
// catalog or from an already-saved custom answer.
func (r *Resolver) Refresh(level int, search string) []Candidate {
	choices := r.Choices(level)
	needle := strings.ToLower(search)
	out := make([]Candidate, 0, len(choices))
	exact := false
	for _, c := range choices {
		if needle == "" || strings.Contains(strings.ToLower(c), needle) {
			out = append(out, Candidate{Text: c})
		}
		if strings.EqualFold(c, search) {
			exact = true
		}
	}
	if search != "" && !exact && level != r.leaf() {
		out = append(out, Candidate{Text: search, Custom: true})
	}
	return out
}

// Value derives the flat answer map, keyed by each level's label code with
// the custom prefix stripped. When the leaf holds no value and no custom
// value exists anywhere in the chain there is no answer to persist.
func (r *Resolver) Value() (map[string]string, bool) {
	leafSel := r.selections[r.leaf()]
	hasLeaf := leafSel.set && !leafSel.skipped
	anyCustom := false
	for _, sel := range r.selections {
		if sel.set && sel.custom {
			anyCustom = true
		}
	}
	if !hasLeaf && !anyCustom {
		return nil, false
	}
	out := map[string]string{}
	for i, sel := range r.selections {
		if !sel.set || sel.skipped {
			continue
		}
		out[r.spec.Levels[i].LabelCode] = strings.TrimPrefix(sel.value, CustomPrefix)
	}
	return out, true
}

// Rehydrate restores selections from a previously saved flat answer value.
// Keys naming a level are mapped back through the label-code table; any
// remaining keys are leaf characteristics, reconstituted into the leaf
// display string through the same template used for display.
func (r *Resolver) Rehydrate(values map[string]string) {
	r.selections = make([]selection, len(r.spec.Levels))
	r.autoFilled = make([]bool, len(r.spec.Levels))
	rest := map[string]string{}
	for k, v := range values {
		rest[k] = v
	}
	for i, level := range r.spec.Levels {
		v, ok := rest[level.LabelCode]
		if !ok {
			continue
		}
		delete(rest, level.LabelCode)
		sel := selection{value: v, set: true}
		if !contains(r.Choices(i), v) {
			sel.value = CustomPrefix + v
			sel.custom = true
		}
		r.selections[i] = sel
	}
	if len(rest) > 0 {
		r.selections[r.leaf()] = selection{value: FormatLeaf(r.spec.LeafTemplate, rest), set: true}
	}
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
