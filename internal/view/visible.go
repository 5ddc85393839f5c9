package view

import (
	"sort"

	"checkline/internal/domain"
	"checkline/internal/state"
)

// Views bundles the memoized selectors. One Views instance accompanies one
// store; its caches key on value snapshots of the consumed fields.
type Views struct {
	visible memo[visibleInput, []string]
	grouped memo[visibleInput, []Group]
	stats   memo[statsInput, Statistics]
	display memo[displayInput, map[string]domain.Answer]
}

// Group is one per-program partition of the visible list.
type Group struct {
	ProgramID   string
	QuestionIDs []string
}

// questionKey is the projection of a question the visibility predicate
// consumes. Changing any other question field leaves the selector cache warm.
type questionKey struct {
	ID        string
	Priority  int
	Type      domain.QuestionType
	Optional  bool
	SectionID string
	ProgramID string
	Answered  bool
}

type visibleInput struct {
	Questions      []questionKey
	Filters        Filters
	Split          bool
	OpenID         string
	ProgramMembers []string // question ids admitted by the program filter, sorted
}

// VisibleQuestions returns the ordered ids of questions eligible for display
// under the active filters. The currently open question always survives.
func (v *Views) VisibleQuestions(s state.State, opts Options) []string {
	in := visibleInputOf(s, opts)
	return v.visible.get(in, func() []string { return computeVisible(in) })
}

// GroupedQuestions partitions the visible list by owning program, preserving
// sort order within each group and dropping empty groups. Group order follows
// first appearance in the sorted list.
func (v *Views) GroupedQuestions(s state.State, opts Options) []Group {
	opts.SplitByProgram = true
	in := visibleInputOf(s, opts)
	return v.grouped.get(in, func() []Group {
		ids := computeVisible(in)
		program := make(map[string]string, len(in.Questions))
		for _, q := range in.Questions {
			program[q.ID] = q.ProgramID
		}
		index := map[string]int{}
		var groups []Group
		for _, id := range ids {
			pid := program[id]
			i, ok := index[pid]
			if !ok {
				i = len(groups)
				index[pid] = i
				groups = append(groups, Group{ProgramID: pid})
			}
			groups[i].QuestionIDs = append(groups[i].QuestionIDs, id)
		}
		return groups
	})
}

func visibleInputOf(s state.State, opts Options) visibleInput {
	keys := make([]questionKey, 0, len(s.Questions))
	for _, q := range s.Questions {
		keys = append(keys, questionKey{
			ID:        q.ID,
			Priority:  q.Priority,
			Type:      q.Type,
			Optional:  q.Optional,
			SectionID: q.SectionID,
			ProgramID: q.ProgramID,
			Answered:  s.Answered(q.ID),
		})
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].ID < keys[j].ID })

	in := visibleInput{
		Questions: keys,
		Filters:   opts.Filters,
		Split:     opts.SplitByProgram,
		OpenID:    opts.OpenQuestionID,
	}
	if len(opts.Filters.ProgramIDs) > 0 {
		in.ProgramMembers = programMembers(s, opts.Filters.ProgramIDs)
	}
	return in
}

// programMembers resolves program filter ids to their constituent question
// ids via program -> checklist -> question membership.
func programMembers(s state.State, programIDs []string) []string {
	seen := map[string]bool{}
	for _, pid := range programIDs {
		p, ok := s.Programs[pid]
		if !ok {
			continue
		}
		for _, cid := range p.ChecklistIDs {
			c, ok := s.Checklists[cid]
			if !ok {
				continue
			}
			for _, qid := range c.QuestionIDs {
				seen[qid] = true
			}
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func computeVisible(in visibleInput) []string {
	survivors := make([]questionKey, 0, len(in.Questions))
	for _, q := range in.Questions {
		if q.ID == in.OpenID || admits(in, q) {
			survivors = append(survivors, q)
		}
	}
	sort.Slice(survivors, func(i, j int) bool {
		if survivors[i].Priority != survivors[j].Priority {
			return survivors[i].Priority < survivors[j].Priority
		}
		return survivors[i].ID < survivors[j].ID
	})
	ids := make([]string, len(survivors))
	for i, q := range survivors {
		ids[i] = q.ID
	}
	return ids
}

func admits(in visibleInput, q questionKey) bool {
	f := in.Filters
	if !typeEnabled(f.Types, q.Type) {
		return false
	}
	switch f.Requirement {
	case RequirementRequired:
		if q.Optional {
			return false
		}
	case RequirementOptional:
		if !q.Optional {
			return false
		}
	}
	switch f.Answered {
	case AnsweredYes:
		if !q.Answered {
			return false
		}
	case AnsweredNo:
		if q.Answered {
			return false
		}
	}
	if len(f.SectionIDs) > 0 && !contains(f.SectionIDs, q.SectionID) {
		return false
	}
	if len(f.ProgramIDs) > 0 && !contains(in.ProgramMembers, q.ID) {
		return false
	}
	return true
}
