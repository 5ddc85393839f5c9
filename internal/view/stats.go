package view

import (
	"sort"

	"checkline/internal/state"
)

// Statistics aggregates completion counts over active (condition-met)
// questions, partitioned into required and optional.
type Statistics struct {
	TotalRequired     int `json:"total_required"`
	AnsweredRequired  int `json:"answered_required"`
	RemainingRequired int `json:"remaining_required"`
	TotalOptional     int `json:"total_optional"`
	AnsweredOptional  int `json:"answered_optional"`
	RemainingOptional int `json:"remaining_optional"`
}

type statsKey struct {
	ID       string
	Optional bool
	Active   bool
	Answered bool
}

type statsInput struct {
	Questions []statsKey
}

// Statistics computes the completion counts.
func (v *Views) Statistics(s state.State) Statistics {
	in := statsInputOf(s)
	return v.stats.get(in, func() Statistics {
		var st Statistics
		for _, q := range in.Questions {
			if !q.Active {
				continue
			}
			if q.Optional {
				st.TotalOptional++
				if q.Answered {
					st.AnsweredOptional++
				}
			} else {
				st.TotalRequired++
				if q.Answered {
					st.AnsweredRequired++
				}
			}
		}
		st.RemainingRequired = st.TotalRequired - st.AnsweredRequired
		st.RemainingOptional = st.TotalOptional - st.AnsweredOptional
		return st
	})
}

func statsInputOf(s state.State) statsInput {
	keys := make([]statsKey, 0, len(s.Questions))
	for _, q := range s.Questions {
		keys = append(keys, statsKey{
			ID:       q.ID,
			Optional: q.Optional,
			Active:   q.ConditionMet,
			Answered: s.Answered(q.ID),
		})
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].ID < keys[j].ID })
	return statsInput{Questions: keys}
}
