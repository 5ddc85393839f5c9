package view

import (
	"sort"

	"checkline/internal/domain"
	"checkline/internal/state"
)

type displayKey struct {
	ExternalKey string
	Answer      domain.Answer
	Related     domain.Answer
	HasAnswer   bool
	HasRelated  bool
}

type displayInput struct {
	Questions   []displayKey
	ShowRelated bool
}

// DisplayAnswers chooses, per question, which answer a compact list surfaces:
// the related answer when showRelated is set and one exists, the own answer
// otherwise. Results key on the question's stable external key so they
// compose with UI row lookups.
func (v *Views) DisplayAnswers(s state.State, showRelated bool) map[string]domain.Answer {
	in := displayInputOf(s, showRelated)
	return v.display.get(in, func() map[string]domain.Answer {
		out := make(map[string]domain.Answer, len(in.Questions))
		for _, q := range in.Questions {
			if in.ShowRelated && q.HasRelated {
				out[q.ExternalKey] = q.Related
				continue
			}
			if q.HasAnswer {
				out[q.ExternalKey] = q.Answer
			}
		}
		return out
	})
}

func displayInputOf(s state.State, showRelated bool) displayInput {
	keys := make([]displayKey, 0, len(s.Questions))
	for _, q := range s.Questions {
		k := displayKey{ExternalKey: q.ExternalKey}
		k.Answer, k.HasAnswer = s.AnswerForQuestion(q.ID)
		k.Related, k.HasRelated = s.RelatedAnswerForQuestion(q.ID)
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].ExternalKey < keys[j].ExternalKey })
	return displayInput{Questions: keys, ShowRelated: showRelated}
}
