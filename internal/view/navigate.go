package view

import "checkline/internal/state"

// Previous returns the id before current in the visible ordering, or false at
// the first position (and when current is not in the list).
func Previous(ids []string, current string) (string, bool) {
	for i, id := range ids {
		if id == current {
			if i == 0 {
				return "", false
			}
			return ids[i-1], true
		}
	}
	return "", false
}

// Next returns the id after current in the visible ordering, or false at the
// last position (and when current is not in the list).
func Next(ids []string, current string) (string, bool) {
	for i, id := range ids {
		if id == current {
			if i == len(ids)-1 {
				return "", false
			}
			return ids[i+1], true
		}
	}
	return "", false
}

// NextQuestionID computes the navigation target after current. Without
// skipAnswered it behaves like Next. With skipAnswered it walks past
// questions that already have an answer; when every later candidate is
// answered it falls back to the starting id itself rather than reporting
// absence. That asymmetry with Previous/Next is long-standing observed
// behavior and is pinned by tests.
func NextQuestionID(s state.State, ids []string, current string, skipAnswered bool) (string, bool) {
	if !skipAnswered {
		return Next(ids, current)
	}
	if !contains(ids, current) {
		return "", false
	}
	at := current
	for range ids {
		next, ok := Next(ids, at)
		if !ok {
			return current, true
		}
		if !s.Answered(next) {
			return next, true
		}
		at = next
	}
	return current, true
}
