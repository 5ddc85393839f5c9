package state

// Store is the single mutable holder of a State. All writes funnel through
// Dispatch; readers take the current snapshot with State. The engine is
// single-threaded cooperative, so the store does no locking. Asynchronous
// work completes by dispatching further actions, never by writing tables.
type Store struct {
	state State
}

// NewStore returns a store holding an empty state.
func NewStore() *Store {
	return &Store{state: Empty()}
}

// State returns the current snapshot. The snapshot is immutable; holding it
// across dispatches is safe and is how memoized views detect change.
func (s *Store) State() State {
	return s.state
}

// Dispatch applies an action through the reducer.
func (s *Store) Dispatch(a Action) {
	s.state = Apply(s.state, a)
}
