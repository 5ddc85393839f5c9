// Package discovery populates the store from the checklist service and
// builds the read-only specification table the cascade resolver and the
// lifecycle look collection requests up in.
package discovery

import (
	"context"
	"fmt"

	"checkline/internal/domain"
	"checkline/internal/remote"
	"checkline/internal/state"
)

// Table maps collection-request id to its specification. A table is built
// once per discovery and never mutated; rediscovery swaps the whole table.
type Table map[string]domain.Specification

// Lookup resolves a collection request's specification.
func (t Table) Lookup(collectionRequestID string) (domain.Specification, bool) {
	spec, ok := t[collectionRequestID]
	return spec, ok
}

// Run fetches the configured programs with their checklists, questions,
// sections and specifications, dispatches them into the store, and returns
// the specification table.
func Run(ctx context.Context, rc *remote.Client, store *state.Store, programIDs []string) (Table, error) {
	programs, err := rc.Programs(ctx, programIDs)
	if err != nil {
		return nil, fmt.Errorf("fetch programs: %w", err)
	}
	var checklists []domain.Checklist
	for _, p := range programs {
		items, err := rc.Checklists(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("fetch checklists for program %s: %w", p.ID, err)
		}
		checklists = append(checklists, items...)
	}
	store.Dispatch(state.ReceivePrograms{Programs: programs})
	store.Dispatch(state.ReceiveChecklists{Checklists: checklists})

	for _, c := range checklists {
		u, err := rc.Questions(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("fetch questions for checklist %s: %w", c.ID, err)
		}
		store.Dispatch(state.ReceiveQuestions{Questions: u.Questions})
		store.Dispatch(state.ReceiveAnswers{Answers: u.Answers})
		store.Dispatch(state.ReceiveRelatedAnswers{Answers: u.RelatedAnswers})
	}

	sections, err := rc.Sections(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch sections: %w", err)
	}
	store.Dispatch(state.ReceiveSections{Sections: sections})

	specs, err := rc.Specifications(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch specifications: %w", err)
	}
	table := make(Table, len(specs))
	for _, spec := range specs {
		table[spec.CollectionRequestID] = spec
	}
	return table, nil
}

// Rediscover resets the entity tables and runs discovery again, for a
// program switch. The caller replaces its table reference with the returned
// one; the old table stays valid for readers still holding it.
func Rediscover(ctx context.Context, rc *remote.Client, store *state.Store, programIDs []string) (Table, error) {
	store.Dispatch(state.ClearEntities{})
	return Run(ctx, rc, store, programIDs)
}
