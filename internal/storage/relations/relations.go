// Package relations rebuilds many-to-many relationships out of
// junction-table rows. The store has no joins, so a resolution is one
// filtered junction read followed by a concurrent fan-out of
// single-record fetches against the target table.
package relations

import (
	"context"
	"log/slog"
	"sync"

	"moviecenter/proj/internal/domain/filters"
	"moviecenter/proj/internal/storage/airtable"

	"golang.org/x/sync/errgroup"
)

// Policy decides how the fan-in treats a failed target fetch.
type Policy int

const (
	// Strict aborts the resolution on the first sub-fetch failure and
	// discards any partial results.
	Strict Policy = iota
	// Lenient skips targets that cannot be fetched. A junction row may
	// reference a deleted record; that is a resolvable condition, not
	// a failure of the whole resolution.
	Lenient
)

type Query struct {
	JunctionTable string
	ForeignKey    string
	ParentID      string
	TargetTable   string
}

type Resolver struct {
	log         *slog.Logger
	client      *airtable.Client
	maxInFlight int
}

// New builds a resolver. maxInFlight bounds the number of concurrent
// target fetches per resolution; zero or negative means unbounded.
func New(log *slog.Logger, client *airtable.Client, maxInFlight int) *Resolver {
	return &Resolver{
		log:         log,
		client:      client,
		maxInFlight: maxInFlight,
	}
}

// Resolve fetches every target record referenced from the junction rows
// whose foreign key matches q.ParentID. targetIDs extracts the linked
// ids from one junction field set (list-valued for saved movies,
// single-valued for the cast junctions).
//
// Results arrive in fan-in completion order, not id order; callers that
// need a stable order sort downstream.
func Resolve[J, T any](ctx context.Context, r *Resolver, q Query, policy Policy, targetIDs func(J) []string) ([]airtable.Record[T], error) {
	const op = "relations.Resolve"
	log := r.log.With("op", op, "junction", q.JunctionTable, "parent", q.ParentID)

	junctions, err := airtable.List[J](ctx, r.client, q.JunctionTable, airtable.ListOptions{
		Filter: filters.Equals(q.ForeignKey, q.ParentID),
	})
	if err != nil {
		log.Error("junction query failed", "err", err.Error())
		return nil, err
	}

	ids := make([]string, 0, len(junctions))
	for _, row := range junctions {
		ids = append(ids, targetIDs(row.Fields)...)
	}
	// No linked ids means no fan-out round at all.
	if len(ids) == 0 {
		return []airtable.Record[T]{}, nil
	}

	resolved := make([]airtable.Record[T], 0, len(ids))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	if r.maxInFlight > 0 {
		g.SetLimit(r.maxInFlight)
	}
	for _, id := range ids {
		id := id
		g.Go(func() error {
			rec, err := airtable.Get[T](gctx, r.client, q.TargetTable, id)
			if err != nil {
				if policy == Lenient {
					log.Warn("skipping unresolvable target", "table", q.TargetTable, "id", id, "err", err.Error())
					return nil
				}
				return err
			}
			mu.Lock()
			resolved = append(resolved, *rec)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return resolved, nil
}
