// Package reconcile computes the changes needed to turn a stored collection
// of child records into the collection a client submitted.
//
// Reconcile is pure: it never touches storage. Callers persist the returned
// Plan in a single transaction so that a failed plan leaves nothing behind.
package reconcile

import (
	"strconv"

	"github.com/karthik1704/rsr-v1/internal/shared/apperr"
)

// Adapter teaches Reconcile how to handle one record type R and its
// partial-update form P.
type Adapter[R any, P any] interface {
	// RecordID returns the stable id of a stored record.
	RecordID(r R) string
	// PatchID returns the id carried by a patch and whether one is present.
	PatchID(p P) (string, bool)
	// New builds a fresh record from a patch that carries no id.
	New(p P) (R, error)
	// Merge overwrites only the fields present in p.
	Merge(current R, p P) (R, error)
	// Equal reports whether two records hold the same field values.
	Equal(a, b R) bool
}

// Plan is the outcome of a reconciliation.
type Plan[R any] struct {
	Deletes []string
	Creates []R
	Updates []R
	// Result is the collection after the plan is applied, in submitted order.
	Result []R
}

// Empty reports whether applying the plan would change nothing.
func (p Plan[R]) Empty() bool {
	return len(p.Deletes) == 0 && len(p.Creates) == 0 && len(p.Updates) == 0
}

// Reconcile diffs incoming against current.
//
// Records in current whose id is not referenced by incoming are deleted.
// Patches without an id become new records. Patches with an id must refer to
// a record in current; the first one that does not aborts the whole
// reconciliation with a not-found error and no plan.
func Reconcile[R any, P any](a Adapter[R, P], current []R, incoming []P) (Plan[R], error) {
	byID := make(map[string]R, len(current))
	for _, r := range current {
		byID[a.RecordID(r)] = r
	}

	seen := make(map[string]struct{}, len(incoming))
	for i, p := range incoming {
		id, ok := a.PatchID(p)
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			return Plan[R]{}, apperr.Invalid("duplicate id in collection", apperr.FieldIssue{
				Field: indexField(i),
				Issue: "id " + id + " appears more than once",
			})
		}
		if _, exists := byID[id]; !exists {
			return Plan[R]{}, apperr.NotFound("record %s not found", id)
		}
		seen[id] = struct{}{}
	}

	plan := Plan[R]{Result: make([]R, 0, len(incoming))}
	for _, r := range current {
		id := a.RecordID(r)
		if _, keep := seen[id]; !keep {
			plan.Deletes = append(plan.Deletes, id)
		}
	}

	for _, p := range incoming {
		id, ok := a.PatchID(p)
		if !ok {
			rec, err := a.New(p)
			if err != nil {
				return Plan[R]{}, err
			}
			plan.Creates = append(plan.Creates, rec)
			plan.Result = append(plan.Result, rec)
			continue
		}
		cur := byID[id]
		merged, err := a.Merge(cur, p)
		if err != nil {
			return Plan[R]{}, err
		}
		if !a.Equal(cur, merged) {
			plan.Updates = append(plan.Updates, merged)
		}
		plan.Result = append(plan.Result, merged)
	}
	return plan, nil
}

// Keep returns the patches that leave every record in current untouched.
// Combined with extra patches it expresses single-item operations as a
// reconciliation over the whole collection.
func Keep[R any, P any](a Adapter[R, P], current []R, ref func(id string) P, except ...string) []P {
	skip := make(map[string]struct{}, len(except))
	for _, id := range except {
		skip[id] = struct{}{}
	}
	out := make([]P, 0, len(current))
	for _, r := range current {
		id := a.RecordID(r)
		if _, ok := skip[id]; ok {
			continue
		}
		out = append(out, ref(id))
	}
	return out
}

func indexField(i int) string {
	return "[" + strconv.Itoa(i) + "].id"
}
