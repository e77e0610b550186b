package records

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dmitrijs2005/clientadmin/internal/common"
)

// Search returns the records whose name, email or client_id contains query,
// ignoring case. An empty query matches everything. The source is not
// modified.
func Search(collection []Record, query string) []Record {
	pos := Positions(collection, query)

	out := make([]Record, 0, len(pos))
	for _, i := range pos {
		out = append(out, collection[i])
	}

	return out
}

// Positions returns the indexes in collection of the records Search would
// return, in order.
func Positions(collection []Record, query string) []int {
	q := strings.ToLower(strings.TrimSpace(query))

	out := make([]int, 0, len(collection))
	for i, r := range collection {
		if q == "" ||
			strings.Contains(strings.ToLower(r.Name), q) ||
			strings.Contains(strings.ToLower(r.Email), q) ||
			strings.Contains(strings.ToLower(r.ClientID), q) {
			out = append(out, i)
		}
	}

	return out
}

// Row is an edited record together with the index it had in the collection
// it was rendered from. Index is -1 when unknown.
type Row struct {
	Index  int
	Record Record
}

// Reconcile writes the rows of an edited view back into collection, matched
// by exact client_id. A matched record is replaced as a whole. Rows whose
// client_id is not in collection are dropped. If an id occurs several times,
// the k-th edited row with that id replaces the k-th record with it.
func Reconcile(collection, edited []Record) []Record {
	rows := make([]Row, 0, len(edited))
	for _, e := range edited {
		rows = append(rows, Row{Index: -1, Record: e})
	}
	return ReconcileRows(collection, rows)
}

// ReconcileRows is Reconcile for rows that carry their original index. A row
// whose index still holds a record with the same client_id replaces exactly
// that record. The remaining rows are matched by client_id as in Reconcile,
// skipping records already replaced.
func ReconcileRows(collection []Record, rows []Row) []Record {
	out := slices.Clone(collection)
	claimed := make(map[int]bool, len(rows))

	var pending []Record
	for _, row := range rows {
		i := row.Index
		if i >= 0 && i < len(collection) && !claimed[i] && collection[i].ClientID == row.Record.ClientID {
			out[i] = Normalize(row.Record)
			claimed[i] = true
			continue
		}
		pending = append(pending, row.Record)
	}

	positions := make(map[string][]int, len(collection))
	for i, r := range collection {
		if !claimed[i] {
			positions[r.ClientID] = append(positions[r.ClientID], i)
		}
	}

	used := make(map[string]int)
	for _, e := range pending {
		idx := positions[e.ClientID]
		n := used[e.ClientID]
		if n >= len(idx) {
			continue
		}
		out[idx[n]] = Normalize(e)
		used[e.ClientID] = n + 1
	}

	return out
}

// Add appends r after normalizing it. The client_id must be non-empty and
// not already present.
func Add(collection []Record, r Record) ([]Record, error) {
	if strings.TrimSpace(r.ClientID) == "" {
		return nil, fmt.Errorf("%w: client_id is required", common.ErrValidation)
	}

	for _, existing := range collection {
		if existing.ClientID == r.ClientID {
			return nil, fmt.Errorf("%w: %q", common.ErrDuplicateKey, r.ClientID)
		}
	}

	out := make([]Record, 0, len(collection)+1)
	out = append(out, collection...)
	return append(out, Normalize(r)), nil
}

// Remove drops every record whose client_id is in ids. An empty ids returns
// the collection unchanged together with ErrNothingSelected.
func Remove(collection []Record, ids []string) ([]Record, error) {
	if len(ids) == 0 {
		return collection, common.ErrNothingSelected
	}

	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	out := make([]Record, 0, len(collection))
	for _, r := range collection {
		if _, ok := drop[r.ClientID]; !ok {
			out = append(out, r)
		}
	}

	return out, nil
}
