package domain

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// NewPickTaskID creates a new unique pick task identifier
func NewPickTaskID() string {
	return fmt.Sprintf("PT-%s", uuid.New().String()[:12])
}

// SequenceStops orders pick stops along the serpentine warehouse traversal
// (zone, then aisle ascending with rack direction alternating per aisle,
// then level) and stamps the resulting sequence numbers. Ties break on
// lexical location code so the plan is deterministic.
func SequenceStops(stops []PickStop) []PickStop {
	sorted := make([]PickStop, len(stops))
	copy(sorted, stops)

	sort.SliceStable(sorted, func(i, j int) bool {
		a := ParseLocationOrSimple(sorted[i].LocationID)
		b := ParseLocationOrSimple(sorted[j].LocationID)
		if !a.Equals(b) {
			return a.LessByTraversal(b)
		}
		// Same physical location: keep stops stable by task for
		// reproducible plans.
		return sorted[i].TaskID < sorted[j].TaskID
	})

	for i := range sorted {
		sorted[i].Sequence = i + 1
	}
	return sorted
}
