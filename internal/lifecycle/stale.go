package lifecycle

import (
	"fmt"

	"github.com/sells-group/outreach-cli/internal/model"
)

// StaleError describes a lead left in RUNNING by an interrupted batch.
// Stale leads are reported, never recovered automatically.
type StaleError struct {
	LeadID string
	Label  string
	Track  Track
}

func (e *StaleError) Error() string {
	return fmt.Sprintf("lifecycle: lead %s (%s) stuck in %s on %s track", e.LeadID, e.Label, model.StageRunning, e.Track)
}

// Stale returns one StaleError per track of each lead that is RUNNING.
func Stale(leads []model.Lead) []*StaleError {
	var out []*StaleError
	for i := range leads {
		l := &leads[i]
		if l.EnrichStatus == model.StageRunning {
			out = append(out, &StaleError{LeadID: l.ID, Label: l.Label(), Track: TrackEnrich})
		}
		if l.AIStatus == model.StageRunning {
			out = append(out, &StaleError{LeadID: l.ID, Label: l.Label(), Track: TrackAI})
		}
	}
	return out
}
