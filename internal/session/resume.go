package session

import (
	apperrors "github.com/forgeline/assetgen/internal/errors"
)

// Plan describes where a resumed sweep picks up.
type Plan struct {
	// Pending lists the asset types still missing a best selection, in the
	// original request order.
	Pending []string
	// StartIteration maps each pending asset type to the first iteration
	// that still needs to run (1-based). A value past Settings.Iterations
	// means all iterations are recorded and only selection remains.
	StartIteration map[string]int
}

// PlanResume computes a resume plan from a loaded session. The plan is
// derived purely from what is recorded on disk: a fully recorded iteration is
// never redone, so resuming a finished portion of the sweep issues zero
// producer calls.
//
// Returns ErrSessionComplete when the session is already in its terminal
// state or every asset type has a best selection.
func PlanResume(sess *Session) (*Plan, error) {
	if sess.Status == StatusComplete {
		return nil, apperrors.NewSessionError("nothing to resume", apperrors.ErrSessionComplete).
			WithSessionID(sess.ID)
	}

	pending := sess.PendingAssetTypes()
	if len(pending) == 0 {
		return nil, apperrors.NewSessionError("all asset types already selected", apperrors.ErrSessionComplete).
			WithSessionID(sess.ID)
	}

	start := make(map[string]int, len(pending))
	for _, t := range pending {
		start[t] = nextIteration(sess, t)
	}

	return &Plan{
		Pending:        pending,
		StartIteration: start,
	}, nil
}

// nextIteration returns the first iteration not yet recorded for the asset
// type. Records may in principle be sparse (an overwrite of an earlier
// iteration), so the scan walks from 1 rather than counting entries.
func nextIteration(sess *Session, assetType string) int {
	records := sess.IterationsFor(assetType)
	n := 1
	for {
		if _, ok := records[n]; !ok {
			return n
		}
		n++
	}
}
