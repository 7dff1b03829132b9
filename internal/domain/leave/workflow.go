package leave

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ResolveWorkflow selects the active workflow whose inclusive
// [MinDays, MaxDays] band contains days. Bands of active workflows are kept
// non-overlapping at write time, so at most one can match. Returns
// ErrNoWorkflow when none does; callers treat that as "no extra gating", not
// as a failure.
func ResolveWorkflow(workflows []ApprovalWorkflow, days decimal.Decimal) (ApprovalWorkflow, error) {
	for _, workflow := range workflows {
		if !workflow.IsActive {
			continue
		}
		if days.GreaterThanOrEqual(workflow.MinDays) && days.LessThanOrEqual(workflow.MaxDays) {
			return workflow, nil
		}
	}
	return ApprovalWorkflow{}, ErrNoWorkflow
}

// AuthorizedLevel returns the first level of the workflow whose role set
// contains role.
//
// Levels are not enforced in order and no per-request sign-off tracking
// exists: one approver whose role appears at any level may approve the whole
// request. Sequential multi-level sign-off remains an open product question;
// until it is answered the flat behavior stands.
func AuthorizedLevel(workflow ApprovalWorkflow, role string) (ApprovalLevel, bool) {
	for _, level := range workflow.Levels {
		for _, candidate := range level.Roles {
			if candidate == role {
				return level, true
			}
		}
	}
	return ApprovalLevel{}, false
}

// bandsOverlap is the closed-interval intersection test on day bands.
func bandsOverlap(a, b ApprovalWorkflow) bool {
	return a.MinDays.LessThanOrEqual(b.MaxDays) && b.MinDays.LessThanOrEqual(a.MaxDays)
}

// ValidateWorkflow checks a candidate against structural rules and the
// existing active workflows. Only active workflows compete for bands.
func ValidateWorkflow(existing []ApprovalWorkflow, candidate ApprovalWorkflow) error {
	if candidate.Name == "" {
		return invalid("name", "is required")
	}
	if candidate.MinDays.Sign() < 0 {
		return invalid("minDays", "must not be negative")
	}
	if candidate.MaxDays.LessThan(candidate.MinDays) {
		return invalid("maxDays", "must be greater than or equal to minDays")
	}
	if len(candidate.Levels) == 0 {
		return invalid("levels", "at least one approval level is required")
	}
	for _, level := range candidate.Levels {
		if len(level.Roles) == 0 {
			return invalid("levels", fmt.Sprintf("level %d has no roles", level.Level))
		}
	}
	if !candidate.IsActive {
		return nil
	}
	for _, workflow := range existing {
		if !workflow.IsActive || workflow.ID == candidate.ID {
			continue
		}
		if bandsOverlap(workflow, candidate) {
			return fmt.Errorf("%w: band overlaps workflow %q", ErrConflict, workflow.Name)
		}
	}
	return nil
}
