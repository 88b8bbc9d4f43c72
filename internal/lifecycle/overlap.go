package lifecycle

import (
	"fmt"

	"github.com/spec-kit/shift-service/internal/domain"
	apperrors "github.com/spec-kit/shift-service/pkg/util"
)

// FindOverlap returns the first shift in held that conflicts with candidate.
// held is the claimant's shifts; only those on the candidate's store and date
// that are still open (not completed or locked) are considered.
func FindOverlap(candidate *domain.Shift, held []domain.Shift) (*domain.Shift, error) {
	want, err := ParseInterval(candidate.StartTime, candidate.EndTime)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error(), map[string]any{"shift_id": candidate.ID})
	}
	for i := range held {
		existing := &held[i]
		if existing.ID == candidate.ID || existing.Terminal() {
			continue
		}
		if existing.StoreID != candidate.StoreID || existing.DateKey() != candidate.DateKey() {
			continue
		}
		have, err := ParseInterval(existing.StartTime, existing.EndTime)
		if err != nil {
			// stored rows are validated on write; skip anything unreadable
			continue
		}
		if have.Overlaps(want) {
			return existing, nil
		}
	}
	return nil, nil
}

// CheckOverlap turns a conflicting shift into an OverlapError.
func CheckOverlap(candidate *domain.Shift, held []domain.Shift) error {
	conflict, err := FindOverlap(candidate, held)
	if err != nil {
		return err
	}
	if conflict == nil {
		return nil
	}
	return apperrors.NewOverlap(
		fmt.Sprintf("shift %s-%s on %s overlaps your shift %s-%s",
			candidate.StartTime, candidate.EndTime, candidate.DateKey(), conflict.StartTime, conflict.EndTime),
		map[string]any{
			"shift_id":             candidate.ID,
			"conflicting_shift_id": conflict.ID,
			"date":                 candidate.DateKey(),
		},
	)
}
