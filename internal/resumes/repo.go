package resumes

import (
	"context"

	"github.com/karthik1704/rsr-v1/internal/reconcile"
	"github.com/karthik1704/rsr-v1/internal/shared/apperr"
)

// Sync is a reconciled collection together with the state it was computed
// from, which storage needs to renumber positions.
type Sync[R any] struct {
	Before []R
	Plan   reconcile.Plan[R]
}

// Changes is everything one request writes to a resume. Repos apply it
// atomically: either all of it lands or none of it does.
type Changes struct {
	Resume          *Resume
	Experiences     *Sync[Experience]
	Educations      *Sync[Education]
	LanguageSkills  *Sync[LanguageSkill]
	DrivingLicenses *Sync[DrivingLicense]
	TrainingAwards  *Sync[TrainingAward]
	Others          *Sync[Other]
}

// Rows reports how many child rows the changes write.
func (c Changes) Rows() int {
	return syncRows(c.Experiences) + syncRows(c.Educations) + syncRows(c.LanguageSkills) +
		syncRows(c.DrivingLicenses) + syncRows(c.TrainingAwards) + syncRows(c.Others)
}

func syncRows[R any](s *Sync[R]) int {
	if s == nil {
		return 0
	}
	return len(s.Plan.Deletes) + len(s.Plan.Creates) + len(s.Plan.Updates)
}

type Repo interface {
	// Create inserts an empty-collection resume. A second resume for the same
	// user is a conflict.
	Create(ctx context.Context, r Resume) error
	Get(ctx context.Context, resumeID string) (Aggregate, error)
	GetByUser(ctx context.Context, userID string) (Aggregate, error)
	Apply(ctx context.Context, resumeID string, changes Changes) error
	Delete(ctx context.Context, resumeID string) error
}

func resumeNotFound() error {
	return apperr.NotFound("resume not found")
}

func resumeExists() error {
	return apperr.Conflict("user already has a resume")
}

func childNotFound(id string) error {
	return apperr.NotFound("record %s not found", id)
}

func imageNotFound() error {
	return apperr.NotFound("resume has no image")
}
