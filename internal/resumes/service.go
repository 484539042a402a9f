package resumes

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/karthik1704/rsr-v1/internal/assets"
	"github.com/karthik1704/rsr-v1/internal/shared/metrics"
	"github.com/karthik1704/rsr-v1/internal/shared/telemetry"
)

// ImageStore stores and serves resume images.
type ImageStore interface {
	Upload(ctx context.Context, owner, fileName, declaredType string, r io.Reader) (string, error)
	Cleanup(ctx context.Context, owner, key string) error
	Open(ctx context.Context, key string) (assets.Image, error)
	Remove(ctx context.Context, key string) error
}

type Service struct {
	Repo   Repo
	Images ImageStore
}

func NewService(repo Repo, images ImageStore) *Service {
	return &Service{Repo: repo, Images: images}
}

// Create starts an empty resume for owner. Owners get one resume each.
func (s *Service) Create(ctx context.Context, owner string, patch ResumePatch) (Aggregate, error) {
	res := patch.Apply(Resume{ID: uuid.NewString(), UserID: owner})
	if err := s.Repo.Create(ctx, res); err != nil {
		return Aggregate{}, err
	}
	telemetry.Info("resume.created", map[string]any{"resume_id": res.ID, "user_id": owner})
	return s.Repo.Get(ctx, res.ID)
}

// GetOwned loads a resume and hides resumes owned by someone else behind the
// same not-found error as missing ones.
func (s *Service) GetOwned(ctx context.Context, owner, resumeID string) (Aggregate, error) {
	agg, err := s.Repo.Get(ctx, resumeID)
	if err != nil {
		return Aggregate{}, err
	}
	if agg.UserID != owner {
		return Aggregate{}, resumeNotFound()
	}
	return agg, nil
}

func (s *Service) GetMine(ctx context.Context, owner string) (Aggregate, error) {
	return s.Repo.GetByUser(ctx, owner)
}

func (s *Service) UpdateScalars(ctx context.Context, owner, resumeID string, patch ResumePatch) (Aggregate, error) {
	return s.Update(ctx, owner, resumeID, UpdateRequest{ResumePatch: patch})
}

// Update applies scalar changes and every child list present in req in one
// transaction. A failing list leaves the whole resume untouched.
func (s *Service) Update(ctx context.Context, owner, resumeID string, req UpdateRequest) (Aggregate, error) {
	agg, err := s.GetOwned(ctx, owner, resumeID)
	if err != nil {
		return Aggregate{}, err
	}
	res := req.ResumePatch.Apply(agg.Resume)
	changes := Changes{Resume: &res}

	if req.Experiences != nil {
		if changes.Experiences, err = s.Experiences().plan(agg, *req.Experiences); err != nil {
			return Aggregate{}, err
		}
	}
	if req.Educations != nil {
		if changes.Educations, err = s.Educations().plan(agg, *req.Educations); err != nil {
			return Aggregate{}, err
		}
	}
	if req.LanguageSkills != nil {
		if changes.LanguageSkills, err = s.LanguageSkills().plan(agg, *req.LanguageSkills); err != nil {
			return Aggregate{}, err
		}
	}
	if req.DrivingLicenses != nil {
		if changes.DrivingLicenses, err = s.DrivingLicenses().plan(agg, *req.DrivingLicenses); err != nil {
			return Aggregate{}, err
		}
	}
	if req.TrainingAwards != nil {
		if changes.TrainingAwards, err = s.TrainingAwards().plan(agg, *req.TrainingAwards); err != nil {
			return Aggregate{}, err
		}
	}
	if req.Others != nil {
		if changes.Others, err = s.Others().plan(agg, *req.Others); err != nil {
			return Aggregate{}, err
		}
	}

	if err := s.apply(ctx, resumeID, changes); err != nil {
		return Aggregate{}, err
	}
	return s.Repo.Get(ctx, resumeID)
}

// Delete removes the resume with its children. The stored image is removed
// afterwards on a best-effort basis.
func (s *Service) Delete(ctx context.Context, owner, resumeID string) error {
	agg, err := s.GetOwned(ctx, owner, resumeID)
	if err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, resumeID); err != nil {
		return err
	}
	telemetry.Info("resume.deleted", map[string]any{"resume_id": resumeID, "user_id": owner})
	if agg.ImageKey != nil && s.Images != nil {
		if err := s.Images.Remove(ctx, *agg.ImageKey); err != nil {
			metrics.IncAssetCleanupFailed()
			telemetry.Warn("resume.image_cleanup_failed", map[string]any{
				"resume_id": resumeID,
				"key":       *agg.ImageKey,
				"error":     err,
			})
		}
	}
	return nil
}

// SetImage stores a new image and records its key on the resume. The previous
// object is removed only after the new key is committed. If that removal fails
// in strict mode the previous key is put back before the error is returned.
func (s *Service) SetImage(ctx context.Context, owner, resumeID, fileName, contentType string, r io.Reader) (Aggregate, error) {
	agg, err := s.GetOwned(ctx, owner, resumeID)
	if err != nil {
		return Aggregate{}, err
	}
	key, err := s.Images.Upload(ctx, owner, fileName, contentType, r)
	if err != nil {
		return Aggregate{}, err
	}
	previous := agg.ImageKey
	res := agg.Resume
	res.ImageKey = &key
	if err := s.apply(ctx, resumeID, Changes{Resume: &res}); err != nil {
		s.discardImage(ctx, resumeID, key)
		return Aggregate{}, err
	}

	if previous != nil && *previous != key {
		if err := s.Images.Cleanup(ctx, owner, *previous); err != nil {
			res.ImageKey = previous
			if restoreErr := s.apply(ctx, resumeID, Changes{Resume: &res}); restoreErr != nil {
				telemetry.Error("resume.image_restore_failed", map[string]any{
					"resume_id": resumeID,
					"key":       *previous,
					"error":     restoreErr,
				})
				return Aggregate{}, err
			}
			s.discardImage(ctx, resumeID, key)
			return Aggregate{}, err
		}
	}
	return s.Repo.Get(ctx, resumeID)
}

func (s *Service) discardImage(ctx context.Context, resumeID, key string) {
	if err := s.Images.Remove(ctx, key); err != nil {
		telemetry.Error("resume.image_orphaned", map[string]any{"resume_id": resumeID, "key": key, "error": err})
	}
}

// Image returns the stored image of a resume.
func (s *Service) Image(ctx context.Context, owner, resumeID string) (assets.Image, error) {
	agg, err := s.GetOwned(ctx, owner, resumeID)
	if err != nil {
		return assets.Image{}, err
	}
	if agg.ImageKey == nil {
		return assets.Image{}, imageNotFound()
	}
	return s.Images.Open(ctx, *agg.ImageKey)
}

func (s *Service) apply(ctx context.Context, resumeID string, changes Changes) error {
	err := s.Repo.Apply(ctx, resumeID, changes)
	metrics.ObserveResumeSync(changes.Rows(), err)
	if err != nil {
		return err
	}
	telemetry.Info("resume.updated", map[string]any{"resume_id": resumeID, "rows": changes.Rows()})
	return nil
}
