package resumes

import (
	"context"
	"sync"
	"time"
)

type MemoryRepo struct {
	mu      sync.RWMutex
	resumes map[string]Aggregate
	byUser  map[string]string
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		resumes: make(map[string]Aggregate),
		byUser:  make(map[string]string),
	}
}

func (r *MemoryRepo) Create(ctx context.Context, res Resume) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byUser[res.UserID]; ok {
		return resumeExists()
	}
	now := time.Now().UTC()
	res.CreatedAt = now
	res.UpdatedAt = now
	r.resumes[res.ID] = Aggregate{Resume: res}
	r.byUser[res.UserID] = res.ID
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, resumeID string) (Aggregate, error) {
	if err := ctx.Err(); err != nil {
		return Aggregate{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	agg, ok := r.resumes[resumeID]
	if !ok {
		return Aggregate{}, resumeNotFound()
	}
	return cloneAggregate(agg), nil
}

func (r *MemoryRepo) GetByUser(ctx context.Context, userID string) (Aggregate, error) {
	if err := ctx.Err(); err != nil {
		return Aggregate{}, err
	}
	r.mu.RLock()
	id, ok := r.byUser[userID]
	r.mu.RUnlock()
	if !ok {
		return Aggregate{}, resumeNotFound()
	}
	return r.Get(ctx, id)
}

// Apply validates every change against the stored state before touching it,
// so a failing change set leaves the resume as it was.
func (r *MemoryRepo) Apply(ctx context.Context, resumeID string, c Changes) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	agg, ok := r.resumes[resumeID]
	if !ok {
		return resumeNotFound()
	}

	var err error
	next := agg
	if next.Experiences, err = applyMemory(agg.Experiences, c.Experiences, experienceAdapter{}.RecordID); err != nil {
		return err
	}
	if next.Educations, err = applyMemory(agg.Educations, c.Educations, educationAdapter{}.RecordID); err != nil {
		return err
	}
	if next.LanguageSkills, err = applyMemory(agg.LanguageSkills, c.LanguageSkills, languageSkillAdapter{}.RecordID); err != nil {
		return err
	}
	if next.DrivingLicenses, err = applyMemory(agg.DrivingLicenses, c.DrivingLicenses, drivingLicenseAdapter{}.RecordID); err != nil {
		return err
	}
	if next.TrainingAwards, err = applyMemory(agg.TrainingAwards, c.TrainingAwards, trainingAwardAdapter{}.RecordID); err != nil {
		return err
	}
	if next.Others, err = applyMemory(agg.Others, c.Others, otherAdapter{}.RecordID); err != nil {
		return err
	}
	if c.Resume != nil {
		res := *c.Resume
		res.ID = agg.ID
		res.UserID = agg.UserID
		res.CreatedAt = agg.CreatedAt
		next.Resume = res
	}
	next.UpdatedAt = time.Now().UTC()
	r.resumes[resumeID] = next
	return nil
}

func (r *MemoryRepo) Delete(ctx context.Context, resumeID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	agg, ok := r.resumes[resumeID]
	if !ok {
		return resumeNotFound()
	}
	delete(r.resumes, resumeID)
	delete(r.byUser, agg.UserID)
	return nil
}

func applyMemory[R any](stored []R, s *Sync[R], idOf func(R) string) ([]R, error) {
	if s == nil {
		return stored, nil
	}
	present := make(map[string]struct{}, len(stored))
	for _, rec := range stored {
		present[idOf(rec)] = struct{}{}
	}
	for _, id := range s.Plan.Deletes {
		if _, ok := present[id]; !ok {
			return nil, childNotFound(id)
		}
	}
	for _, rec := range s.Plan.Updates {
		if _, ok := present[idOf(rec)]; !ok {
			return nil, childNotFound(idOf(rec))
		}
	}
	return cloneSlice(s.Plan.Result), nil
}

func cloneAggregate(a Aggregate) Aggregate {
	a.Experiences = cloneSlice(a.Experiences)
	a.Educations = cloneSlice(a.Educations)
	a.LanguageSkills = cloneSlice(a.LanguageSkills)
	a.DrivingLicenses = cloneSlice(a.DrivingLicenses)
	a.TrainingAwards = cloneSlice(a.TrainingAwards)
	a.Others = cloneSlice(a.Others)
	return a
}

func cloneSlice[T any](s []T) []T {
	out := make([]T, len(s))
	copy(out, s)
	return out
}
