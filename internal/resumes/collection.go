package resumes

import (
	"context"
	"strconv"
	"strings"

	"github.com/karthik1704/rsr-v1/internal/reconcile"
	"github.com/karthik1704/rsr-v1/internal/shared/apperr"
	"github.com/karthik1704/rsr-v1/internal/shared/optional"
)

// variant binds one child record type to the aggregate.
type variant[R, P any] struct {
	name    string
	adapter reconcile.Adapter[R, P]
	records func(Aggregate) []R
	store   func(*Changes, *Sync[R])
	idField func(P) optional.Field[string]
	withID  func(P, string) P
}

// Collection operates on one child collection of a resume. Every operation,
// including the single-item ones, runs as a reconciliation of the whole
// collection so ownership and atomicity rules stay in one place.
type Collection[R, P any] struct {
	svc *Service
	v   variant[R, P]
}

func (c Collection[R, P]) Name() string {
	return c.v.name
}

func (c Collection[R, P]) List(ctx context.Context, owner, resumeID string) ([]R, error) {
	agg, err := c.svc.GetOwned(ctx, owner, resumeID)
	if err != nil {
		return nil, err
	}
	return c.v.records(agg), nil
}

// Sync makes the collection match incoming. An empty list clears it.
func (c Collection[R, P]) Sync(ctx context.Context, owner, resumeID string, incoming []P) ([]R, error) {
	agg, err := c.svc.GetOwned(ctx, owner, resumeID)
	if err != nil {
		return nil, err
	}
	s, err := c.plan(agg, incoming)
	if err != nil {
		return nil, err
	}
	if err := c.commit(ctx, resumeID, s); err != nil {
		return nil, err
	}
	return cloneSlice(s.Plan.Result), nil
}

// Add appends a new record. The patch must not carry an id.
func (c Collection[R, P]) Add(ctx context.Context, owner, resumeID string, p P) (R, error) {
	var zero R
	if c.v.idField(p).Set && !c.v.idField(p).Null {
		return zero, apperr.Invalid("invalid record", apperr.FieldIssue{Field: "id", Issue: "must be omitted for new records"})
	}
	agg, err := c.svc.GetOwned(ctx, owner, resumeID)
	if err != nil {
		return zero, err
	}
	incoming := append(reconcile.Keep(c.v.adapter, c.v.records(agg), c.ref), p)
	s, err := c.plan(agg, incoming)
	if err != nil {
		return zero, err
	}
	if err := c.commit(ctx, resumeID, s); err != nil {
		return zero, err
	}
	return s.Plan.Result[len(s.Plan.Result)-1], nil
}

// Patch merges p into the record childID, keeping its position.
func (c Collection[R, P]) Patch(ctx context.Context, owner, resumeID, childID string, p P) (R, error) {
	var zero R
	agg, err := c.svc.GetOwned(ctx, owner, resumeID)
	if err != nil {
		return zero, err
	}
	current := c.v.records(agg)
	incoming := make([]P, 0, len(current))
	found := false
	for _, r := range current {
		id := c.v.adapter.RecordID(r)
		if id == childID {
			incoming = append(incoming, c.v.withID(p, childID))
			found = true
			continue
		}
		incoming = append(incoming, c.ref(id))
	}
	if !found {
		return zero, childNotFound(childID)
	}
	s, err := c.plan(agg, incoming)
	if err != nil {
		return zero, err
	}
	if err := c.commit(ctx, resumeID, s); err != nil {
		return zero, err
	}
	for _, r := range s.Plan.Result {
		if c.v.adapter.RecordID(r) == childID {
			return r, nil
		}
	}
	return zero, childNotFound(childID)
}

// Remove deletes the record childID.
func (c Collection[R, P]) Remove(ctx context.Context, owner, resumeID, childID string) error {
	agg, err := c.svc.GetOwned(ctx, owner, resumeID)
	if err != nil {
		return err
	}
	current := c.v.records(agg)
	found := false
	for _, r := range current {
		if c.v.adapter.RecordID(r) == childID {
			found = true
			break
		}
	}
	if !found {
		return childNotFound(childID)
	}
	s, err := c.plan(agg, reconcile.Keep(c.v.adapter, current, c.ref, childID))
	if err != nil {
		return err
	}
	return c.commit(ctx, resumeID, s)
}

func (c Collection[R, P]) plan(agg Aggregate, incoming []P) (*Sync[R], error) {
	for i, p := range incoming {
		f := c.v.idField(p)
		if f.HasValue() && strings.TrimSpace(f.Value) == "" {
			return nil, apperr.Invalid("invalid record", apperr.FieldIssue{
				Field: "[" + strconv.Itoa(i) + "].id",
				Issue: "must not be empty",
			})
		}
	}
	current := c.v.records(agg)
	plan, err := reconcile.Reconcile(c.v.adapter, current, incoming)
	if err != nil {
		return nil, err
	}
	return &Sync[R]{Before: current, Plan: plan}, nil
}

func (c Collection[R, P]) commit(ctx context.Context, resumeID string, s *Sync[R]) error {
	var changes Changes
	c.v.store(&changes, s)
	return c.svc.apply(ctx, resumeID, changes)
}

// ref is a patch that names a record without changing it.
func (c Collection[R, P]) ref(id string) P {
	var p P
	return c.v.withID(p, id)
}

func (s *Service) Experiences() Collection[Experience, ExperiencePatch] {
	return Collection[Experience, ExperiencePatch]{svc: s, v: experienceVariant}
}

func (s *Service) Educations() Collection[Education, EducationPatch] {
	return Collection[Education, EducationPatch]{svc: s, v: educationVariant}
}

func (s *Service) LanguageSkills() Collection[LanguageSkill, LanguageSkillPatch] {
	return Collection[LanguageSkill, LanguageSkillPatch]{svc: s, v: languageSkillVariant}
}

func (s *Service) DrivingLicenses() Collection[DrivingLicense, DrivingLicensePatch] {
	return Collection[DrivingLicense, DrivingLicensePatch]{svc: s, v: drivingLicenseVariant}
}

func (s *Service) TrainingAwards() Collection[TrainingAward, TrainingAwardPatch] {
	return Collection[TrainingAward, TrainingAwardPatch]{svc: s, v: trainingAwardVariant}
}

func (s *Service) Others() Collection[Other, OtherPatch] {
	return Collection[Other, OtherPatch]{svc: s, v: otherVariant}
}

var experienceVariant = variant[Experience, ExperiencePatch]{
	name:    "experiences",
	adapter: experienceAdapter{},
	records: func(a Aggregate) []Experience { return a.Experiences },
	store:   func(c *Changes, s *Sync[Experience]) { c.Experiences = s },
	idField: func(p ExperiencePatch) optional.Field[string] { return p.ID },
	withID:  func(p ExperiencePatch, id string) ExperiencePatch { p.ID = optional.Of(id); return p },
}

var educationVariant = variant[Education, EducationPatch]{
	name:    "educations",
	adapter: educationAdapter{},
	records: func(a Aggregate) []Education { return a.Educations },
	store:   func(c *Changes, s *Sync[Education]) { c.Educations = s },
	idField: func(p EducationPatch) optional.Field[string] { return p.ID },
	withID:  func(p EducationPatch, id string) EducationPatch { p.ID = optional.Of(id); return p },
}

var languageSkillVariant = variant[LanguageSkill, LanguageSkillPatch]{
	name:    "language-skills",
	adapter: languageSkillAdapter{},
	records: func(a Aggregate) []LanguageSkill { return a.LanguageSkills },
	store:   func(c *Changes, s *Sync[LanguageSkill]) { c.LanguageSkills = s },
	idField: func(p LanguageSkillPatch) optional.Field[string] { return p.ID },
	withID:  func(p LanguageSkillPatch, id string) LanguageSkillPatch { p.ID = optional.Of(id); return p },
}

var drivingLicenseVariant = variant[DrivingLicense, DrivingLicensePatch]{
	name:    "driving-licenses",
	adapter: drivingLicenseAdapter{},
	records: func(a Aggregate) []DrivingLicense { return a.DrivingLicenses },
	store:   func(c *Changes, s *Sync[DrivingLicense]) { c.DrivingLicenses = s },
	idField: func(p DrivingLicensePatch) optional.Field[string] { return p.ID },
	withID:  func(p DrivingLicensePatch, id string) DrivingLicensePatch { p.ID = optional.Of(id); return p },
}

var trainingAwardVariant = variant[TrainingAward, TrainingAwardPatch]{
	name:    "training-awards",
	adapter: trainingAwardAdapter{},
	records: func(a Aggregate) []TrainingAward { return a.TrainingAwards },
	store:   func(c *Changes, s *Sync[TrainingAward]) { c.TrainingAwards = s },
	idField: func(p TrainingAwardPatch) optional.Field[string] { return p.ID },
	withID:  func(p TrainingAwardPatch, id string) TrainingAwardPatch { p.ID = optional.Of(id); return p },
}

var otherVariant = variant[Other, OtherPatch]{
	name:    "others",
	adapter: otherAdapter{},
	records: func(a Aggregate) []Other { return a.Others },
	store:   func(c *Changes, s *Sync[Other]) { c.Others = s },
	idField: func(p OtherPatch) optional.Field[string] { return p.ID },
	withID:  func(p OtherPatch, id string) OtherPatch { p.ID = optional.Of(id); return p },
}
