package resumes

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karthik1704/rsr-v1/internal/assets"
	"github.com/karthik1704/rsr-v1/internal/shared/apperr"
	"github.com/karthik1704/rsr-v1/internal/shared/optional"
	"github.com/karthik1704/rsr-v1/internal/shared/storage/object"
	"github.com/karthik1704/rsr-v1/internal/shared/storage/object/local"
)

const pngBytes = "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00"

// countingRepo records the change sets that reach storage.
// Setting failWith makes every Apply fail.
type countingRepo struct {
	*MemoryRepo
	applied  []Changes
	failWith error
}

func (r *countingRepo) Apply(ctx context.Context, resumeID string, c Changes) error {
	r.applied = append(r.applied, c)
	if r.failWith != nil {
		return r.failWith
	}
	return r.MemoryRepo.Apply(ctx, resumeID, c)
}

// guardedStore refuses to delete one key.
type guardedStore struct {
	object.ObjectStore
	denyKey string
	deleted []string
}

func (g *guardedStore) Delete(ctx context.Context, key string) error {
	if key == g.denyKey {
		return errors.New("access denied")
	}
	g.deleted = append(g.deleted, key)
	return g.ObjectStore.Delete(ctx, key)
}

func newTestService(t *testing.T) (*Service, *countingRepo, *assets.Service) {
	t.Helper()
	repo := &countingRepo{MemoryRepo: NewMemoryRepo()}
	images := assets.NewService(local.New(t.TempDir()), true, 0)
	return NewService(repo, images), repo, images
}

func experience(employer string) ExperiencePatch {
	return ExperiencePatch{
		Employer:         optional.Of(employer),
		Location:         optional.Of("Berlin"),
		Occupation:       optional.Of("Engineer"),
		FromDate:         optional.Of(MustDate("2020-01-01")),
		CurrentlyWorking: optional.Of(true),
		Responsibilities: optional.Of("Build things"),
	}
}

func ref(id string) ExperiencePatch {
	return ExperiencePatch{ID: optional.Of(id)}
}

func TestCreateSecondResumeConflicts(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	agg, err := svc.Create(ctx, "user-a", ResumePatch{Title: optional.Of("Backend engineer")})
	require.NoError(t, err)
	require.NotNil(t, agg.Title)
	assert.Equal(t, "Backend engineer", *agg.Title)
	assert.Empty(t, agg.Experiences)
	assert.NotNil(t, agg.Experiences)

	_, err = svc.Create(ctx, "user-a", ResumePatch{})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	mine, err := svc.GetMine(ctx, "user-a")
	require.NoError(t, err)
	assert.Equal(t, agg.ID, mine.ID)
}

func TestForeignResumeLooksMissing(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	agg, err := svc.Create(ctx, "user-a", ResumePatch{})
	require.NoError(t, err)

	_, err = svc.GetOwned(ctx, "user-b", agg.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = svc.GetOwned(ctx, "user-b", "no-such-resume")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.Experiences().Sync(ctx, "user-b", agg.ID, []ExperiencePatch{experience("Acme")})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, "user-b", agg.ID), apperr.ErrNotFound)
}

func TestExperienceSyncLifecycle(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	agg, err := svc.Create(ctx, "user-a", ResumePatch{})
	require.NoError(t, err)
	exps := svc.Experiences()

	out, err := exps.Sync(ctx, "user-a", agg.ID, []ExperiencePatch{experience("Acme")})
	require.NoError(t, err)
	require.Len(t, out, 1)
	e1 := out[0].ID
	assert.NotEmpty(t, e1)

	update := ref(e1)
	update.Employer = optional.Of("Acme Corp")
	out, err = exps.Sync(ctx, "user-a", agg.ID, []ExperiencePatch{update})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, e1, out[0].ID)
	assert.Equal(t, "Acme Corp", out[0].Employer)
	assert.Equal(t, "Engineer", out[0].Occupation)

	stored, err := svc.GetOwned(ctx, "user-a", agg.ID)
	require.NoError(t, err)
	require.Len(t, stored.Experiences, 1)
	assert.Equal(t, "Acme Corp", stored.Experiences[0].Employer)

	out, err = exps.Sync(ctx, "user-a", agg.ID, []ExperiencePatch{})
	require.NoError(t, err)
	assert.Empty(t, out)

	stored, err = svc.GetOwned(ctx, "user-a", agg.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Experiences)
}

func TestSyncUnknownIDChangesNothing(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	agg, _ := svc.Create(ctx, "user-a", ResumePatch{})
	out, err := svc.Experiences().Sync(ctx, "user-a", agg.ID, []ExperiencePatch{experience("Acme")})
	require.NoError(t, err)
	applied := len(repo.applied)

	_, err = svc.Experiences().Sync(ctx, "user-a", agg.ID, []ExperiencePatch{experience("Initech"), ref("ghost")})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Len(t, repo.applied, applied)

	stored, _ := svc.GetOwned(ctx, "user-a", agg.ID)
	require.Len(t, stored.Experiences, 1)
	assert.Equal(t, out[0], stored.Experiences[0])
}

func TestSyncIsIdempotent(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	agg, _ := svc.Create(ctx, "user-a", ResumePatch{})
	out, err := svc.Experiences().Sync(ctx, "user-a", agg.ID, []ExperiencePatch{experience("Acme")})
	require.NoError(t, err)

	again := experience("Acme")
	again.ID = optional.Of(out[0].ID)
	_, err = svc.Experiences().Sync(ctx, "user-a", agg.ID, []ExperiencePatch{again})
	require.NoError(t, err)

	last := repo.applied[len(repo.applied)-1]
	require.NotNil(t, last.Experiences)
	assert.True(t, last.Experiences.Plan.Empty())
	assert.Zero(t, last.Rows())
}

func TestSyncRejectsDuplicateAndEmptyIDs(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	agg, _ := svc.Create(ctx, "user-a", ResumePatch{})
	out, _ := svc.Experiences().Sync(ctx, "user-a", agg.ID, []ExperiencePatch{experience("Acme")})

	_, err := svc.Experiences().Sync(ctx, "user-a", agg.ID, []ExperiencePatch{ref(out[0].ID), ref(out[0].ID)})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Experiences().Sync(ctx, "user-a", agg.ID, []ExperiencePatch{ref("")})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestSyncReportsMissingRequiredFields(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	agg, _ := svc.Create(ctx, "user-a", ResumePatch{})

	_, err := svc.Educations().Sync(ctx, "user-a", agg.ID, []EducationPatch{{City: optional.Of("Paris")}})
	require.ErrorIs(t, err, apperr.ErrValidation)
	issues, ok := apperr.Details(err).([]apperr.FieldIssue)
	require.True(t, ok)
	assert.Contains(t, issues, apperr.FieldIssue{Field: "titleOfQualification", Issue: "required"})
	assert.NotContains(t, issues, apperr.FieldIssue{Field: "city", Issue: "required"})
}

func TestUpdateIsAllOrNothing(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	agg, _ := svc.Create(ctx, "user-a", ResumePatch{City: optional.Of("Berlin")})

	exps := []ExperiencePatch{experience("Acme")}
	others := []OtherPatch{{ID: optional.Of("ghost"), Title: optional.Of("x")}}
	_, err := svc.Update(ctx, "user-a", agg.ID, UpdateRequest{
		ResumePatch: ResumePatch{City: optional.Of("Paris")},
		Experiences: &exps,
		Others:      &others,
	})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	stored, _ := svc.GetOwned(ctx, "user-a", agg.ID)
	assert.Equal(t, "Berlin", *stored.City)
	assert.Empty(t, stored.Experiences)

	skills := []LanguageSkillPatch{{Language: optional.Of("German"), IsMotherTongue: optional.Of(false)}}
	updated, err := svc.Update(ctx, "user-a", agg.ID, UpdateRequest{
		ResumePatch:    ResumePatch{City: optional.Of("Paris"), Nationality: optional.Of("FR")},
		Experiences:    &exps,
		LanguageSkills: &skills,
	})
	require.NoError(t, err)
	assert.Equal(t, "Paris", *updated.City)
	assert.Equal(t, "FR", *updated.Nationality)
	assert.Len(t, updated.Experiences, 1)
	assert.Len(t, updated.LanguageSkills, 1)
	assert.Empty(t, updated.Others)
}

func TestUpdateScalarsNullClears(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	agg, _ := svc.Create(ctx, "user-a", ResumePatch{City: optional.Of("Berlin"), Country: optional.Of("DE")})

	updated, err := svc.UpdateScalars(ctx, "user-a", agg.ID, ResumePatch{City: optional.Null[string]()})
	require.NoError(t, err)
	assert.Nil(t, updated.City)
	require.NotNil(t, updated.Country)
	assert.Equal(t, "DE", *updated.Country)
}

func TestSingleItemOperations(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	agg, _ := svc.Create(ctx, "user-a", ResumePatch{})
	others := svc.Others()

	first, err := others.Add(ctx, "user-a", agg.ID, OtherPatch{
		SectionTitle: optional.Of("Hobbies"), Title: optional.Of("Chess"), Description: optional.Of("Club player"),
	})
	require.NoError(t, err)
	second, err := others.Add(ctx, "user-a", agg.ID, OtherPatch{
		SectionTitle: optional.Of("Hobbies"), Title: optional.Of("Running"), Description: optional.Of("Marathons"),
	})
	require.NoError(t, err)

	_, err = others.Add(ctx, "user-a", agg.ID, OtherPatch{ID: optional.Of(first.ID)})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	patched, err := others.Patch(ctx, "user-a", agg.ID, first.ID, OtherPatch{Description: optional.Of("Grandmaster")})
	require.NoError(t, err)
	assert.Equal(t, first.ID, patched.ID)
	assert.Equal(t, "Chess", patched.Title)
	assert.Equal(t, "Grandmaster", patched.Description)

	_, err = others.Patch(ctx, "user-a", agg.ID, "ghost", OtherPatch{Title: optional.Of("x")})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = others.Patch(ctx, "user-a", agg.ID, first.ID, OtherPatch{Title: optional.Null[string]()})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	require.NoError(t, others.Remove(ctx, "user-a", agg.ID, first.ID))
	assert.ErrorIs(t, others.Remove(ctx, "user-a", agg.ID, first.ID), apperr.ErrNotFound)

	list, err := others.List(ctx, "user-a", agg.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, second.ID, list[0].ID)
}

func TestSyncKeepsSubmittedOrder(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	agg, _ := svc.Create(ctx, "user-a", ResumePatch{})
	out, err := svc.Experiences().Sync(ctx, "user-a", agg.ID, []ExperiencePatch{experience("A"), experience("B")})
	require.NoError(t, err)

	out, err = svc.Experiences().Sync(ctx, "user-a", agg.ID, []ExperiencePatch{ref(out[1].ID), experience("C"), ref(out[0].ID)})
	require.NoError(t, err)

	list, _ := svc.Experiences().List(ctx, "user-a", agg.ID)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"B", "C", "A"}, []string{list[0].Employer, list[1].Employer, list[2].Employer})
	assert.Equal(t, out, list)
}

func TestSetImageReplacesPreviousObject(t *testing.T) {
	svc, _, images := newTestService(t)
	ctx := context.Background()
	agg, _ := svc.Create(ctx, "user-a", ResumePatch{})

	_, err := svc.Image(ctx, "user-a", agg.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	first, err := svc.SetImage(ctx, "user-a", agg.ID, "me.png", "image/png", strings.NewReader(pngBytes))
	require.NoError(t, err)
	require.NotNil(t, first.ImageKey)

	second, err := svc.SetImage(ctx, "user-a", agg.ID, "me.png", "image/png", strings.NewReader(pngBytes))
	require.NoError(t, err)
	require.NotNil(t, second.ImageKey)
	assert.NotEqual(t, *first.ImageKey, *second.ImageKey)

	_, err = images.Open(ctx, *first.ImageKey)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	img, err := svc.Image(ctx, "user-a", agg.ID)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.ContentType)

	_, err = svc.SetImage(ctx, "user-a", agg.ID, "notes.txt", "", strings.NewReader("plain text"))
	assert.ErrorIs(t, err, apperr.ErrValidation)
	stored, _ := svc.GetOwned(ctx, "user-a", agg.ID)
	assert.Equal(t, *second.ImageKey, *stored.ImageKey)
}

func TestSetImageKeepsPreviousWhenSaveFails(t *testing.T) {
	svc, repo, images := newTestService(t)
	ctx := context.Background()
	agg, _ := svc.Create(ctx, "user-a", ResumePatch{})
	first, err := svc.SetImage(ctx, "user-a", agg.ID, "me.png", "", strings.NewReader(pngBytes))
	require.NoError(t, err)

	repo.failWith = errors.New("connection reset")
	_, err = svc.SetImage(ctx, "user-a", agg.ID, "other.png", "", strings.NewReader(pngBytes))
	require.Error(t, err)
	repo.failWith = nil

	stored, err := svc.GetOwned(ctx, "user-a", agg.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ImageKey)
	assert.Equal(t, *first.ImageKey, *stored.ImageKey)

	img, err := svc.Image(ctx, "user-a", agg.ID)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, string(img.Data))
	_, err = images.Open(ctx, *first.ImageKey)
	assert.NoError(t, err)
}

func TestSetImageStrictCleanupFailureRestoresPrevious(t *testing.T) {
	ctx := context.Background()
	store := &guardedStore{ObjectStore: local.New(t.TempDir())}
	images := assets.NewService(store, true, 0)
	svc := NewService(NewMemoryRepo(), images)
	agg, _ := svc.Create(ctx, "user-a", ResumePatch{})
	first, err := svc.SetImage(ctx, "user-a", agg.ID, "me.png", "", strings.NewReader(pngBytes))
	require.NoError(t, err)

	store.denyKey = *first.ImageKey
	_, err = svc.SetImage(ctx, "user-a", agg.ID, "other.png", "", strings.NewReader(pngBytes))
	assert.ErrorIs(t, err, apperr.ErrExternal)

	stored, err := svc.GetOwned(ctx, "user-a", agg.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ImageKey)
	assert.Equal(t, *first.ImageKey, *stored.ImageKey)

	img, err := svc.Image(ctx, "user-a", agg.ID)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, string(img.Data))

	require.Len(t, store.deleted, 1)
	assert.NotEqual(t, *first.ImageKey, store.deleted[0])
	_, err = images.Open(ctx, store.deleted[0])
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSetImageLenientCleanupFailureKeepsNewImage(t *testing.T) {
	ctx := context.Background()
	store := &guardedStore{ObjectStore: local.New(t.TempDir())}
	svc := NewService(NewMemoryRepo(), assets.NewService(store, false, 0))
	agg, _ := svc.Create(ctx, "user-a", ResumePatch{})
	first, err := svc.SetImage(ctx, "user-a", agg.ID, "me.png", "", strings.NewReader(pngBytes))
	require.NoError(t, err)

	store.denyKey = *first.ImageKey
	second, err := svc.SetImage(ctx, "user-a", agg.ID, "other.png", "", strings.NewReader(pngBytes))
	require.NoError(t, err)
	require.NotNil(t, second.ImageKey)
	assert.NotEqual(t, *first.ImageKey, *second.ImageKey)
}

func TestDeleteCascadesAndRemovesImage(t *testing.T) {
	svc, _, images := newTestService(t)
	ctx := context.Background()
	agg, _ := svc.Create(ctx, "user-a", ResumePatch{})
	_, err := svc.Experiences().Sync(ctx, "user-a", agg.ID, []ExperiencePatch{experience("Acme")})
	require.NoError(t, err)
	withImage, err := svc.SetImage(ctx, "user-a", agg.ID, "me.png", "", strings.NewReader(pngBytes))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "user-a", agg.ID))

	_, err = svc.GetOwned(ctx, "user-a", agg.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = images.Open(ctx, *withImage.ImageKey)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.Create(ctx, "user-a", ResumePatch{})
	assert.NoError(t, err)
}
