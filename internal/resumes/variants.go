package resumes

import (
	"reflect"
	"strings"

	"github.com/google/uuid"

	"github.com/karthik1704/rsr-v1/internal/shared/apperr"
	"github.com/karthik1704/rsr-v1/internal/shared/optional"
)

// fieldCheck accumulates per-field problems while a record is built or merged.
type fieldCheck struct {
	issues []apperr.FieldIssue
}

func (c *fieldCheck) add(field, issue string) {
	c.issues = append(c.issues, apperr.FieldIssue{Field: field, Issue: issue})
}

func (c *fieldCheck) err() error {
	if len(c.issues) == 0 {
		return nil
	}
	return apperr.Invalid("invalid record", c.issues...)
}

func (c *fieldCheck) required(field string, f optional.Field[string]) string {
	if !f.HasValue() || strings.TrimSpace(f.Value) == "" {
		c.add(field, "required")
		return ""
	}
	return strings.TrimSpace(f.Value)
}

func (c *fieldCheck) requiredDate(field string, f optional.Field[Date]) Date {
	if !f.HasValue() {
		c.add(field, "required")
	}
	return f.Value
}

func (c *fieldCheck) requiredBool(field string, f optional.Field[bool]) bool {
	if !f.HasValue() {
		c.add(field, "required")
	}
	return f.Value
}

func (c *fieldCheck) merge(field string, f optional.Field[string], old string) string {
	if f.Set && f.Null {
		c.add(field, "cannot be null")
		return old
	}
	if f.HasValue() {
		if strings.TrimSpace(f.Value) == "" {
			c.add(field, "must not be blank")
			return old
		}
		return strings.TrimSpace(f.Value)
	}
	return old
}

func (c *fieldCheck) mergeDate(field string, f optional.Field[Date], old Date) Date {
	if f.Set && f.Null {
		c.add(field, "cannot be null")
		return old
	}
	return f.Merge(old)
}

func (c *fieldCheck) mergeBool(field string, f optional.Field[bool], old bool) bool {
	if f.Set && f.Null {
		c.add(field, "cannot be null")
		return old
	}
	return f.Merge(old)
}

func (c *fieldCheck) order(field string, from Date, to *Date) {
	if to != nil && to.Before(from) {
		c.add(field, "must not be before the start date")
	}
}

// optionalText trims and turns blank strings into nil.
func optionalText(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}

func patchID(f optional.Field[string]) (string, bool) {
	if !f.HasValue() {
		return "", false
	}
	return f.Value, true
}

func sameRecord[R any](a, b R) bool {
	return reflect.DeepEqual(a, b)
}

type experienceAdapter struct{}

func (experienceAdapter) RecordID(r Experience) string             { return r.ID }
func (experienceAdapter) PatchID(p ExperiencePatch) (string, bool) { return patchID(p.ID) }
func (experienceAdapter) Equal(a, b Experience) bool               { return sameRecord(a, b) }

func (experienceAdapter) New(p ExperiencePatch) (Experience, error) {
	var c fieldCheck
	r := Experience{
		ID:               uuid.NewString(),
		Employer:         c.required("employer", p.Employer),
		Website:          optionalText(p.Website.Ptr()),
		Location:         c.required("location", p.Location),
		Occupation:       c.required("occupation", p.Occupation),
		FromDate:         c.requiredDate("fromDate", p.FromDate),
		ToDate:           p.ToDate.Ptr(),
		CurrentlyWorking: c.requiredBool("currentlyWorking", p.CurrentlyWorking),
		AboutCompany:     optionalText(p.AboutCompany.Ptr()),
		Responsibilities: c.required("responsibilities", p.Responsibilities),
	}
	c.order("toDate", r.FromDate, r.ToDate)
	return r, c.err()
}

func (experienceAdapter) Merge(r Experience, p ExperiencePatch) (Experience, error) {
	var c fieldCheck
	r.Employer = c.merge("employer", p.Employer, r.Employer)
	r.Website = optionalText(p.Website.MergePtr(r.Website))
	r.Location = c.merge("location", p.Location, r.Location)
	r.Occupation = c.merge("occupation", p.Occupation, r.Occupation)
	r.FromDate = c.mergeDate("fromDate", p.FromDate, r.FromDate)
	r.ToDate = p.ToDate.MergePtr(r.ToDate)
	r.CurrentlyWorking = c.mergeBool("currentlyWorking", p.CurrentlyWorking, r.CurrentlyWorking)
	r.AboutCompany = optionalText(p.AboutCompany.MergePtr(r.AboutCompany))
	r.Responsibilities = c.merge("responsibilities", p.Responsibilities, r.Responsibilities)
	c.order("toDate", r.FromDate, r.ToDate)
	return r, c.err()
}

type educationAdapter struct{}

func (educationAdapter) RecordID(r Education) string             { return r.ID }
func (educationAdapter) PatchID(p EducationPatch) (string, bool) { return patchID(p.ID) }
func (educationAdapter) Equal(a, b Education) bool               { return sameRecord(a, b) }

func (educationAdapter) New(p EducationPatch) (Education, error) {
	var c fieldCheck
	r := Education{
		ID:                   uuid.NewString(),
		TitleOfQualification: c.required("titleOfQualification", p.TitleOfQualification),
		OrganizationName:     c.required("organizationName", p.OrganizationName),
		FromDate:             c.requiredDate("fromDate", p.FromDate),
		ToDate:               p.ToDate.Ptr(),
		City:                 c.required("city", p.City),
		Country:              c.required("country", p.Country),
	}
	c.order("toDate", r.FromDate, r.ToDate)
	return r, c.err()
}

func (educationAdapter) Merge(r Education, p EducationPatch) (Education, error) {
	var c fieldCheck
	r.TitleOfQualification = c.merge("titleOfQualification", p.TitleOfQualification, r.TitleOfQualification)
	r.OrganizationName = c.merge("organizationName", p.OrganizationName, r.OrganizationName)
	r.FromDate = c.mergeDate("fromDate", p.FromDate, r.FromDate)
	r.ToDate = p.ToDate.MergePtr(r.ToDate)
	r.City = c.merge("city", p.City, r.City)
	r.Country = c.merge("country", p.Country, r.Country)
	c.order("toDate", r.FromDate, r.ToDate)
	return r, c.err()
}

type languageSkillAdapter struct{}

func (languageSkillAdapter) RecordID(r LanguageSkill) string             { return r.ID }
func (languageSkillAdapter) PatchID(p LanguageSkillPatch) (string, bool) { return patchID(p.ID) }
func (languageSkillAdapter) Equal(a, b LanguageSkill) bool               { return sameRecord(a, b) }

func (languageSkillAdapter) New(p LanguageSkillPatch) (LanguageSkill, error) {
	var c fieldCheck
	r := LanguageSkill{
		ID:               uuid.NewString(),
		Language:         c.required("language", p.Language),
		IsMotherTongue:   c.requiredBool("isMotherTongue", p.IsMotherTongue),
		ProficiencyLevel: optionalText(p.ProficiencyLevel.Ptr()),
	}
	return r, c.err()
}

func (languageSkillAdapter) Merge(r LanguageSkill, p LanguageSkillPatch) (LanguageSkill, error) {
	var c fieldCheck
	r.Language = c.merge("language", p.Language, r.Language)
	r.IsMotherTongue = c.mergeBool("isMotherTongue", p.IsMotherTongue, r.IsMotherTongue)
	r.ProficiencyLevel = optionalText(p.ProficiencyLevel.MergePtr(r.ProficiencyLevel))
	return r, c.err()
}

type drivingLicenseAdapter struct{}

func (drivingLicenseAdapter) RecordID(r DrivingLicense) string             { return r.ID }
func (drivingLicenseAdapter) PatchID(p DrivingLicensePatch) (string, bool) { return patchID(p.ID) }
func (drivingLicenseAdapter) Equal(a, b DrivingLicense) bool               { return sameRecord(a, b) }

func (drivingLicenseAdapter) New(p DrivingLicensePatch) (DrivingLicense, error) {
	var c fieldCheck
	r := DrivingLicense{
		ID:          uuid.NewString(),
		LicenseType: c.required("licenseType", p.LicenseType),
		IssuedDate:  c.requiredDate("issuedDate", p.IssuedDate),
		ExpiryDate:  c.requiredDate("expiryDate", p.ExpiryDate),
	}
	c.order("expiryDate", r.IssuedDate, &r.ExpiryDate)
	return r, c.err()
}

func (drivingLicenseAdapter) Merge(r DrivingLicense, p DrivingLicensePatch) (DrivingLicense, error) {
	var c fieldCheck
	r.LicenseType = c.merge("licenseType", p.LicenseType, r.LicenseType)
	r.IssuedDate = c.mergeDate("issuedDate", p.IssuedDate, r.IssuedDate)
	r.ExpiryDate = c.mergeDate("expiryDate", p.ExpiryDate, r.ExpiryDate)
	c.order("expiryDate", r.IssuedDate, &r.ExpiryDate)
	return r, c.err()
}

type trainingAwardAdapter struct{}

func (trainingAwardAdapter) RecordID(r TrainingAward) string             { return r.ID }
func (trainingAwardAdapter) PatchID(p TrainingAwardPatch) (string, bool) { return patchID(p.ID) }
func (trainingAwardAdapter) Equal(a, b TrainingAward) bool               { return sameRecord(a, b) }

func (trainingAwardAdapter) New(p TrainingAwardPatch) (TrainingAward, error) {
	var c fieldCheck
	r := TrainingAward{
		ID:                uuid.NewString(),
		Title:             c.required("title", p.Title),
		AwardingInstitute: c.required("awardingInstitute", p.AwardingInstitute),
		FromDate:          c.requiredDate("fromDate", p.FromDate),
		ToDate:            p.ToDate.Ptr(),
		Location:          c.required("location", p.Location),
	}
	c.order("toDate", r.FromDate, r.ToDate)
	return r, c.err()
}

func (trainingAwardAdapter) Merge(r TrainingAward, p TrainingAwardPatch) (TrainingAward, error) {
	var c fieldCheck
	r.Title = c.merge("title", p.Title, r.Title)
	r.AwardingInstitute = c.merge("awardingInstitute", p.AwardingInstitute, r.AwardingInstitute)
	r.FromDate = c.mergeDate("fromDate", p.FromDate, r.FromDate)
	r.ToDate = p.ToDate.MergePtr(r.ToDate)
	r.Location = c.merge("location", p.Location, r.Location)
	c.order("toDate", r.FromDate, r.ToDate)
	return r, c.err()
}

type otherAdapter struct{}

func (otherAdapter) RecordID(r Other) string             { return r.ID }
func (otherAdapter) PatchID(p OtherPatch) (string, bool) { return patchID(p.ID) }
func (otherAdapter) Equal(a, b Other) bool               { return sameRecord(a, b) }

func (otherAdapter) New(p OtherPatch) (Other, error) {
	var c fieldCheck
	r := Other{
		ID:           uuid.NewString(),
		SectionTitle: c.required("sectionTitle", p.SectionTitle),
		Title:        c.required("title", p.Title),
		Description:  c.required("description", p.Description),
	}
	return r, c.err()
}

func (otherAdapter) Merge(r Other, p OtherPatch) (Other, error) {
	var c fieldCheck
	r.SectionTitle = c.merge("sectionTitle", p.SectionTitle, r.SectionTitle)
	r.Title = c.merge("title", p.Title, r.Title)
	r.Description = c.merge("description", p.Description, r.Description)
	return r, c.err()
}
