package resumes

import (
	"github.com/karthik1704/rsr-v1/internal/shared/optional"
)

// ResumePatch carries scalar changes. Absent fields are left alone and
// explicit nulls clear the stored value.
type ResumePatch struct {
	Title         optional.Field[string] `json:"title"`
	FirstName     optional.Field[string] `json:"firstName"`
	LastName      optional.Field[string] `json:"lastName"`
	DateOfBirth   optional.Field[Date]   `json:"dateOfBirth"`
	Nationality   optional.Field[string] `json:"nationality"`
	AddressLine1  optional.Field[string] `json:"addressLine1"`
	AddressLine2  optional.Field[string] `json:"addressLine2"`
	PostalCode    optional.Field[string] `json:"postalCode"`
	City          optional.Field[string] `json:"city"`
	Country       optional.Field[string] `json:"country"`
	EmailAddress  optional.Field[string] `json:"emailAddress"`
	ContactNumber optional.Field[string] `json:"contactNumber"`
	JobAppliedFor optional.Field[string] `json:"jobAppliedFor"`
}

// Apply returns r with the patch merged in.
func (p ResumePatch) Apply(r Resume) Resume {
	r.Title = p.Title.MergePtr(r.Title)
	r.FirstName = p.FirstName.MergePtr(r.FirstName)
	r.LastName = p.LastName.MergePtr(r.LastName)
	r.DateOfBirth = p.DateOfBirth.MergePtr(r.DateOfBirth)
	r.Nationality = p.Nationality.MergePtr(r.Nationality)
	r.AddressLine1 = p.AddressLine1.MergePtr(r.AddressLine1)
	r.AddressLine2 = p.AddressLine2.MergePtr(r.AddressLine2)
	r.PostalCode = p.PostalCode.MergePtr(r.PostalCode)
	r.City = p.City.MergePtr(r.City)
	r.Country = p.Country.MergePtr(r.Country)
	r.EmailAddress = p.EmailAddress.MergePtr(r.EmailAddress)
	r.ContactNumber = p.ContactNumber.MergePtr(r.ContactNumber)
	r.JobAppliedFor = p.JobAppliedFor.MergePtr(r.JobAppliedFor)
	return r
}

// UpdateRequest is a full resume update: scalars plus any child lists the
// client chose to send. A nil list leaves that collection untouched.
type UpdateRequest struct {
	ResumePatch
	Experiences     *[]ExperiencePatch     `json:"experiences"`
	Educations      *[]EducationPatch      `json:"educations"`
	LanguageSkills  *[]LanguageSkillPatch  `json:"languageSkills"`
	DrivingLicenses *[]DrivingLicensePatch `json:"drivingLicenses"`
	TrainingAwards  *[]TrainingAwardPatch  `json:"trainingAwards"`
	Others          *[]OtherPatch          `json:"others"`
}

type ExperiencePatch struct {
	ID               optional.Field[string] `json:"id"`
	Employer         optional.Field[string] `json:"employer"`
	Website          optional.Field[string] `json:"website"`
	Location         optional.Field[string] `json:"location"`
	Occupation       optional.Field[string] `json:"occupation"`
	FromDate         optional.Field[Date]   `json:"fromDate"`
	ToDate           optional.Field[Date]   `json:"toDate"`
	CurrentlyWorking optional.Field[bool]   `json:"currentlyWorking"`
	AboutCompany     optional.Field[string] `json:"aboutCompany"`
	Responsibilities optional.Field[string] `json:"responsibilities"`
}

type EducationPatch struct {
	ID                   optional.Field[string] `json:"id"`
	TitleOfQualification optional.Field[string] `json:"titleOfQualification"`
	OrganizationName     optional.Field[string] `json:"organizationName"`
	FromDate             optional.Field[Date]   `json:"fromDate"`
	ToDate               optional.Field[Date]   `json:"toDate"`
	City                 optional.Field[string] `json:"city"`
	Country              optional.Field[string] `json:"country"`
}

type LanguageSkillPatch struct {
	ID               optional.Field[string] `json:"id"`
	Language         optional.Field[string] `json:"language"`
	IsMotherTongue   optional.Field[bool]   `json:"isMotherTongue"`
	ProficiencyLevel optional.Field[string] `json:"proficiencyLevel"`
}

type DrivingLicensePatch struct {
	ID          optional.Field[string] `json:"id"`
	LicenseType optional.Field[string] `json:"licenseType"`
	IssuedDate  optional.Field[Date]   `json:"issuedDate"`
	ExpiryDate  optional.Field[Date]   `json:"expiryDate"`
}

type TrainingAwardPatch struct {
	ID                optional.Field[string] `json:"id"`
	Title             optional.Field[string] `json:"title"`
	AwardingInstitute optional.Field[string] `json:"awardingInstitute"`
	FromDate          optional.Field[Date]   `json:"fromDate"`
	ToDate            optional.Field[Date]   `json:"toDate"`
	Location          optional.Field[string] `json:"location"`
}

type OtherPatch struct {
	ID           optional.Field[string] `json:"id"`
	SectionTitle optional.Field[string] `json:"sectionTitle"`
	Title        optional.Field[string] `json:"title"`
	Description  optional.Field[string] `json:"description"`
}
