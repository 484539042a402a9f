package resumes

import "time"

// Resume holds the scalar part of a user's resume. Every scalar is optional.
type Resume struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	Title         *string   `json:"title"`
	FirstName     *string   `json:"firstName"`
	LastName      *string   `json:"lastName"`
	DateOfBirth   *Date     `json:"dateOfBirth"`
	Nationality   *string   `json:"nationality"`
	AddressLine1  *string   `json:"addressLine1"`
	AddressLine2  *string   `json:"addressLine2"`
	PostalCode    *string   `json:"postalCode"`
	City          *string   `json:"city"`
	Country       *string   `json:"country"`
	EmailAddress  *string   `json:"emailAddress"`
	ContactNumber *string   `json:"contactNumber"`
	JobAppliedFor *string   `json:"jobAppliedFor"`
	ImageKey      *string   `json:"imageKey,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Aggregate is a resume with all of its child collections.
type Aggregate struct {
	Resume
	Experiences     []Experience     `json:"experiences"`
	Educations      []Education      `json:"educations"`
	LanguageSkills  []LanguageSkill  `json:"languageSkills"`
	DrivingLicenses []DrivingLicense `json:"drivingLicenses"`
	TrainingAwards  []TrainingAward  `json:"trainingAwards"`
	Others          []Other          `json:"others"`
}

type Experience struct {
	ID               string  `json:"id"`
	Employer         string  `json:"employer"`
	Website          *string `json:"website"`
	Location         string  `json:"location"`
	Occupation       string  `json:"occupation"`
	FromDate         Date    `json:"fromDate"`
	ToDate           *Date   `json:"toDate"`
	CurrentlyWorking bool    `json:"currentlyWorking"`
	AboutCompany     *string `json:"aboutCompany"`
	Responsibilities string  `json:"responsibilities"`
}

type Education struct {
	ID                   string `json:"id"`
	TitleOfQualification string `json:"titleOfQualification"`
	OrganizationName     string `json:"organizationName"`
	FromDate             Date   `json:"fromDate"`
	ToDate               *Date  `json:"toDate"`
	City                 string `json:"city"`
	Country              string `json:"country"`
}

type LanguageSkill struct {
	ID               string  `json:"id"`
	Language         string  `json:"language"`
	IsMotherTongue   bool    `json:"isMotherTongue"`
	ProficiencyLevel *string `json:"proficiencyLevel"`
}

type DrivingLicense struct {
	ID          string `json:"id"`
	LicenseType string `json:"licenseType"`
	IssuedDate  Date   `json:"issuedDate"`
	ExpiryDate  Date   `json:"expiryDate"`
}

type TrainingAward struct {
	ID                string `json:"id"`
	Title             string `json:"title"`
	AwardingInstitute string `json:"awardingInstitute"`
	FromDate          Date   `json:"fromDate"`
	ToDate            *Date  `json:"toDate"`
	Location          string `json:"location"`
}

// Other is a free-form section such as hobbies or publications.
type Other struct {
	ID           string `json:"id"`
	SectionTitle string `json:"sectionTitle"`
	Title        string `json:"title"`
	Description  string `json:"description"`
}
