// Package cv holds the curriculum vitae record scrapers send to RT-CV along
// with the local checks applied before a CV leaves the scraper.
package cv

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Time is a timestamp encoded as an RFC3339Nano string.
type Time struct {
	time.Time
}

// NewTime wraps t, mostly useful for filling optional CV fields.
func NewTime(t time.Time) *Time {
	return &Time{Time: t}
}

// MarshalJSON encodes t as RFC3339Nano.
func (t Time) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Format(time.RFC3339Nano))
}

// UnmarshalJSON accepts RFC3339 timestamps and plain dates (2006-01-02).
func (t *Time) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("cv time: %w", err)
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("cv time: cannot parse %q", raw)
}

// CV contains all information that belongs to a curriculum vitae.
type CV struct {
	Title           *string          `json:"title,omitempty"`
	Presentation    string           `json:"presentation,omitempty"`
	ReferenceNumber string           `json:"referenceNumber,omitempty" validate:"required"`
	Link            *string          `json:"link,omitempty"`
	CreatedAt       *Time            `json:"createdAt,omitempty"`
	LastChanged     *Time            `json:"lastChanged,omitempty"`
	Timeless        bool             `json:"timeless,omitempty"`
	Educations      []Education      `json:"educations,omitempty"`
	WorkExperiences []WorkExperience `json:"workExperiences,omitempty"`
	PreferredJobs   []string         `json:"preferredJobs,omitempty"`
	Preferences     *Preferences     `json:"preferences,omitempty"`
	Languages       []Language       `json:"languages,omitempty"`
	Hobbies         []Hobby          `json:"hobbies,omitempty"`
	PersonalDetails *PersonalDetails `json:"personalDetails,omitempty"`
	DriversLicenses []string         `json:"driversLicenses,omitempty"`
	Type            Type             `json:"type,omitempty"`
	VacancyInfo     *VacancyInfo     `json:"vacancyInfo,omitempty"`
}

// Clone returns a copy of c whose personal details can be modified without
// touching the original.
func (c CV) Clone() CV {
	if c.PersonalDetails != nil {
		pd := *c.PersonalDetails
		c.PersonalDetails = &pd
	}
	return c
}

// ListEntry reduces c to the fields RT-CV needs for list submissions.
func (c CV) ListEntry() CV {
	return CV{
		ReferenceNumber: c.ReferenceNumber,
		Link:            c.Link,
		CreatedAt:       c.CreatedAt,
		LastChanged:     c.LastChanged,
		PersonalDetails: c.PersonalDetails,
	}
}

// Preferences contains job preferences.
type Preferences struct {
	MaxDistanceInKm *int    `json:"maxDistanceInKm,omitempty"`
	MaximalHours    *int    `json:"maximalHours,omitempty"`
	MinimalHours    *int    `json:"minimalHours,omitempty"`
	Postcode        *string `json:"postcode,omitempty"`
	WorkingHours    *int    `json:"workingHours,omitempty"`
}

// EducationKind tells an education apart from a course.
type EducationKind uint8

// Education kinds.
const (
	EducationKindUnknown EducationKind = iota
	EducationKindEducation
	EducationKindCourse
)

// Education is something a candidate has followed.
type Education struct {
	Is          EducationKind `json:"is"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Institute   string        `json:"institute,omitempty"`
	IsCompleted *bool         `json:"isCompleted,omitempty"`
	HasDiploma  *bool         `json:"hasDiploma,omitempty"`
	StartDate   *Time         `json:"startDate,omitempty"`
	EndDate     *Time         `json:"endDate,omitempty"`
}

// WorkExperience is a past or current job.
type WorkExperience struct {
	Description       string `json:"description,omitempty"`
	Profession        string `json:"profession"`
	Employer          string `json:"employer,omitempty"`
	StartDate         *Time  `json:"startDate,omitempty"`
	EndDate           *Time  `json:"endDate,omitempty"`
	StillEmployed     *bool  `json:"stillEmployed,omitempty"`
	WeeklyHoursWorked *uint  `json:"weeklyHoursWorked,omitempty"`
}

// LanguageLevel grades spoken or written language skills.
type LanguageLevel uint

// Language levels.
const (
	LanguageLevelUnknown LanguageLevel = iota
	LanguageLevelReasonable
	LanguageLevelGood
	LanguageLevelExcellent
)

func (l LanguageLevel) String() string {
	switch l {
	case LanguageLevelReasonable:
		return "reasonable"
	case LanguageLevelGood:
		return "good"
	case LanguageLevelExcellent:
		return "excellent"
	default:
		return "unknown"
	}
}

// Language is a language a candidate speaks.
type Language struct {
	Name         string        `json:"name"`
	LevelSpoken  LanguageLevel `json:"levelSpoken"`
	LevelWritten LanguageLevel `json:"levelWritten"`
}

// Hobby is an interest of the candidate.
type Hobby struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// PersonalDetails contains personal info.
type PersonalDetails struct {
	Name              string `json:"name,omitempty"`
	Initials          string `json:"initials,omitempty"`
	FirstName         string `json:"firstName,omitempty"`
	SurNamePrefix     string `json:"surNamePrefix,omitempty"`
	SurName           string `json:"surName,omitempty"`
	DateOfBirth       *Time  `json:"dob,omitempty"`
	Gender            string `json:"gender,omitempty"`
	StreetName        string `json:"streetName,omitempty"`
	HouseNumber       string `json:"houseNumber,omitempty"`
	HouseNumberSuffix string `json:"houseNumberSuffix,omitempty"`
	Zip               string `json:"zip,omitempty"`
	City              string `json:"city,omitempty"`
	Country           string `json:"country,omitempty"`
	PhoneNumber       string `json:"phoneNumber,omitempty"`
	Email             string `json:"email,omitempty"`
}

// VacancyInfo names the vacancy a CV was scraped for.
type VacancyInfo struct {
	Name string `json:"name"`
}

// Type classifies a CV.
type Type string

// CV types.
const (
	TypeLead               Type = "lead"
	TypePotentialCandidate Type = "potential_candidate"
)

// Valid reports whether t is a known CV type.
func (t Type) Valid() bool {
	return t == TypeLead || t == TypePotentialCandidate
}
