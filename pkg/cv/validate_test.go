package cv

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestValidate_RequiresReferenceNumber(t *testing.T) {
	t.Parallel()

	err := Validate(CV{Presentation: "hello"})

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "referenceNumber", ve.Field)
	require.EqualError(t, err, "referenceNumber is required")
}

func TestValidate_AgeUsesCalendarYears(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	testCases := []struct {
		name    string
		dob     time.Time
		wantErr bool
	}{
		{"twelve years", time.Date(2014, time.January, 1, 0, 0, 0, 0, time.UTC), true},
		{"born this year", time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), true},
		{"thirteen by year", time.Date(2013, time.December, 31, 0, 0, 0, 0, time.UTC), false},
		{"adult", time.Date(1990, time.June, 15, 0, 0, 0, 0, time.UTC), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			c := CV{
				ReferenceNumber: "abc",
				PersonalDetails: &PersonalDetails{DateOfBirth: NewTime(tc.dob)},
			}
			err := validateAt(c, now)
			if tc.wantErr {
				require.EqualError(t, err, "you must be at least 13 years old to work")
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestValidate_WithoutDateOfBirth(t *testing.T) {
	t.Parallel()

	require.NoError(t, Validate(CV{ReferenceNumber: "abc"}))
	require.NoError(t, Validate(CV{ReferenceNumber: "abc", PersonalDetails: &PersonalDetails{Email: "a@b.nl"}}))
}

func TestCV_Clone(t *testing.T) {
	t.Parallel()

	orig := CV{ReferenceNumber: "abc", PersonalDetails: &PersonalDetails{PhoneNumber: "0612345678"}}
	clone := orig.Clone()
	clone.PersonalDetails.PhoneNumber = ""

	require.Equal(t, "0612345678", orig.PersonalDetails.PhoneNumber)
}

func TestCV_ListEntry(t *testing.T) {
	t.Parallel()

	link := "https://example.com/cv/1"
	changed := NewTime(time.Date(2026, time.January, 2, 3, 4, 5, 0, time.UTC))
	full := CV{
		ReferenceNumber: "abc",
		Link:            &link,
		LastChanged:     changed,
		Presentation:    "long text",
		PreferredJobs:   []string{"baker"},
		PersonalDetails: &PersonalDetails{FirstName: "Jan"},
	}

	entry := full.ListEntry()

	require.Equal(t, CV{
		ReferenceNumber: "abc",
		Link:            &link,
		LastChanged:     changed,
		PersonalDetails: &PersonalDetails{FirstName: "Jan"},
	}, entry)
}
