package cv

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIsRecent(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.May, 10, 12, 0, 0, 0, time.UTC)

	require.True(t, isRecentAt(nil, now))
	require.True(t, isRecentAt(&Time{}, now))
	require.True(t, isRecentAt(NewTime(now.Add(time.Hour)), now))
	require.True(t, isRecentAt(NewTime(now.Add(-23*time.Hour)), now))
	require.False(t, isRecentAt(NewTime(now.Add(-24*time.Hour)), now))
	require.False(t, isRecentAt(NewTime(now.AddDate(0, -1, 0)), now))
}

func TestTime_JSON(t *testing.T) {
	t.Parallel()

	var pd PersonalDetails
	require.NoError(t, json.Unmarshal([]byte(`{"dob":"1990-06-15"}`), &pd))
	require.Equal(t, 1990, pd.DateOfBirth.Year())

	require.NoError(t, json.Unmarshal([]byte(`{"dob":"2001-02-03T04:05:06.5Z"}`), &pd))
	out, err := json.Marshal(pd)
	require.NoError(t, err)
	require.JSONEq(t, `{"dob":"2001-02-03T04:05:06.5Z"}`, string(out))

	require.Error(t, json.Unmarshal([]byte(`{"dob":"yesterday"}`), &pd))
}
