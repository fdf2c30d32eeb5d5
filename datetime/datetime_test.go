package datetime_test

import (
	"testing"

	"github.com/lambda-doc/lambda/datetime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseISO8601DateOnly(t *testing.T) {
	d, err := datetime.ParseISO8601("2024-01-31")
	require.NoError(t, err)
	assert.Equal(t, 2024, d.Year)
	assert.Equal(t, 1, d.Month)
	assert.Equal(t, 31, d.Day)
	assert.Equal(t, datetime.HasDate, d.Precision)
}

func TestParseISO8601FullWithOffset(t *testing.T) {
	d, err := datetime.ParseISO8601("2024-01-31T23:59:59.125+02:30")
	require.NoError(t, err)
	assert.Equal(t, 23, d.Hour)
	assert.Equal(t, 125, d.Millisecond)
	assert.Equal(t, 150, d.TZOffsetMinutes)
	assert.False(t, d.IsUTC)
	assert.Equal(t, "2024-01-31T23:59:59.125+02:30", d.FormatISO8601())
}

func TestParseISO8601ZuluIsUTC(t *testing.T) {
	d, err := datetime.ParseISO8601("2024-01-31T00:00:00Z")
	require.NoError(t, err)
	assert.True(t, d.IsUTC)
	assert.Equal(t, "2024-01-31T00:00:00Z", d.FormatISO8601())
}

func TestInvalidCalendarFieldsRejected(t *testing.T) {
	_, err := datetime.ParseISO8601("2024-02-30")
	assert.Error(t, err)
	_, err = datetime.ParseISO8601("2024-13-01")
	assert.Error(t, err)
}

func TestLeapYearFebruary29(t *testing.T) {
	d, err := datetime.ParseISO8601("2024-02-29")
	require.NoError(t, err)
	assert.True(t, d.Valid())
	_, err = datetime.ParseISO8601("2023-02-29")
	assert.Error(t, err)
}

func TestFromUnixToUnixRoundTrip(t *testing.T) {
	// §8.1: round trip is exact for seconds-or-lower precision within
	// [1970, 9999].
	const sec = int64(1_700_000_000)
	d := datetime.FromUnix(sec, 0)
	gotSec, _ := d.ToUnix()
	assert.Equal(t, sec, gotSec)
}

func TestCompareByUTCInstantAcrossOffsets(t *testing.T) {
	a, err := datetime.ParseISO8601("2024-01-01T12:00:00+02:00")
	require.NoError(t, err)
	b, err := datetime.ParseISO8601("2024-01-01T10:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, 0, datetime.Compare(a, b))
}

func TestAddSecondsIsInstantArithmetic(t *testing.T) {
	d, err := datetime.ParseISO8601("2024-01-01T00:00:00+05:00")
	require.NoError(t, err)
	r := d.AddSeconds(3600)
	// AddSeconds forces UTC per the resolved open question (§9.2).
	assert.True(t, r.IsUTC)
	assert.Equal(t, 0, r.TZOffsetMinutes)
}

func TestParseICS(t *testing.T) {
	d, err := datetime.ParseICS("20240131T235959Z")
	require.NoError(t, err)
	assert.Equal(t, 23, d.Hour)
	assert.True(t, d.IsUTC)
	assert.Equal(t, "20240131T235959Z", d.FormatICS())
}

func TestParseICSDateOnly(t *testing.T) {
	d, err := datetime.ParseICS("20240131")
	require.NoError(t, err)
	assert.Equal(t, datetime.HasDate, d.Precision)
	assert.Equal(t, "20240131", d.FormatICS())
}
