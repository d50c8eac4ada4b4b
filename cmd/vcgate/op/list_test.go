package op

import (
	"testing"
	"time"

	"github.com/matryer/is"
)

func TestParseTime(t *testing.T) {
	is := is.New(t)
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	got, err := parseTime(now, "")
	is.NoErr(err)
	is.True(got.IsZero())

	got, err = parseTime(now, "2024-01-02T03:04:05Z")
	is.NoErr(err)
	is.Equal(got, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))

	got, err = parseTime(now, "1d")
	is.NoErr(err)
	is.Equal(got, now.Add(-24*time.Hour))

	_, err = parseTime(now, "yesterday")
	is.True(err != nil)
}
