package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/matryer/is"
	"github.com/vcgate/vcgate/pkg/extension"
)

func TestParseFields(t *testing.T) {
	is := is.New(t)

	fields, err := ParseFields(nil)
	is.NoErr(err)
	is.Equal(len(fields), 0)

	fields, err = ParseFields([]string{"branches=main,7.x", "expr=a=b", "empty="})
	is.NoErr(err)
	is.Equal(fields, map[string]string{
		"branches": "main,7.x",
		"expr":     "a=b",
		"empty":    "",
	})

	_, err = ParseFields([]string{"novalue"})
	is.True(err != nil)
	_, err = ParseFields([]string{"=value"})
	is.True(err != nil)
}

func TestListingTable(t *testing.T) {
	is := is.New(t)
	l := extension.NewListing([]string{"drupal", "views"})
	l.AddColumn("Length", func(s string) string {
		return strings.Repeat("*", len(s))
	})

	out := ListingTable(l, []string{"Name"}, func(s string) []string {
		return []string{s}
	}).String()
	is.True(strings.Contains(out, "Name"))
	is.True(strings.Contains(out, "Length"))
	is.True(strings.Contains(out, "******"))
	is.True(strings.Contains(out, "*****"))
}

func TestPrintJSON(t *testing.T) {
	is := is.New(t)
	var buf bytes.Buffer
	is.NoErr(PrintJSON(&buf, map[string]int{"id": 1}))
	is.Equal(buf.String(), "{\n  \"id\": 1\n}\n")
}
