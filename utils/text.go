package utils

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// HumanizeLabel turns an enum value like "illegal_dump" into "Illegal Dump"
// for user-facing notification copy.
func HumanizeLabel(v string) string {
	return titleCaser.String(strings.ReplaceAll(v, "_", " "))
}
