package providers

import (
	"regexp"
	"strings"
)

var (
	slugPunct      = regexp.MustCompile(`[:_'/()\[\]&@!$%^*+=?.,"]+`)
	slugInvalid    = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugSpaces     = regexp.MustCompile(`\s+`)
	slugDashes     = regexp.MustCompile(`-+`)
	rtSeparators   = regexp.MustCompile(`[:_]`)
	rtApostrophes  = regexp.MustCompile(`['’]`)
	rtInvalid      = regexp.MustCompile(`[^a-z0-9_]`)
	rtUnderscores  = regexp.MustCompile(`_+`)
	alnumSpaceOnly = regexp.MustCompile(`[^a-z0-9\s]`)
)

// TitleSlug is the hyphenated slug used by Metacritic and Common Sense:
// "Spider-Man: No Way Home" becomes "spider-man-no-way-home".
func TitleSlug(title string) string {
	s := strings.ToLower(title)
	s = slugPunct.ReplaceAllString(s, "-")
	s = slugInvalid.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	s = slugSpaces.ReplaceAllString(s, "-")
	return slugDashes.ReplaceAllString(s, "-")
}

// RottenTomatoesSlug uses underscores and drops apostrophes.
func RottenTomatoesSlug(title string) string {
	s := strings.ToLower(title)
	s = rtSeparators.ReplaceAllString(s, " ")
	s = rtApostrophes.ReplaceAllString(s, "")
	s = slugSpaces.ReplaceAllString(s, "_")
	s = rtInvalid.ReplaceAllString(s, "")
	s = rtUnderscores.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// CringeMDBSlug keeps only alphanumerics, joined by hyphens.
func CringeMDBSlug(title string) string {
	s := strings.ToLower(title)
	s = alnumSpaceOnly.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	return slugSpaces.ReplaceAllString(s, "-")
}
