// Package dates normalizes heterogeneous event date text into canonical
// YYYY-MM-DD strings.
package dates

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var (
	isoRe = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

	// Filler words routinely glued onto date text in listings. Stripped
	// without word boundaries to match observed page text.
	fillerRe = regexp.MustCompile(`(?i)(on|at|playing|performed|shows?|concert)`)

	yearOnlyRe = regexp.MustCompile(`^\s*\d{4}\s*$`)
	yearRe     = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	monthRe    = regexp.MustCompile(`(?i)\b(jan(uary)?|feb(ruary)?|mar(ch)?|apr(il)?|may|jun(e)?|jul(y)?|aug(ust)?|sep(t(ember)?)?|oct(ober)?|nov(ember)?|dec(ember)?)\b`)
	numericRe  = regexp.MustCompile(`\b\d{1,2}\s*[/.\-]\s*\d{1,2}`)
	ordinalRe  = regexp.MustCompile(`(?i)\b(\d{1,2})(st|nd|rd|th)\b`)
)

// Parse converts date text to a canonical YYYY-MM-DD string. Strategy order,
// first match wins: an embedded ISO date substring, then a permissive parse
// of the text with filler words removed. Texts that are only a year, have no
// month/day indicators, or name a month/day without a 4-digit year are
// rejected rather than guessed at.
func Parse(text string) (string, bool) {
	if text == "" {
		return "", false
	}
	if m := isoRe.FindString(text); m != "" {
		return m, true
	}

	clean := strings.TrimSpace(fillerRe.ReplaceAllString(text, ""))
	if clean == "" || yearOnlyRe.MatchString(clean) {
		return "", false
	}
	if !monthRe.MatchString(clean) && !numericRe.MatchString(clean) {
		return "", false
	}
	if !yearRe.MatchString(clean) {
		return "", false
	}

	clean = ordinalRe.ReplaceAllString(clean, "$1")
	clean = strings.Join(strings.Fields(clean), " ")
	clean = strings.Trim(clean, " ,.")
	parsed, err := dateparse.ParseAny(clean)
	if err != nil {
		return "", false
	}
	return parsed.Format("2006-01-02"), true
}

// ValidateSanity bounds-checks a canonical date: year within [1900,
// currentYear+2], month 1-12, day 1-31. There is deliberately no
// month-length cross-check.
func ValidateSanity(iso string) bool {
	return validateSanityAt(iso, time.Now())
}

func validateSanityAt(iso string, now time.Time) bool {
	parts := strings.SplitN(iso, "-", 3)
	if len(parts) != 3 {
		return false
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return false
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return false
	}
	day, err := strconv.Atoi(parts[2])
	if err != nil {
		return false
	}
	if year < 1900 || year > now.Year()+2 {
		return false
	}
	if month < 1 || month > 12 {
		return false
	}
	return day >= 1 && day <= 31
}
