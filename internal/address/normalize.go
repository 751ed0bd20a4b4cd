// Package address prepares free-text property addresses for geocoding.
package address

import (
	"errors"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrEmptyAfterNormalization is returned when stripping unit qualifiers leaves nothing to geocode.
var ErrEmptyAfterNormalization = errors.New("address became empty after removing unit/suite number")

// unitPattern matches a unit, suite, floor or building qualifier that sits right before
// a comma or the end of the string. The second group keeps that trailing delimiter.
var unitPattern = regexp.MustCompile(
	`(?i)\s*(?:#\s*\d+[a-z]?|\b(?:suite|ste|unit|apt|apartment|room|rm|floor|fl|bldg|building)[.\s:]+[a-z0-9-]+)(\s*,|\s*$)`,
)

// emptySegment matches the comma runs left behind once a whole segment is removed.
var emptySegment = regexp.MustCompile(`,(?:\s*,)+`)

// Normalize removes unit qualifiers so the geocoder resolves the building itself,
// e.g. "123 Main St, Suite 200, Austin, TX" becomes "123 Main St, Austin, TX".
// Qualifiers are only removed when they end a comma-separated segment.
func Normalize(raw string) (string, error) {
	cleaned := norm.NFKC.String(raw)

	// Removing one qualifier can expose another ("Unit 5 Apt 3"), so run to a fixpoint.
	for {
		next := unitPattern.ReplaceAllString(cleaned, "$1")
		next = emptySegment.ReplaceAllString(next, ",")
		if next == cleaned {
			break
		}
		cleaned = next
	}

	cleaned = strings.TrimSpace(cleaned)
	cleaned = strings.TrimRight(cleaned, ",")
	cleaned = strings.TrimLeft(cleaned, ", ")
	cleaned = strings.TrimSpace(cleaned)

	if cleaned == "" {
		return "", ErrEmptyAfterNormalization
	}

	return cleaned, nil
}
