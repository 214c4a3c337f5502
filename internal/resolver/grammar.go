// internal/resolver/grammar.go
package resolver

import (
	"regexp"
	"strconv"
)

// The selector grammar's non-structural forms. These are private to the
// scenario format, so they are parsed here rather than handed to the page.
var (
	textSelectorRe     = regexp.MustCompile(`^text:"(.*)"$`)
	attrSelectorRe     = regexp.MustCompile(`^\[([\w-]+)(\*?)="(.*)"\]$`)
	positionSelectorRe = regexp.MustCompile(`^position\(\s*(-?\d+(?:\.\d+)?)\s*,\s*(-?\d+(?:\.\d+)?)\s*(?:,\s*(\d+(?:\.\d+)?)\s*)?\)$`)
)

// parseTextSelector recognizes the `text:"<content>"` form.
func parseTextSelector(selector string) (content string, ok bool) {
	m := textSelectorRe.FindStringSubmatch(selector)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// parseAttrSelector recognizes `[attr="value"]` (exact) and `[attr*="value"]`
// (substring).
func parseAttrSelector(selector string) (attr, value string, substring, ok bool) {
	m := attrSelectorRe.FindStringSubmatch(selector)
	if m == nil {
		return "", "", false, false
	}
	return m[1], m[3], m[2] == "*", true
}

// defaultPositionTolerance is the hit radius when `position(x,y)` omits one.
const defaultPositionTolerance = 10.0

// parsePositionSelector recognizes `position(x,y[,tolerance])`.
func parsePositionSelector(selector string) (x, y, tol float64, ok bool) {
	m := positionSelectorRe.FindStringSubmatch(selector)
	if m == nil {
		return 0, 0, 0, false
	}
	x, _ = strconv.ParseFloat(m[1], 64)
	y, _ = strconv.ParseFloat(m[2], 64)
	tol = defaultPositionTolerance
	if m[3] != "" {
		tol, _ = strconv.ParseFloat(m[3], 64)
	}
	return x, y, tol, true
}
