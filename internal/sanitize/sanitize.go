// Package sanitize turns rich-text values captured in change snapshots into
// plain text for summaries, tables and CSV cells.
package sanitize

import (
	"html"
	"regexp"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

// getPolicy returns the shared strict policy, which keeps text content and
// drops every element and attribute.
func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	return policy
}

// blockBreakRe matches tags that end a line of text in editor output.
var blockBreakRe = regexp.MustCompile(`(?i)<br\s*/?>|</(p|div|li|h[1-6]|tr)>`)

var spaceRe = regexp.MustCompile(`\s+`)

// PlainText strips markup from s and collapses whitespace. Entities are
// decoded because callers escape again when rendering.
func PlainText(s string) string {
	if s == "" || !strings.ContainsRune(s, '<') {
		return s
	}
	s = blockBreakRe.ReplaceAllString(s, " ")
	s = getPolicy().Sanitize(s)
	s = html.UnescapeString(s)
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}
