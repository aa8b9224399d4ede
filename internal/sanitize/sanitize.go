// Package sanitize strips markup from user-supplied text before it is
// stored.
//
// Usernames, post titles, and post contents all end up rendered into HTML
// pages; sanitizing at the write path (in addition to html/template's
// escaping at the read path) means the database never holds live markup and
// every future consumer of the rows — JSON endpoints included — gets clean
// text.
package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// policy is bluemonday's StrictPolicy: no elements, no attributes survive.
// For plain-text fields like these, anything tag-shaped is stripped rather
// than escaped. A bluemonday Policy is safe for concurrent use, so one
// package-level instance serves all requests.
var policy = bluemonday.StrictPolicy()

// Text sanitizes one user-supplied field: markup removed, surrounding
// whitespace trimmed. Idempotent.
func Text(s string) string {
	return strings.TrimSpace(policy.Sanitize(s))
}
