// Package html extracts narration text from saved web pages and HTML
// exports. Scripts, styles and other non-prose elements are dropped and
// block elements become paragraph breaks.
package html
