package components

import "html"

// Esc escapes user-entered text for HTML output
func Esc(s string) string {
	return html.EscapeString(s)
}
