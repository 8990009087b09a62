// SPDX-License-Identifier: GPL-3.0-or-later

package trace

import "strings"

// splitLabel checks whether content is of the form "<label>: <value>"
// (case-insensitive on the label) and, if so, returns the trimmed value.
func splitLabel(content, label string) (string, bool) {
	idx := strings.IndexByte(content, ':')
	if idx < 0 {
		return "", false
	}
	if !strings.EqualFold(strings.TrimSpace(content[:idx]), label) {
		return "", false
	}
	return strings.TrimSpace(content[idx+1:]), true
}

// containsFold reports whether s contains substr, ignoring case.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
