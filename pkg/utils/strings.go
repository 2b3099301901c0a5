// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package utils

import (
	"regexp"
	"strings"
)

// RemoveLineCleanChars removes ANSI escape codes and other terminal control characters from a string
// This is useful for cleaning up command output before pattern matching
func RemoveLineCleanChars(s string) string {
	// Remove ANSI escape codes (color codes, cursor movements, etc.)
	ansiRegex := regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)
	s = ansiRegex.ReplaceAllString(s, "")

	// Remove carriage returns
	s = strings.ReplaceAll(s, "\r", "")

	// Remove other common control characters
	controlRegex := regexp.MustCompile(`[\x00-\x08\x0B-\x0C\x0E-\x1F]`)
	s = controlRegex.ReplaceAllString(s, "")

	return s
}

// FirstN returns up to n leading elements of items
func FirstN(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}

// HTTPBaseURL turns a host:port assignment into a usable HTTP base URL,
// e.g. "127.0.0.1:33421" into "http://127.0.0.1:33421". Assignments that
// already carry a scheme keep it.
func HTTPBaseURL(assignment string) string {
	base := strings.TrimSuffix(strings.TrimSpace(assignment), "/")
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return base
}
