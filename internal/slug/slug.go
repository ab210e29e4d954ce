// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug provides URL-friendly slug generation from blog post titles.
package slug

import (
	"regexp"
	"strings"
)

// nonSlugRun matches every run of characters outside [a-z0-9].
var nonSlugRun = regexp.MustCompile(`[^a-z0-9]+`)

// Generate lowercases s, replaces each run of non-alphanumeric characters
// with a single hyphen and trims hyphens from both ends.
// Example: "Hello, World!" → "hello-world"
func Generate(s string) string {
	result := nonSlugRun.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(result, "-")
}

// Valid reports whether s is already in generated form and non-empty.
func Valid(s string) bool {
	return s != "" && Generate(s) == s
}
