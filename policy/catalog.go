/*
catalog.go - Name-normalizing policy lookup

PURPOSE:
  Resolves a user-supplied policy name to its terms. Names are matched
  case-insensitively with whitespace trimmed, and each policy accepts a
  compact alias alongside its display name.

The catalog is read-only and requires no synchronization.
*/
package policy

import "strings"

// Known display names, used in intake validation messages.
const (
	NameNivaBupa    = "Niva Bupa"
	NameAdityaBirla = "Aditya Birla Health Insurance"
)

// Lookup resolves a policy name to its terms. Returns nil for unknown
// names; callers decide whether that is a validation error or a
// rejection reason.
func Lookup(name string) *Data {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "niva bupa", "nivabupa":
		return &nivaBupa
	case "aditya birla health insurance", "adityabirla":
		return &adityaBirla
	}
	return nil
}

// Names returns the display names of all catalog policies.
func Names() []string {
	return []string{NameNivaBupa, NameAdityaBirla}
}
