package command

import "strings"

// NewCommandKey trims whitespace from name and returns it as a CommandKey.
// CommandKey is an opaque string (spec.md §3); this exists as a named
// constructor rather than a bare string literal so every caller passes
// through the same normalization.
func NewCommandKey(name string) string {
	return strings.TrimSpace(name)
}

// DefaultGroupKey returns the default GroupKey for a command key, per
// spec.md §3: "<CommandKey>Group".
func DefaultGroupKey(commandKey string) string {
	return commandKey + "Group"
}
