// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package risk defines the installation risk channel ordering used to
// decide which capabilities are visible on a deployment.
package risk

// Level is a release risk channel. Levels are ordered: stable <
// candidate < beta < edge.
type Level string

const (
	Stable    = Level("stable")
	Candidate = Level("candidate")
	Beta      = Level("beta")
	Edge      = Level("edge")
)

var ordering = map[Level]int{
	Stable:    0,
	Candidate: 1,
	Beta:      2,
	Edge:      3,
}

// String implements fmt.Stringer.
func (l Level) String() string {
	return string(l)
}

// Valid reports whether l is a known risk level.
func (l Level) Valid() bool {
	_, ok := ordering[l]
	return ok
}

// Compare returns -1, 0 or 1 as l orders before, equal to or after
// other. Unknown levels order before stable.
func (l Level) Compare(other Level) int {
	a, b := ordering[l], ordering[other]
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Parse maps a configured risk value to a Level. Anything unknown,
// including the empty string, resolves to Stable: an installation never
// sees riskier capabilities because of a typo.
func Parse(value string) Level {
	level := Level(value)
	if !level.Valid() {
		return Stable
	}
	return level
}
