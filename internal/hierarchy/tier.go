// Copyright 2026 The DocVault Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package hierarchy models the fixed corporate rank ladder that every
// access decision in docvault is made against. Tiers are totally ordered
// by their integer level; comparisons never depend on declaration order.
package hierarchy

import (
	"errors"
	"fmt"
)

// ErrUnknownTier is returned when a name does not map to any tier.
var ErrUnknownTier = errors.New("unknown hierarchy tier")

// Tier is a rank on the corporate ladder. The zero value is invalid;
// valid tiers run from Intern (level 1) to CEO (level 11).
type Tier int

const (
	Intern Tier = iota + 1
	Staff
	SeniorStaff
	AssistantManager
	Manager
	SeniorManager
	Director
	VicePresident
	President
	ExecutiveVicePresident
	CEO
)

var tierNames = map[Tier]string{
	Intern:                 "INTERN",
	Staff:                  "STAFF",
	SeniorStaff:            "SENIOR_STAFF",
	AssistantManager:       "ASSISTANT_MANAGER",
	Manager:                "MANAGER",
	SeniorManager:          "SENIOR_MANAGER",
	Director:               "DIRECTOR",
	VicePresident:          "VICE_PRESIDENT",
	President:              "PRESIDENT",
	ExecutiveVicePresident: "EXECUTIVE_VICE_PRESIDENT",
	CEO:                    "CEO",
}

var tierLabels = map[Tier]string{
	Intern:                 "Intern",
	Staff:                  "Staff",
	SeniorStaff:            "Senior Staff",
	AssistantManager:       "Assistant Manager",
	Manager:                "Manager",
	SeniorManager:          "Senior Manager",
	Director:               "Director",
	VicePresident:          "Vice President",
	President:              "President",
	ExecutiveVicePresident: "Executive Vice President",
	CEO:                    "Chief Executive Officer",
}

// Tiers returns every valid tier in ascending level order.
func Tiers() []Tier {
	out := make([]Tier, 0, len(tierNames))
	for t := Intern; t <= CEO; t++ {
		out = append(out, t)
	}
	return out
}

// Parse maps a stored tier name back to its Tier.
func Parse(name string) (Tier, error) {
	for t, n := range tierNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTier, name)
}

// Valid reports whether t is one of the eleven defined tiers.
func (t Tier) Valid() bool {
	_, ok := tierNames[t]
	return ok
}

// Level returns the integer rank. Higher means more privileged.
func (t Tier) Level() int {
	return int(t)
}

// String returns the canonical storage name, e.g. "SENIOR_MANAGER".
func (t Tier) String() string {
	if n, ok := tierNames[t]; ok {
		return n
	}
	return fmt.Sprintf("TIER(%d)", int(t))
}

// Label returns the human-readable title for display.
func (t Tier) Label() string {
	return tierLabels[t]
}

// HigherThan reports whether t strictly outranks other.
func (t Tier) HigherThan(other Tier) bool {
	return t.Level() > other.Level()
}

// LowerThan reports whether t is strictly outranked by other.
func (t Tier) LowerThan(other Tier) bool {
	return t.Level() < other.Level()
}

// Equal reports whether both tiers sit at the same level.
func (t Tier) Equal(other Tier) bool {
	return t.Level() == other.Level()
}

// AtLeast reports whether t meets a minimum required tier.
func (t Tier) AtLeast(minimum Tier) bool {
	return t.Level() >= minimum.Level()
}

// Compare returns a negative, zero or positive value as t is lower than,
// equal to, or higher than other.
func (t Tier) Compare(other Tier) int {
	return t.Level() - other.Level()
}
