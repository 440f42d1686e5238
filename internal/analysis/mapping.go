package analysis

import (
	"fmt"
	"strconv"
	"strings"
)

// OptionMapping relates one question's canonical option indices to the
// positions they occupied in a specific variant. Both directions are built
// once and reused so that no call site re-derives index lookups; getting the
// direction wrong at a single site would silently corrupt discrimination
// statistics downstream.
//
// The stored permutation follows the platform convention
// perm[variantPosition] = canonicalIndex.
type OptionMapping struct {
	variantToCanonical []int
	canonicalToVariant []int
}

// NewOptionMapping validates perm as a permutation of [0, len) and builds
// both directions.
func NewOptionMapping(perm []int) (*OptionMapping, error) {
	n := len(perm)
	m := &OptionMapping{
		variantToCanonical: make([]int, n),
		canonicalToVariant: make([]int, n),
	}
	seen := make([]bool, n)
	for pos, canonical := range perm {
		if canonical < 0 || canonical >= n {
			return nil, fmt.Errorf("permutation value %d out of range [0,%d)", canonical, n)
		}
		if seen[canonical] {
			return nil, fmt.Errorf("permutation value %d repeated", canonical)
		}
		seen[canonical] = true
		m.variantToCanonical[pos] = canonical
		m.canonicalToVariant[canonical] = pos
	}
	return m, nil
}

// IdentityMapping maps every option to its own position (no shuffle).
func IdentityMapping(n int) *OptionMapping {
	m := &OptionMapping{
		variantToCanonical: make([]int, n),
		canonicalToVariant: make([]int, n),
	}
	for i := 0; i < n; i++ {
		m.variantToCanonical[i] = i
		m.canonicalToVariant[i] = i
	}
	return m
}

func (m *OptionMapping) Len() int { return len(m.variantToCanonical) }

// CanonicalIndex returns the canonical option index shown at the given
// variant position.
func (m *OptionMapping) CanonicalIndex(variantPos int) (int, bool) {
	if variantPos < 0 || variantPos >= len(m.variantToCanonical) {
		return 0, false
	}
	return m.variantToCanonical[variantPos], true
}

// VariantPosition returns where the given canonical option appeared in the
// variant.
func (m *OptionMapping) VariantPosition(canonical int) (int, bool) {
	if canonical < 0 || canonical >= len(m.canonicalToVariant) {
		return 0, false
	}
	return m.canonicalToVariant[canonical], true
}

// Shuffle arranges canonical options into the order the variant presented
// them.
func (m *OptionMapping) Shuffle(canonical []string) []string {
	if len(canonical) != m.Len() {
		return canonical
	}
	out := make([]string, len(canonical))
	for pos, idx := range m.variantToCanonical {
		out[pos] = canonical[idx]
	}
	return out
}

// Unshuffle restores a variant-ordered option list to canonical order.
// Unshuffle(Shuffle(x)) == x for any permutation (round-trip law).
func (m *OptionMapping) Unshuffle(variant []string) []string {
	if len(variant) != m.Len() {
		return variant
	}
	out := make([]string, len(variant))
	for pos, idx := range m.variantToCanonical {
		out[idx] = variant[pos]
	}
	return out
}

// CanonicalAnswer re-expresses a recorded answer as the canonical option
// value. Recorded answers come in two forms: a variant position (stored as
// an integer string) or an option value. Positions are resolved through the
// mapping; values are matched against the canonical options directly, since
// shuffling permutes positions but preserves the values themselves. Answers
// matching neither form (free text, empty) pass through unchanged.
func (m *OptionMapping) CanonicalAnswer(raw string, canonicalOptions []string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return trimmed
	}
	if pos, err := strconv.Atoi(trimmed); err == nil {
		if idx, ok := m.CanonicalIndex(pos); ok && idx < len(canonicalOptions) {
			return canonicalOptions[idx]
		}
		return trimmed
	}
	for _, opt := range canonicalOptions {
		if strings.EqualFold(strings.TrimSpace(opt), trimmed) {
			return opt
		}
	}
	return trimmed
}
