// Package category infers which control meta-category applies to a document.
package category

import (
	"fmt"
	"strings"

	"github.com/EricBlanvillain/control-automation/internal/models"
)

// DefaultCategories the built-in meta-category set, used when the
// configuration does not supply one.
var DefaultCategories = []string{"KYC", "RGPD", "LCBFT", "MIFID", "RSE", "INTERNAL_REPORTING"}

// Resolver maps a document path or name to a known meta-category.
// The known set comes from configuration; matching is case-insensitive.
type Resolver struct {
	known []string
}

// NewResolver creates a resolver over the given category set.
// An empty set falls back to DefaultCategories.
func NewResolver(categories []string) *Resolver {
	if len(categories) == 0 {
		categories = DefaultCategories
	}
	known := make([]string, len(categories))
	for i, c := range categories {
		known[i] = strings.ToUpper(strings.TrimSpace(c))
	}
	return &Resolver{known: known}
}

// Known returns the configured category set.
func (r *Resolver) Known() []string {
	out := make([]string, len(r.known))
	copy(out, r.known)
	return out
}

// IsKnown reports whether cat is a recognized meta-category.
func (r *Resolver) IsKnown(cat string) bool {
	cat = strings.ToUpper(strings.TrimSpace(cat))
	for _, k := range r.known {
		if k == cat {
			return true
		}
	}
	return false
}

// Resolve determines the meta-category for a document.
//
// An explicit override always wins when it names a known category. Otherwise
// the path is scanned segment by segment, filename first and then parent
// directories, for a substring match against the known set; within one
// segment the longest category name wins. Resolve has no side effects and
// fails with models.ErrCategoryUnresolved when nothing matches.
func (r *Resolver) Resolve(pathOrName string, override string) (string, error) {
	if override != "" {
		up := strings.ToUpper(strings.TrimSpace(override))
		if r.IsKnown(up) {
			return up, nil
		}
	}

	normalized := strings.ToLower(strings.ReplaceAll(pathOrName, "\\", "/"))
	segments := strings.Split(normalized, "/")

	// Filename is the most specific segment; walk backwards from it.
	for i := len(segments) - 1; i >= 0; i-- {
		seg := segments[i]
		if seg == "" {
			continue
		}
		if match := r.bestMatch(seg); match != "" {
			return match, nil
		}
	}

	return "", fmt.Errorf("%w: %q", models.ErrCategoryUnresolved, pathOrName)
}

// bestMatch returns the longest known category contained in segment,
// or empty when none matches.
func (r *Resolver) bestMatch(segment string) string {
	best := ""
	for _, cat := range r.known {
		if strings.Contains(segment, strings.ToLower(cat)) && len(cat) > len(best) {
			best = cat
		}
	}
	return best
}
