// Package security provides capability tags and authorization checks.
package security

import (
	"context"
	"slices"
	"sort"

	"orderdesk/internal/core/apperror"
	appctx "orderdesk/internal/core/context"
)

// Capability is a closed set of tags describing what a viewer may see or do.
type Capability string

const (
	CapAdmin   Capability = "admin"
	CapFinance Capability = "finance"
	// CapFactory is the factory-floor role (production, no sale or cost figures).
	CapFactory Capability = "factory"
	// CapRestrictedLocale marks collaborators working from a restricted locale.
	CapRestrictedLocale Capability = "restricted_locale"
)

// Known returns all capability tags the system understands.
func Known() []Capability {
	return []Capability{CapAdmin, CapFinance, CapFactory, CapRestrictedLocale}
}

// IsKnown reports whether c is part of the closed capability set.
func IsKnown(c Capability) bool {
	return slices.Contains(Known(), c)
}

// Set is an unordered set of capabilities.
type Set map[Capability]struct{}

// NewSet builds a Set from raw tags, dropping unknown ones.
func NewSet(tags ...string) Set {
	s := make(Set, len(tags))
	for _, t := range tags {
		c := Capability(t)
		if IsKnown(c) {
			s[c] = struct{}{}
		}
	}
	return s
}

// Has reports whether c is in the set.
func (s Set) Has(c Capability) bool {
	_, ok := s[c]
	return ok
}

// HasAny reports whether any of caps is in the set.
func (s Set) HasAny(caps ...Capability) bool {
	for _, c := range caps {
		if s.Has(c) {
			return true
		}
	}
	return false
}

// Strings returns the tags sorted, for deterministic evaluation and logging.
func (s Set) Strings() []string {
	out := make([]string, 0, len(s))
	for c := range s {
		out = append(out, string(c))
	}
	sort.Strings(out)
	return out
}

// Patch adds and removes capabilities for one identity.
type Patch struct {
	Grant  []Capability `json:"grant,omitempty"`
	Revoke []Capability `json:"revoke,omitempty"`
}

// Apply returns a new set with the patch applied. Revocations win over grants.
func (p Patch) Apply(s Set) Set {
	out := make(Set, len(s)+len(p.Grant))
	for c := range s {
		out[c] = struct{}{}
	}
	for _, c := range p.Grant {
		if IsKnown(c) {
			out[c] = struct{}{}
		}
	}
	for _, c := range p.Revoke {
		delete(out, c)
	}
	return out
}

// ViewerSet returns the raw capability set of the request viewer, before overrides.
func ViewerSet(ctx context.Context) Set {
	v := appctx.GetViewer(ctx)
	if v == nil {
		return Set{}
	}
	return NewSet(v.Capabilities...)
}

// Require returns Forbidden unless s contains one of caps.
func Require(s Set, caps ...Capability) error {
	if !s.HasAny(caps...) {
		return apperror.NewForbidden("insufficient capabilities").
			WithDetail("required_any", caps)
	}
	return nil
}
