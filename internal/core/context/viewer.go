// Package context provides request-scoped values extraction.
package context

import (
	"context"
	"slices"
)

// Viewer is the identity resolved for the current request.
// It is supplied by the identity collaborator (bearer token) and never persisted.
type Viewer struct {
	UserID string
	// Identity is the stable per-person key used by visibility overrides (email).
	Identity     string
	Capabilities []string
	SessionID    string
}

// Has reports whether the viewer carries the capability tag.
func (v *Viewer) Has(capability string) bool {
	if v == nil {
		return false
	}
	return slices.Contains(v.Capabilities, capability)
}

type viewerKey struct{}

// WithViewer adds Viewer to context.
func WithViewer(ctx context.Context, v *Viewer) context.Context {
	return context.WithValue(ctx, viewerKey{}, v)
}

// GetViewer returns Viewer from context, nil when the request is anonymous.
func GetViewer(ctx context.Context) *Viewer {
	if v, ok := ctx.Value(viewerKey{}).(*Viewer); ok {
		return v
	}
	return nil
}

// GetUserID returns user ID from context or empty string.
func GetUserID(ctx context.Context) string {
	if v := GetViewer(ctx); v != nil {
		return v.UserID
	}
	return ""
}
