package middleware

import (
	"github.com/gin-gonic/gin"

	"orderdesk/internal/core/apperror"
	appctx "orderdesk/internal/core/context"
	"orderdesk/internal/core/security"
)

// CapabilityResolver yields a viewer's effective capabilities, after identity overrides.
type CapabilityResolver interface {
	Effective(v *appctx.Viewer) security.Set
}

// RequireCapability rejects viewers that hold none of caps.
func RequireCapability(resolver CapabilityResolver, caps ...security.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		viewer := appctx.GetViewer(c.Request.Context())
		if viewer == nil {
			_ = c.Error(apperror.NewUnauthorized("authentication required"))
			c.Abort()
			return
		}

		if err := security.Require(resolver.Effective(viewer), caps...); err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		c.Next()
	}
}
