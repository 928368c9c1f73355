package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-analytics/internal/domain"
	apperrors "github.com/spec-kit/complaint-analytics/pkg/util/errorutil"
)

// AnalyticsRoles may read aggregated views.
var AnalyticsRoles = []domain.Role{
	domain.RoleAdministrator,
	domain.RoleWardOfficer,
	domain.RoleMaintenanceTeam,
	domain.RoleCitizen,
}

// RequireRole ensures the caller holds one of the allowed roles.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[identity.Role]; !exists {
			return apperrors.NewForbidden("insufficient role", map[string]any{"role": string(identity.Role)})
		}
		return c.Next()
	}
}
