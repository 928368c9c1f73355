package analytics

import (
	"strings"

	"github.com/spec-kit/complaint-analytics/internal/domain"
	"github.com/spec-kit/complaint-analytics/internal/repository"
	apperrors "github.com/spec-kit/complaint-analytics/pkg/util/errorutil"
)

// AllWards is the explicit "no ward narrowing" parameter value.
const AllWards = "all"

// Scope is the immutable, role-derived visibility of one request.
type Scope struct {
	role          domain.Role
	userID        string
	homeWard      string
	requestedWard string
}

// Predicate restricts the ledger rows a scope may see.
type Predicate struct {
	WardID        *string
	AssignedToID  *string
	SubmittedByID *string
}

// NewScope builds a scope from a trusted identity and the client's ward parameter.
func NewScope(identity domain.Identity, requestedWard string) (Scope, error) {
	if !identity.Role.Valid() {
		return Scope{}, apperrors.NewForbidden("unknown role", map[string]any{"role": string(identity.Role)})
	}
	scope := Scope{role: identity.Role, userID: identity.UserID}
	if identity.WardID != nil {
		scope.homeWard = strings.TrimSpace(*identity.WardID)
	}
	requested := strings.TrimSpace(requestedWard)
	if !strings.EqualFold(requested, AllWards) {
		scope.requestedWard = requested
	}

	switch identity.Role {
	case domain.RoleWardOfficer:
		if scope.homeWard == "" {
			return Scope{}, apperrors.NewForbidden("ward officer has no assigned ward", nil)
		}
	case domain.RoleMaintenanceTeam, domain.RoleCitizen:
		if scope.userID == "" {
			return Scope{}, apperrors.NewForbidden("user id required for role", map[string]any{"role": string(identity.Role)})
		}
	}
	return scope, nil
}

// Role returns the caller role.
func (s Scope) Role() domain.Role { return s.role }

// IsAdmin reports ADMINISTRATOR scope.
func (s Scope) IsAdmin() bool { return s.role == domain.RoleAdministrator }

// HomeWard is the caller's own ward, empty unless set by the auth layer.
func (s Scope) HomeWard() string { return s.homeWard }

// RequestedWard is the ward the client asked for, empty when unscoped or "all".
func (s Scope) RequestedWard() string { return s.requestedWard }

// Ward is the ward the predicate pins, or empty when unrestricted by ward.
func (s Scope) Ward() string {
	switch s.role {
	case domain.RoleAdministrator:
		return s.requestedWard
	case domain.RoleWardOfficer:
		return s.homeWard
	}
	return ""
}

// Predicate derives the row restriction. Ward officers are always pinned to their
// own ward; a client ward parameter never widens or moves that.
func (s Scope) Predicate() Predicate {
	var p Predicate
	switch s.role {
	case domain.RoleAdministrator:
		if s.requestedWard != "" {
			ward := s.requestedWard
			p.WardID = &ward
		}
	case domain.RoleWardOfficer:
		ward := s.homeWard
		p.WardID = &ward
	case domain.RoleMaintenanceTeam:
		user := s.userID
		p.AssignedToID = &user
	case domain.RoleCitizen:
		user := s.userID
		p.SubmittedByID = &user
	}
	return p
}

// AuthorizeRequestedWard rejects explicit requests for data outside the scope.
// Used by surfaces that target a ward directly rather than filtering by scope.
func (s Scope) AuthorizeRequestedWard() error {
	if s.requestedWard == "" || s.IsAdmin() {
		return nil
	}
	if s.role == domain.RoleWardOfficer && s.requestedWard == s.homeWard {
		return nil
	}
	return apperrors.NewForbidden("requested ward is outside caller scope", map[string]any{
		"ward": s.requestedWard,
		"role": string(s.role),
	})
}

// Filter converts the predicate into a repository filter.
func (p Predicate) Filter() repository.ComplaintFilter {
	return repository.ComplaintFilter{
		WardID:        p.WardID,
		AssignedToID:  p.AssignedToID,
		SubmittedByID: p.SubmittedByID,
	}
}

// Matches applies the predicate to a loaded complaint.
func (p Predicate) Matches(c *domain.Complaint) bool {
	if p.WardID != nil && c.WardID != *p.WardID {
		return false
	}
	if p.AssignedToID != nil && (c.AssignedToID == nil || *c.AssignedToID != *p.AssignedToID) {
		return false
	}
	if p.SubmittedByID != nil && (c.SubmittedByID == nil || *c.SubmittedByID != *p.SubmittedByID) {
		return false
	}
	return true
}
