// Package permission decides read/write access from the request method and
// the caller's identity. Every predicate is pure.
package permission

import (
	"net/http"

	"titlehub/internal/microservices/http-api/models"
)

// Identity is the authenticated caller. The zero value is an anonymous caller.
type Identity struct {
	UserID      string
	Username    string
	Role        models.Role
	IsSuperuser bool
}

func (i Identity) Authenticated() bool {
	return i.UserID != ""
}

// IsAdmin is true for the admin role or the superuser flag; the two are
// independent capabilities.
func (i Identity) IsAdmin() bool {
	return i.Authenticated() && (i.Role == models.RoleAdmin || i.IsSuperuser)
}

func (i Identity) IsModerator() bool {
	return i.Authenticated() && i.Role == models.RoleModerator
}

// IsStaff covers everyone allowed to edit content they did not write.
func (i Identity) IsStaff() bool {
	return i.IsAdmin() || i.IsModerator()
}

// FromUser builds the identity of a persisted account.
func FromUser(u *models.User) Identity {
	return Identity{
		UserID:      u.ID,
		Username:    u.Username,
		Role:        u.Role,
		IsSuperuser: u.IsSuperuser,
	}
}

// IsSafeMethod reports read-only methods.
func IsSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// AdminOnly guards account management.
func AdminOnly(id Identity) bool {
	return id.IsAdmin()
}

// AdminOrReadOnly lets anyone read and only admins write.
func AdminOrReadOnly(method string, id Identity) bool {
	return IsSafeMethod(method) || id.IsAdmin()
}

// AuthorOrStaffOrReadOnly guards user-generated content.
type AuthorOrStaffOrReadOnly struct{}

// HasPermission is the collection-level check: reads are public, any write
// needs an authenticated caller.
func (AuthorOrStaffOrReadOnly) HasPermission(method string, id Identity) bool {
	return IsSafeMethod(method) || id.Authenticated()
}

// HasObjectPermission is the per-object check for an existing object written
// by authorID.
func (AuthorOrStaffOrReadOnly) HasObjectPermission(method string, id Identity, authorID string) bool {
	if IsSafeMethod(method) {
		return true
	}
	if method == http.MethodPost {
		return id.Authenticated()
	}
	if !id.Authenticated() {
		return false
	}
	return id.UserID == authorID || id.IsStaff()
}
