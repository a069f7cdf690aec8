package auth

import (
	"github.com/khomenkoalx/api-yamdb/internal/domain"
)

// Policy answers authorization questions from the user record alone.
// Tokens carry identity, never permissions.
type Policy struct {
	// StaffIsAdmin extends catalog and user administration to accounts
	// with the staff flag set, regardless of role.
	StaffIsAdmin bool
}

// isAdmin reports whether the user has administrator privileges.
func (p Policy) isAdmin(user *domain.User) bool {
	if user == nil {
		return false
	}
	if p.StaffIsAdmin && user.IsStaff {
		return true
	}
	return user.IsAdmin()
}

// CanManageUsers reports whether the user may administer accounts.
func (p Policy) CanManageUsers(user *domain.User) bool {
	return p.isAdmin(user)
}

// CanWriteCatalog reports whether the user may create, change or delete
// categories, genres and titles. Reading the catalog is open to everyone.
func (p Policy) CanWriteCatalog(user *domain.User) bool {
	return p.isAdmin(user)
}

// CanModifyAuthored reports whether the user may edit or delete a review
// or comment written by authorID. Authors manage their own content;
// moderators and admins manage anyone's.
func (p Policy) CanModifyAuthored(user *domain.User, authorID int64) bool {
	if user == nil {
		return false
	}
	if user.ID == authorID {
		return true
	}
	return user.IsModerator() || p.isAdmin(user)
}
