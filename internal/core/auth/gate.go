package auth

import "github.com/klinik-sehat/clinic-records/internal/core/domain"

// AuthorizeRole allows identity only when its role equals required. Roles are
// not ordered: an admin does not pass a doctor gate.
func AuthorizeRole(identity *domain.User, required domain.Role) error {
	if identity == nil {
		return domain.ErrUnauthenticated
	}
	if identity.Role != required {
		return domain.ErrForbidden
	}
	return nil
}
