package policy

import "github.com/noah-isme/student-records-api/internal/models"

// Gate is the coarse role gate: it decides whether a role has any
// standing to attempt a capability on an entity family, independent of
// row content. It runs before the scoping and object engines as a cheap
// short-circuit and never substitutes for them; an actor allowed to list
// a family still only sees its scoped subset.
func Gate(role models.Role, family models.EntityFamily, capability Capability) bool {
	switch capability {
	case CapabilityCreate, CapabilityUpdate, CapabilityDelete:
		// All writes are admin-only.
		return role == models.RoleAdmin
	case CapabilityList:
		switch role {
		case models.RoleAdmin, models.RoleStudent, models.RoleParent:
			return true
		case models.RoleTeacher:
			// Financial records are admin+family only.
			return family != models.FamilyInvoice && family != models.FamilyPayment
		default:
			// Pending and unrecognised roles have no standing at all.
			return false
		}
	default:
		return false
	}
}
