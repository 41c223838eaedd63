package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/student-records-api/internal/models"
)

func TestGateWritesAreAdminOnly(t *testing.T) {
	writes := []Capability{CapabilityCreate, CapabilityUpdate, CapabilityDelete}
	roles := []models.Role{models.RoleAdmin, models.RoleTeacher, models.RoleStudent, models.RoleParent, models.RolePending}

	for _, family := range models.Families() {
		for _, capability := range writes {
			for _, role := range roles {
				got := Gate(role, family, capability)
				assert.Equal(t, role == models.RoleAdmin, got,
					"role %s, family %s, capability %s", role, family, capability)
			}
		}
	}
}

func TestGateListOpenToTerminalRoles(t *testing.T) {
	for _, family := range models.Families() {
		assert.True(t, Gate(models.RoleAdmin, family, CapabilityList))
		assert.True(t, Gate(models.RoleStudent, family, CapabilityList))
		assert.True(t, Gate(models.RoleParent, family, CapabilityList))
	}
}

func TestGateTeacherExcludedFromFinancialLists(t *testing.T) {
	assert.False(t, Gate(models.RoleTeacher, models.FamilyInvoice, CapabilityList))
	assert.False(t, Gate(models.RoleTeacher, models.FamilyPayment, CapabilityList))

	for _, family := range models.Families() {
		if family == models.FamilyInvoice || family == models.FamilyPayment {
			continue
		}
		assert.True(t, Gate(models.RoleTeacher, family, CapabilityList), "family %s", family)
	}
}

func TestGatePendingDeniedEverywhere(t *testing.T) {
	capabilities := []Capability{CapabilityList, CapabilityCreate, CapabilityUpdate, CapabilityDelete}
	for _, family := range models.Families() {
		for _, capability := range capabilities {
			assert.False(t, Gate(models.RolePending, family, capability))
			// Unrecognised roles behave like Pending.
			assert.False(t, Gate(models.ParseRole("root"), family, capability))
		}
	}
}
