package models

// EntityFamily identifies one of the record families governed by the
// authorization layer. The scoping engine, the object authorization
// engine and the role gate all dispatch on this type.
type EntityFamily string

const (
	FamilyStudent     EntityFamily = "STUDENT"
	FamilyParent      EntityFamily = "PARENT"
	FamilyGrade       EntityFamily = "GRADE"
	FamilyTeacher     EntityFamily = "TEACHER"
	FamilySubject     EntityFamily = "SUBJECT"
	FamilyPerformance EntityFamily = "PERFORMANCE"
	FamilyAttendance  EntityFamily = "ATTENDANCE"
	FamilyInvoice     EntityFamily = "INVOICE"
	FamilyPayment     EntityFamily = "PAYMENT"
	FamilyEnrollment  EntityFamily = "ENROLLMENT"
)

// Families lists every governed family, useful for exhaustive checks in
// tests and for the role gate table.
func Families() []EntityFamily {
	return []EntityFamily{
		FamilyStudent,
		FamilyParent,
		FamilyGrade,
		FamilyTeacher,
		FamilySubject,
		FamilyPerformance,
		FamilyAttendance,
		FamilyInvoice,
		FamilyPayment,
		FamilyEnrollment,
	}
}

// Record is any entity instance that can be passed to the object
// authorization engine.
type Record interface {
	EntityFamily() EntityFamily
}
