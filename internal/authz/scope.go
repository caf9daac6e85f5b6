package authz

// StudentSet holds the student ids linked to a parent identity.
type StudentSet map[int64]struct{}

// NewStudentSet builds a set from ids.
func NewStudentSet(ids ...int64) StudentSet {
	set := make(StudentSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Has reports membership.
func (s StudentSet) Has(id int64) bool {
	_, ok := s[id]
	return ok
}

// Actor is an identity together with its parent-student links.
type Actor struct {
	Identity
	Students StudentSet
}

// NewActor pairs an identity with its linked students.
func NewActor(identity Identity, students StudentSet) Actor {
	if students == nil {
		students = StudentSet{}
	}
	return Actor{Identity: identity, Students: students}
}

// IsLinked reports whether the actor holds PADRE and is linked to studentID.
func (a Actor) IsLinked(studentID int64) bool {
	return a.HasRole(RoleParent) && a.Students.Has(studentID)
}

// CanAccessStudent is the student-scope rule shared by procedures and invoices:
// ADMIN reaches every student, PADRE only the linked ones.
func CanAccessStudent(actor Actor, studentID int64) bool {
	if actor.HasRole(RoleAdmin) {
		return true
	}
	return actor.IsLinked(studentID)
}
