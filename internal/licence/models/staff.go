package models

import "fmt"

// StaffKind distinguishes probation practitioners from prison staff.
type StaffKind string

const (
	StaffKindCom        StaffKind = "COMMUNITY_OFFENDER_MANAGER"
	StaffKindPrisonUser StaffKind = "PRISON_USER"
)

// Staff is a user who can own, create, or submit licences.
type Staff struct {
	ID              int64
	Kind            StaffKind
	Username        string
	Email           string
	FirstName       string
	LastName        string
	StaffIdentifier int64
}

// FullName returns "{first} {last}".
func (s Staff) FullName() string {
	return fmt.Sprintf("%s %s", s.FirstName, s.LastName)
}

// Actor returns the actor view of the staff member.
func (s Staff) Actor() Actor {
	return Actor{Username: s.Username, FirstName: s.FirstName, LastName: s.LastName}
}

// Actor identifies who performed a transition. Batch jobs act as SystemActor.
type Actor struct {
	Username  string
	FirstName string
	LastName  string
}

const systemUsername = "SYSTEM"

// SystemActor is recorded when a transition is not attributable to a person.
var SystemActor = Actor{Username: systemUsername, FirstName: systemUsername, LastName: ""}

// IsSystem reports whether the actor is the system sentinel.
func (a Actor) IsSystem() bool { return a.Username == systemUsername }

// DisplayName is the name stamped on approvals: "{first} {last}".
func (a Actor) DisplayName() string {
	if a.IsSystem() {
		return systemUsername
	}
	return fmt.Sprintf("%s %s", a.FirstName, a.LastName)
}

// ActorOrSystem returns *a, or SystemActor when a is nil.
func ActorOrSystem(a *Actor) Actor {
	if a == nil || a.Username == "" {
		return SystemActor
	}
	return *a
}
