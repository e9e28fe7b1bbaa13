package model

import "fmt"

// Role is the closed set of account roles. The order of declaration is the
// privilege order: user < admin < creator.
type Role string

const (
	RoleUser    Role = "user"
	RoleAdmin   Role = "admin"
	RoleCreator Role = "creator"
)

// ParseRole validates a stored or claimed role string.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleUser, RoleAdmin, RoleCreator:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Rank orders roles; unknown roles rank below user.
func (r Role) Rank() int {
	switch r {
	case RoleUser:
		return 1
	case RoleAdmin:
		return 2
	case RoleCreator:
		return 3
	}
	return 0
}

// AtLeast reports whether r is min or a more privileged role.
func (r Role) AtLeast(min Role) bool { return r.Rank() >= min.Rank() && r.Rank() > 0 }

func (r Role) String() string { return string(r) }

// CanModerate is the gate for zone approval/rejection, zone edits and
// deletes, organization management and the admin panels.
func CanModerate(r Role) bool { return r.AtLeast(RoleAdmin) }

// CanManageTasks gates task deletion and the verification queue.
func CanManageTasks(r Role) bool { return r.AtLeast(RoleAdmin) }

// SeesUnapproved reports whether pending and rejected zones are visible.
func SeesUnapproved(r Role) bool { return r.AtLeast(RoleAdmin) }

func IsCreator(r Role) bool { return r == RoleCreator }

// RoleChange is the outcome of toggling a user's role from the admin panel.
// Creators are immutable, nobody edits themselves, and only the creator may
// touch another admin.
func RoleChange(actor Role, actorID uint64, target Role, targetID uint64) (Role, error) {
	if err := checkAccountAction(actor, actorID, target, targetID); err != nil {
		return "", err
	}
	if target == RoleAdmin {
		return RoleUser, nil
	}
	return RoleAdmin, nil
}

// CanToggleActive applies the same rules to activation/deactivation.
func CanToggleActive(actor Role, actorID uint64, target Role, targetID uint64) error {
	return checkAccountAction(actor, actorID, target, targetID)
}

func checkAccountAction(actor Role, actorID uint64, target Role, targetID uint64) error {
	switch {
	case !CanModerate(actor):
		return ErrNotPermitted
	case actorID == targetID:
		return ErrSelfAction
	case target == RoleCreator:
		return ErrCreatorImmutable
	case target == RoleAdmin && !IsCreator(actor):
		return ErrNotPermitted
	}
	return nil
}
