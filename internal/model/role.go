package model

// Role is a membership level held on a workspace or on a board.
// Workspace and board roles are assigned independently.
type Role string

const (
	RoleNone   Role = ""
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	}
	return false
}

// Elevated reports whether the role is owner or admin.
func (r Role) Elevated() bool {
	return r == RoleOwner || r == RoleAdmin
}
