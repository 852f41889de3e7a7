package roles

import "fmt"

// Role is a user's system-wide role
type Role string

const (
	RoleUser      Role = "USER"
	RoleAuthor    Role = "AUTHOR"
	RoleModerator Role = "MODERATOR"
	RoleEditor    Role = "EDITOR"
	RoleBoard     Role = "BOARD"
	RoleAdmin     Role = "ADMIN"
)

// hierarchy orders roles by authority, lowest first. Authority comparison
// is purely positional; there is no role graph.
var hierarchy = []Role{
	RoleUser,
	RoleAuthor,
	RoleModerator,
	RoleEditor,
	RoleBoard,
	RoleAdmin,
}

// All returns every role in ascending authority order.
func All() []Role {
	out := make([]Role, len(hierarchy))
	copy(out, hierarchy)
	return out
}

// Valid reports whether r is a known role. Use this at input boundaries;
// everything past the boundary may assume roles are valid.
func Valid(r Role) bool {
	for _, known := range hierarchy {
		if known == r {
			return true
		}
	}
	return false
}

// AuthorityOf returns the positional rank of a role. An unknown role is a
// programming error, not a recoverable condition, so it panics.
func AuthorityOf(r Role) int {
	for i, known := range hierarchy {
		if known == r {
			return i
		}
	}
	panic(fmt.Sprintf("roles: unknown role %q", r))
}

// HasAuthority reports whether actual meets or exceeds required.
func HasAuthority(actual, required Role) bool {
	return AuthorityOf(actual) >= AuthorityOf(required)
}
