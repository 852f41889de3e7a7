package roles

import (
	"reflect"
	"testing"
)

func TestProjectPermissionsDeterministic(t *testing.T) {
	for _, r := range All() {
		for _, board := range []bool{false, true} {
			first := ProjectPermissions(r, board)
			for i := 0; i < 5; i++ {
				if got := ProjectPermissions(r, board); !reflect.DeepEqual(got, first) {
					t.Errorf("ProjectPermissions(%s, %v) not deterministic", r, board)
				}
			}
		}
	}
}

// capabilities as ordered accessors so monotonicity can be checked generically
func capabilities(p PermissionSet) map[string]bool {
	return map[string]bool{
		"view_dashboard":      p.CanViewDashboard,
		"create_content":      p.CanCreateContent,
		"edit_own_content":    p.CanEditOwnContent,
		"edit_others_content": p.CanEditOthersContent,
		"publish_content":     p.CanPublishContent,
		"moderate_comments":   p.CanModerateComments,
		"manage_media":        p.CanManageMedia,
		"view_members":        p.CanViewMembers,
		"manage_members":      p.CanManageMembers,
		"approve_membership":  p.CanApproveMembership,
		"manage_users":        p.CanManageUsers,
		"manage_settings":     p.CanManageSettings,
	}
}

func TestPermissionsMonotonicInAuthority(t *testing.T) {
	all := All()
	for i := 1; i < len(all); i++ {
		lower := capabilities(ProjectPermissions(all[i-1], false))
		higher := capabilities(ProjectPermissions(all[i], false))
		for name, had := range lower {
			if had && !higher[name] {
				t.Errorf("%s has %s but %s does not", all[i-1], name, all[i])
			}
		}
	}
}

func TestBoardFlagGrantsBoardCapabilities(t *testing.T) {
	// A plain USER flagged as board member gets board capabilities
	// without inheriting content or admin capabilities.
	p := ProjectPermissions(RoleUser, true)

	if !p.CanApproveMembership {
		t.Error("Expected board-flagged user to approve membership")
	}
	if !p.CanViewMembers || !p.CanManageMembers {
		t.Error("Expected board-flagged user to view and manage members")
	}
	if p.CanManageUsers {
		t.Error("Board flag must not grant user management")
	}
	if p.CanEditOthersContent {
		t.Error("Board flag must not grant content editing")
	}
}

func TestRoleThresholds(t *testing.T) {
	cases := []struct {
		role    Role
		check   func(PermissionSet) bool
		name    string
		allowed bool
	}{
		{RoleUser, func(p PermissionSet) bool { return p.CanCreateContent }, "user creates content", false},
		{RoleAuthor, func(p PermissionSet) bool { return p.CanCreateContent }, "author creates content", true},
		{RoleAuthor, func(p PermissionSet) bool { return p.CanEditOthersContent }, "author edits others", false},
		{RoleEditor, func(p PermissionSet) bool { return p.CanEditOthersContent }, "editor edits others", true},
		{RoleEditor, func(p PermissionSet) bool { return p.CanApproveMembership }, "editor approves membership", false},
		{RoleBoard, func(p PermissionSet) bool { return p.CanApproveMembership }, "board approves membership", true},
		{RoleBoard, func(p PermissionSet) bool { return p.CanManageUsers }, "board manages users", false},
		{RoleAdmin, func(p PermissionSet) bool { return p.CanManageUsers }, "admin manages users", true},
		{RoleModerator, func(p PermissionSet) bool { return p.CanModerateComments }, "moderator moderates", true},
		{RoleAuthor, func(p PermissionSet) bool { return p.CanModerateComments }, "author moderates", false},
	}

	for _, tc := range cases {
		if got := tc.check(ProjectPermissions(tc.role, false)); got != tc.allowed {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.allowed, got)
		}
	}
}
