package roles

// PermissionSet is the flat capability projection of a role plus the
// board-member flag. Handlers read these instead of comparing roles inline.
type PermissionSet struct {
	CanViewDashboard     bool `json:"can_view_dashboard"`
	CanCreateContent     bool `json:"can_create_content"`
	CanEditOwnContent    bool `json:"can_edit_own_content"`
	CanEditOthersContent bool `json:"can_edit_others_content"`
	CanPublishContent    bool `json:"can_publish_content"`
	CanModerateComments  bool `json:"can_moderate_comments"`
	CanManageMedia       bool `json:"can_manage_media"`
	CanViewMembers       bool `json:"can_view_members"`
	CanManageMembers     bool `json:"can_manage_members"`
	CanApproveMembership bool `json:"can_approve_membership"`
	CanManageUsers       bool `json:"can_manage_users"`
	CanManageSettings    bool `json:"can_manage_settings"`
}

// ProjectPermissions derives the capability set for a role. The board flag
// is independent of the BOARD role: a user may hold either or both, and
// board-scoped capabilities are granted by whichever is present.
// Pure and deterministic; identical inputs always yield identical sets.
func ProjectPermissions(role Role, isBoardMember bool) PermissionSet {
	board := HasAuthority(role, RoleBoard) || isBoardMember

	return PermissionSet{
		CanViewDashboard:     HasAuthority(role, RoleAuthor),
		CanCreateContent:     HasAuthority(role, RoleAuthor),
		CanEditOwnContent:    HasAuthority(role, RoleAuthor),
		CanEditOthersContent: HasAuthority(role, RoleEditor),
		CanPublishContent:    HasAuthority(role, RoleEditor),
		CanModerateComments:  HasAuthority(role, RoleModerator),
		CanManageMedia:       HasAuthority(role, RoleEditor),
		CanViewMembers:       board,
		CanManageMembers:     board,
		CanApproveMembership: board,
		CanManageUsers:       HasAuthority(role, RoleAdmin),
		CanManageSettings:    HasAuthority(role, RoleAdmin),
	}
}
