package state

// Permission is a closed enumeration of everything a role can be allowed to
// do. Gating on a permission that does not exist is a compile error, not a
// silent false.
type Permission int

const (
	PermManageOrganization Permission = iota
	PermManageBrands
	PermManageChannels
	PermPublishPosts
	PermManageContacts
	PermSendMessages
	PermManageTemplates
	PermViewAnalytics
)

// Role is a member's role inside an organization.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// Allows reports whether the role grants the permission. Unknown roles get
// nothing.
func (r Role) Allows(p Permission) bool {
	switch r {
	case RoleOwner:
		return true
	case RoleAdmin:
		return p != PermManageOrganization
	case RoleEditor:
		switch p {
		case PermPublishPosts, PermManageContacts, PermSendMessages, PermManageTemplates, PermViewAnalytics:
			return true
		}
		return false
	case RoleViewer:
		return p == PermViewAnalytics
	}
	return false
}
