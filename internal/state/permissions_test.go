package state

import "testing"

var allPermissions = []Permission{
	PermManageOrganization,
	PermManageBrands,
	PermManageChannels,
	PermPublishPosts,
	PermManageContacts,
	PermSendMessages,
	PermManageTemplates,
	PermViewAnalytics,
}

func TestRoleAllows(t *testing.T) {
	expected := map[Role]map[Permission]bool{
		RoleOwner: {
			PermManageOrganization: true,
			PermManageBrands:       true,
			PermManageChannels:     true,
			PermPublishPosts:       true,
			PermManageContacts:     true,
			PermSendMessages:       true,
			PermManageTemplates:    true,
			PermViewAnalytics:      true,
		},
		RoleAdmin: {
			PermManageOrganization: false,
			PermManageBrands:       true,
			PermManageChannels:     true,
			PermPublishPosts:       true,
			PermManageContacts:     true,
			PermSendMessages:       true,
			PermManageTemplates:    true,
			PermViewAnalytics:      true,
		},
		RoleEditor: {
			PermManageOrganization: false,
			PermManageBrands:       false,
			PermManageChannels:     false,
			PermPublishPosts:       true,
			PermManageContacts:     true,
			PermSendMessages:       true,
			PermManageTemplates:    true,
			PermViewAnalytics:      true,
		},
		RoleViewer: {
			PermManageOrganization: false,
			PermManageBrands:       false,
			PermManageChannels:     false,
			PermPublishPosts:       false,
			PermManageContacts:     false,
			PermSendMessages:       false,
			PermManageTemplates:    false,
			PermViewAnalytics:      true,
		},
	}

	for role, grants := range expected {
		for _, p := range allPermissions {
			if got := role.Allows(p); got != grants[p] {
				t.Fatalf("%s.Allows(%d): expected %t, got %t", role, p, grants[p], got)
			}
		}
	}
}

func TestUnknownRoleDenied(t *testing.T) {
	for _, p := range allPermissions {
		if Role("superuser").Allows(p) {
			t.Fatalf("unknown role should be denied permission %d", p)
		}
	}
}
