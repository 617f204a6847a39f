package permissions

import (
	"testing"

	api "github.com/OvyFlash/telegram-bot-api"
)

func TestRoles(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name        string
		member      *api.ChatMember
		owner       bool
		admin       bool
		canRestrict bool
	}{
		{"nil", nil, false, false, false},
		{"creator", &api.ChatMember{Status: "creator"}, true, true, true},
		{"admin without rights", &api.ChatMember{Status: "administrator"}, false, true, false},
		{"admin with rights", &api.ChatMember{Status: "administrator", CanRestrictMembers: true}, false, true, true},
		{"member", &api.ChatMember{Status: "member"}, false, false, false},
		{"restricted", &api.ChatMember{Status: "restricted"}, false, false, false},
	}
	for _, tc := range cases {
		if got := IsOwner(tc.member); got != tc.owner {
			t.Fatalf("%s: IsOwner=%v", tc.name, got)
		}
		if got := IsAdmin(tc.member); got != tc.admin {
			t.Fatalf("%s: IsAdmin=%v", tc.name, got)
		}
		if got := CanRestrict(tc.member); got != tc.canRestrict {
			t.Fatalf("%s: CanRestrict=%v", tc.name, got)
		}
	}
}
