package permissions

import api "github.com/OvyFlash/telegram-bot-api"

// IsOwner reports whether member created the chat.
func IsOwner(member *api.ChatMember) bool {
	return member != nil && member.IsCreator()
}

// IsAdmin is true for the creator and every administrator, whatever their rights.
func IsAdmin(member *api.ChatMember) bool {
	if member == nil {
		return false
	}
	return member.IsCreator() || member.IsAdministrator()
}

// CanRestrict reports whether member may mute or ban others.
func CanRestrict(member *api.ChatMember) bool {
	if member == nil {
		return false
	}
	if member.IsCreator() {
		return true
	}
	return member.IsAdministrator() && member.CanRestrictMembers
}
