package moderation

import (
	"context"
	"fmt"
	"strings"

	"github.com/rottengram/rottenshield/internal/bot"
	"github.com/rottengram/rottenshield/internal/i18n"
)

func (m *Moderation) immune(ctx context.Context, c *command) error {
	if !m.requireOwner(ctx, c) {
		return nil
	}
	target, _, err := m.resolveTarget(ctx, c, c.args)
	if err != nil {
		m.GetLogger().WithError(err).Debug("cant resolve immune target")
		m.notifyKept(ctx, c, i18n.Get("⚠️ Could not find the specified user.", c.lang))
		return nil
	}

	engine := m.GetService().GetCooldowns().For(c.chat.ID)
	var text string
	if engine.ToggleImmune(target.ID) {
		text = fmt.Sprintf(i18n.Get("✅ %s is now immune to the cooldown system.", c.lang), target.FirstName)
	} else {
		text = fmt.Sprintf(i18n.Get("❌ %s is no longer immune to the cooldown system.", c.lang), target.FirstName)
	}
	m.GetLogger().WithField("user_id", target.ID).Info(text)
	return m.send(ctx, c, text)
}

func (m *Moderation) immuneList(ctx context.Context, c *command) error {
	if !m.requireOwner(ctx, c) {
		return nil
	}
	ids := m.GetService().GetCooldowns().For(c.chat.ID).ListImmune()
	if len(ids) == 0 {
		return m.send(ctx, c, i18n.Get("ℹ️ No user is currently immune to the cooldown system.", c.lang))
	}

	lines := make([]string, 0, len(ids))
	platform := m.GetService().GetPlatform()
	for _, id := range ids {
		var display string
		member, err := platform.GetChatMember(ctx, c.chat.ID, id)
		switch {
		case err != nil || member.User == nil:
			display = fmt.Sprintf("ID: %d", id)
		case member.User.UserName != "":
			display = "@" + member.User.UserName
		default:
			display = fmt.Sprintf("%s (ID: %d)", bot.GetFullName(member.User), id)
		}
		lines = append(lines, "- "+display)
	}
	return m.send(ctx, c, fmt.Sprintf(i18n.Get("🛡️ Users immune to the cooldown system:\n%s", c.lang), strings.Join(lines, "\n")))
}
