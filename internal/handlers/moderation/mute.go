package moderation

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/rottengram/rottenshield/internal/bot"
	"github.com/rottengram/rottenshield/internal/i18n"
	"github.com/rottengram/rottenshield/internal/infrastructure/telegram"
	"github.com/rottengram/rottenshield/internal/observability"
)

func (m *Moderation) mute(ctx context.Context, c *command) error {
	if !m.requireAdmin(ctx, c) {
		return nil
	}

	cfg := m.GetService().GetConfig().Moderation
	duration := cfg.DefaultMute
	parts, args := SplitDuration(c.args)
	if len(parts) > 0 {
		d, err := ParseDuration(strings.Join(parts, " "), cfg.MaxMute)
		if err != nil {
			m.notify(ctx, c, durationErrorText(err, cfg.MaxMute, c.lang))
			return nil
		}
		duration = d
	}

	target, _, ok := m.targetOrNotify(ctx, c, args, i18n.Get("🔍 Specify a valid user (reply, @username or ID).\nExamples:\n/blocca 5m (reply)\n/blocca @username 10m\n/blocca 123456789 1h", c.lang))
	if !ok {
		return nil
	}
	if m.targetIsAdmin(ctx, c, target, i18n.Get("❌ I can't mute an admin!", c.lang)) {
		return nil
	}

	until := m.now().Add(duration)
	if err := m.GetService().GetPlatform().Restrict(ctx, c.chat.ID, target.ID, telegram.NoPermissions(), until); err != nil {
		m.notify(ctx, c, i18n.Get("❌ Error while muting.", c.lang))
		return errors.WithMessage(err, "mute")
	}
	observability.RecordModerationAction("mute")
	m.GetLogger().WithFields(log.Fields{"chat_id": c.chat.ID, "user_id": target.ID, "until": until}).Info("user muted")

	text := fmt.Sprintf(i18n.Get("🔇 %s muted for %s.", c.lang), bot.GetFullName(target), i18n.FormatDuration(duration, c.lang))
	return m.reply(ctx, c, text)
}

func (m *Moderation) unmute(ctx context.Context, c *command) error {
	if !m.requireAdmin(ctx, c) {
		return nil
	}

	target, _, ok := m.targetOrNotify(ctx, c, c.args, i18n.Get("🔍 Specify a valid user (reply, @username or ID).\nExamples:\n/libera (reply)\n/libera @username\n/libera 123456789", c.lang))
	if !ok {
		return nil
	}
	if m.targetIsAdmin(ctx, c, target, i18n.Get("❌ I can't unmute an admin!", c.lang)) {
		return nil
	}

	if err := m.GetService().GetPlatform().Unrestrict(ctx, c.chat.ID, target.ID); err != nil {
		m.notify(ctx, c, i18n.Get("❌ Error while unmuting.", c.lang))
		return errors.WithMessage(err, "unmute")
	}
	// An admin lifting the mute also vouches for the user towards the Premium check.
	if err := m.GetService().GetDB().MarkBoosted(ctx, target.ID, m.now()); err != nil {
		m.GetLogger().WithError(err).WithField("user_id", target.ID).Warn("cant mark user as verified")
	}
	observability.RecordModerationAction("unmute")

	return m.reply(ctx, c, fmt.Sprintf(i18n.Get("✅ %s unmuted successfully!", c.lang), bot.GetFullName(target)))
}
