package moderation

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/rottengram/rottenshield/internal/bot"
	"github.com/rottengram/rottenshield/internal/db"
	"github.com/rottengram/rottenshield/internal/i18n"
	"github.com/rottengram/rottenshield/internal/observability"
)

func (m *Moderation) warn(ctx context.Context, c *command) error {
	if !m.requireAdmin(ctx, c) {
		return nil
	}
	target, _, ok := m.targetOrNotify(ctx, c, c.args, i18n.Get("Usage: /rwarn [reply to a message / user_id / @username]", c.lang))
	if !ok {
		return nil
	}
	if m.targetIsAdmin(ctx, c, target, i18n.Get("❌ I can't warn an admin.", c.lang)) {
		return nil
	}

	store := m.GetService().GetDB()
	count, err := store.AddWarning(ctx, &db.Warning{
		ChatID:   c.chat.ID,
		UserID:   target.ID,
		IssuedBy: c.issuer.ID,
		IssuedAt: m.now(),
	})
	if err != nil {
		return errors.WithMessage(err, "store warning")
	}
	observability.RecordModerationAction("warn")

	limit := m.GetService().GetConfig().Moderation.WarnLimit
	entry := m.GetLogger().WithFields(log.Fields{"chat_id": c.chat.ID, "user_id": target.ID, "warnings": count})
	if count < limit {
		entry.Info("user warned")
		return m.reply(ctx, c, fmt.Sprintf(i18n.Get("⚠️ %s received a warning (%d/%d)", c.lang), bot.GetFullName(target), count, limit))
	}

	if err := m.GetService().GetPlatform().Ban(ctx, c.chat.ID, target.ID); err != nil {
		entry.WithError(err).Error("cant ban after warnings")
		m.notify(ctx, c, i18n.Get("❌ Error while banning.", c.lang))
		return nil
	}
	if err := store.ClearWarnings(ctx, c.chat.ID, target.ID); err != nil {
		entry.WithError(err).Warn("cant clear warnings")
	}
	observability.RecordModerationAction("ban")
	entry.Info("user banned after reaching the warning limit")
	return m.reply(ctx, c, fmt.Sprintf(i18n.Get("🚫 %s has been banned (%d/%d warnings).", c.lang), bot.GetFullName(target), limit, limit))
}

func (m *Moderation) unwarn(ctx context.Context, c *command) error {
	if !m.requireAdmin(ctx, c) {
		return nil
	}
	target, rest, ok := m.targetOrNotify(ctx, c, c.args, i18n.Get("Usage: /runwarn [reply to a message / user_id / @username] [number of warnings to remove]", c.lang))
	if !ok {
		return nil
	}

	n := 1
	if len(rest) > 0 {
		parsed, err := strconv.Atoi(rest[0])
		if err != nil || parsed < 1 {
			m.notify(ctx, c, i18n.Get("❌ Invalid number of warnings to remove. Use a whole number.", c.lang))
			return nil
		}
		n = parsed
	}

	store := m.GetService().GetDB()
	count, err := store.CountWarnings(ctx, c.chat.ID, target.ID)
	if err != nil {
		m.notify(ctx, c, i18n.Get("❌ Error while removing warnings.", c.lang))
		return errors.WithMessage(err, "count warnings")
	}
	if count == 0 {
		return m.reply(ctx, c, fmt.Sprintf(i18n.Get("ℹ️ %s has no warnings.", c.lang), bot.GetFullName(target)))
	}

	removed, err := store.RemoveOldestWarnings(ctx, c.chat.ID, target.ID, n)
	if err != nil {
		m.notify(ctx, c, i18n.Get("❌ Error while removing warnings.", c.lang))
		return errors.WithMessage(err, "remove warnings")
	}
	observability.RecordModerationAction("unwarn")
	return m.reply(ctx, c, fmt.Sprintf(i18n.Get("✅ Removed %d warnings for %s.", c.lang), removed, bot.GetFullName(target)))
}

func (m *Moderation) ban(ctx context.Context, c *command) error {
	if !m.requireAdmin(ctx, c) {
		return nil
	}
	target, _, ok := m.targetOrNotify(ctx, c, c.args, i18n.Get("Usage: /rban [reply to a message / user_id / @username]", c.lang))
	if !ok {
		return nil
	}
	if m.targetIsAdmin(ctx, c, target, i18n.Get("❌ I can't ban an admin.", c.lang)) {
		return nil
	}

	entry := m.GetLogger().WithFields(log.Fields{"chat_id": c.chat.ID, "user_id": target.ID})
	if err := m.GetService().GetPlatform().Ban(ctx, c.chat.ID, target.ID); err != nil {
		entry.WithError(err).Error("cant ban")
		m.notify(ctx, c, i18n.Get("❌ Error while banning.", c.lang))
		return nil
	}
	if err := m.GetService().GetDB().ClearWarnings(ctx, c.chat.ID, target.ID); err != nil {
		entry.WithError(err).Warn("cant clear warnings")
	}
	observability.RecordModerationAction("ban")
	entry.Info("user banned")
	return m.reply(ctx, c, fmt.Sprintf(i18n.Get("🚫 %s has been banned.", c.lang), bot.GetFullName(target)))
}
