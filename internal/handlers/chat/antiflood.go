// Package chat holds the handlers reacting to group traffic: joins, media, Premium users and boosts.
package chat

import (
	"context"
	"fmt"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	log "github.com/sirupsen/logrus"

	"github.com/rottengram/rottenshield/internal/bot"
	"github.com/rottengram/rottenshield/internal/cooldown"
	"github.com/rottengram/rottenshield/internal/db"
	"github.com/rottengram/rottenshield/internal/handlers/base"
	"github.com/rottengram/rottenshield/internal/i18n"
	"github.com/rottengram/rottenshield/internal/observability"
)

// Antiflood enforces the new member window and the media cooldown.
type Antiflood struct {
	*base.BaseHandler
	now func() time.Time
}

func NewAntiflood(s bot.Service) *Antiflood {
	return &Antiflood{
		BaseHandler: base.NewBaseHandler(s, "Antiflood"),
		now:         time.Now,
	}
}

func (a *Antiflood) Handle(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) (bool, error) {
	if u == nil || u.Message == nil || chat == nil || user == nil {
		return true, nil
	}
	msg := u.Message
	if !bot.IsMedia(msg) {
		return true, nil
	}
	kind := bot.ChatKindOf(chat)
	if kind != cooldown.ChatKindGroup && kind != cooldown.ChatKindSupergroup {
		return true, nil
	}
	if !a.IsFeatureEnabled(ctx, chat.ID, db.FeatureMediaCooldown) {
		return true, nil
	}

	engine := a.GetService().GetCooldowns().For(chat.ID)
	decision := engine.Classify(user.ID, kind, a.now())
	observability.RecordMediaDecision(decision.Kind.String())

	entry := a.GetLogger().WithFields(log.Fields{
		"chat_id":  chat.ID,
		"user_id":  user.ID,
		"decision": decision.String(),
	})
	if !decision.ShouldDelete() {
		entry.Trace("media allowed")
		return true, nil
	}

	// State is already committed; platform failures only degrade the outcome.
	platform := a.GetService().GetPlatform()
	if err := platform.DeleteMessage(ctx, chat.ID, msg.MessageID); err != nil {
		entry.WithError(err).Warn("cant delete media message")
	} else {
		entry.Info("media deleted")
	}

	if decision.ShouldWarn() {
		lang := a.GetLanguage(ctx, chat, user)
		text := warningText(decision.MessageKey, lang, user.FirstName, engine.Options())
		if _, err := platform.Send(ctx, api.NewMessage(chat.ID, text)); err != nil {
			entry.WithError(err).Warn("cant send media warning")
		}
	}
	return false, nil
}

func warningText(key cooldown.MessageKey, lang, name string, opts cooldown.Options) string {
	if key == cooldown.KeyNewMemberMedia {
		return fmt.Sprintf(
			i18n.Get("⏳ %s, new members cannot send media during their first %s!", lang),
			name, i18n.FormatDuration(opts.NewMemberWindow, lang),
		)
	}
	return fmt.Sprintf(
		i18n.Get("⚠️ %s, you can only send media once every %s!", lang),
		name, i18n.FormatDuration(opts.MediaInterval, lang),
	)
}
