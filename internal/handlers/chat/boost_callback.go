package chat

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	log "github.com/sirupsen/logrus"

	"github.com/rottengram/rottenshield/internal/bot"
	"github.com/rottengram/rottenshield/internal/handlers/base"
	"github.com/rottengram/rottenshield/internal/i18n"
	"github.com/rottengram/rottenshield/internal/infrastructure/telegram"
	"github.com/rottengram/rottenshield/internal/observability"
	"github.com/rottengram/rottenshield/internal/policy/permissions"
)

// BoostCallback verifies the boost of a muted Premium user and lifts the mute.
type BoostCallback struct {
	*base.BaseHandler
	now func() time.Time
}

func NewBoostCallback(s bot.Service) *BoostCallback {
	return &BoostCallback{
		BaseHandler: base.NewBaseHandler(s, "BoostCallback"),
		now:         time.Now,
	}
}

func (b *BoostCallback) Handle(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) (bool, error) {
	if u == nil || u.CallbackQuery == nil || !strings.HasPrefix(u.CallbackQuery.Data, UnmuteCallbackPrefix) {
		return true, nil
	}
	query := u.CallbackQuery
	lang := b.GetLanguage(ctx, chat, user)
	platform := b.GetService().GetPlatform()
	answer := func(text string) {
		if err := platform.AnswerCallback(ctx, query.ID, text, true); err != nil {
			b.GetLogger().WithError(err).Warn("cant answer callback")
		}
	}

	targetID, err := strconv.ParseInt(strings.TrimPrefix(query.Data, UnmuteCallbackPrefix), 10, 64)
	if chat == nil || user == nil || err != nil {
		answer(i18n.Get("❌ System error", lang))
		return false, nil
	}
	entry := b.GetLogger().WithFields(log.Fields{"chat_id": chat.ID, "user_id": user.ID})

	if user.ID != targetID {
		answer(i18n.Get("⚠️ You are not allowed to unlock this user!", lang))
		return false, nil
	}

	store := b.GetService().GetDB()
	record, err := store.GetPremiumUser(ctx, user.ID)
	if err != nil {
		entry.WithError(err).Error("cant load premium user")
		answer(i18n.Get("❌ Critical error", lang))
		return false, nil
	}
	if record == nil {
		answer(i18n.Get("⚠️ User not registered", lang))
		return false, nil
	}

	member, err := platform.GetChatMember(ctx, chat.ID, user.ID)
	if err != nil {
		entry.WithError(err).Error("cant check member status")
		answer(i18n.Get("⚠️ Error during verification", lang))
		return false, nil
	}
	if permissions.IsAdmin(&member) {
		answer(i18n.Get("🔑 You are an admin or the owner!", lang))
		return false, nil
	}

	boosts, err := platform.GetUserChatBoosts(ctx, chat.ID, user.ID)
	if err != nil {
		entry.WithError(err).Error("cant get user boosts")
		answer(i18n.Get("⚠️ Error during verification", lang))
		return false, nil
	}
	now := b.now()
	if !telegram.HasPremiumBoost(boosts, now, b.GetService().GetConfig().Premium.BoostValidity) {
		answer(i18n.Get("🚫 Boost not active! Make sure you:\n1. Boosted the right group\n2. Waited 5 minutes", lang))
		return false, nil
	}

	if err := store.MarkBoosted(ctx, user.ID, now); err != nil {
		entry.WithError(err).Error("cant store boost")
		answer(i18n.Get("❌ Critical error", lang))
		return false, nil
	}
	if err := platform.Unrestrict(ctx, chat.ID, user.ID); err != nil {
		entry.WithError(err).Error("cant unmute booster")
		answer(i18n.Get("⚠️ Error during verification", lang))
		return false, nil
	}
	observability.RecordModerationAction("boost_verified")
	entry.Info("boost verified, user unmuted")

	answer(i18n.Get("✅ Unlocked successfully!", lang))
	if query.Message != nil {
		if err := platform.ClearReplyMarkup(ctx, query.Message.Chat.ID, query.Message.MessageID); err != nil {
			entry.WithError(err).Debug("cant remove keyboard")
		}
	}
	text := fmt.Sprintf(i18n.Get("🎉 Thanks %s for boosting the group! 🚀", lang), bot.MentionHTML(user))
	if _, err := platform.SendHTML(ctx, chat.ID, text, 0); err != nil {
		entry.WithError(err).Warn("cant send thanks")
	}
	return false, nil
}
