package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	log "github.com/sirupsen/logrus"

	"github.com/rottengram/rottenshield/internal/bot"
	"github.com/rottengram/rottenshield/internal/db"
	"github.com/rottengram/rottenshield/internal/handlers/base"
	"github.com/rottengram/rottenshield/internal/i18n"
	"github.com/rottengram/rottenshield/internal/infrastructure/telegram"
	"github.com/rottengram/rottenshield/internal/observability"
	"github.com/rottengram/rottenshield/internal/policy/permissions"
)

// UnmuteCallbackPrefix prefixes the callback data of the "I already did" button.
const UnmuteCallbackPrefix = "unmute_me_v2:"

// PremiumGate mutes Premium users who have not boosted the group yet.
type PremiumGate struct {
	*base.BaseHandler
	now func() time.Time
}

func NewPremiumGate(s bot.Service) *PremiumGate {
	return &PremiumGate{
		BaseHandler: base.NewBaseHandler(s, "PremiumGate"),
		now:         time.Now,
	}
}

func (g *PremiumGate) Handle(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) (bool, error) {
	if u == nil || u.Message == nil || chat == nil || user == nil {
		return true, nil
	}
	msg := u.Message
	if !user.IsPremium || msg.IsCommand() || bot.GetMessageType(msg) == bot.MessageTypeService {
		return true, nil
	}
	if !chat.IsGroup() && !chat.IsSuperGroup() {
		return true, nil
	}
	if !g.IsFeatureEnabled(ctx, chat.ID, db.FeaturePremiumCheck) {
		return true, nil
	}

	entry := g.GetLogger().WithFields(log.Fields{"chat_id": chat.ID, "user_id": user.ID})
	platform := g.GetService().GetPlatform()

	member, err := platform.GetChatMember(ctx, chat.ID, user.ID)
	if err != nil {
		entry.WithError(err).Error("cant check member status")
		return true, nil
	}
	if permissions.IsAdmin(&member) {
		entry.Debug("skipping admin")
		return true, nil
	}

	store := g.GetService().GetDB()
	record, err := store.GetPremiumUser(ctx, user.ID)
	if err != nil {
		entry.WithError(err).Error("cant load premium user")
		return true, nil
	}
	if record == nil {
		if _, err := store.AddPremiumUser(ctx, user.ID); err != nil {
			entry.WithError(err).Error("cant register premium user")
			return true, nil
		}
		entry.Info("registered new premium user")
	} else if record.HasBoosted {
		return true, nil
	}

	cfg := g.GetService().GetConfig()
	until := g.now().Add(cfg.Premium.MuteDuration)
	if err := platform.Restrict(ctx, chat.ID, user.ID, telegram.NoPermissions(), until); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "can't remove chat owner") {
			entry.WithError(err).Warn("tried to mute the chat owner")
		} else {
			entry.WithError(err).Error("cant mute premium user")
		}
		return true, nil
	}
	observability.RecordModerationAction("premium_mute")
	entry.WithField("until", until).Info("premium user muted")

	lang := g.GetLanguage(ctx, chat, user)
	reply := api.NewMessage(chat.ID, fmt.Sprintf(
		i18n.Get("🔎 I detected <u>Telegram Premium</u> 🌟: to keep chatting the group needs <b>at least one boost</b> ➕ from you.\n\n⚠️ After boosting, <b>press the second button</b> to be unmuted!\n\n<b>• You have been muted for %s!</b>", lang),
		i18n.FormatDuration(cfg.Premium.MuteDuration, lang),
	))
	reply.ParseMode = api.ModeHTML
	reply.ReplyParameters = api.ReplyParameters{MessageID: msg.MessageID, AllowSendingWithoutReply: true}
	reply.ReplyMarkup = boostKeyboard(cfg.BoostLink, user.ID, lang)
	if _, err := platform.Send(ctx, reply); err != nil {
		entry.WithError(err).Warn("cant send premium notice")
	}
	return false, nil
}

func boostKeyboard(link string, userID int64, lang string) api.InlineKeyboardMarkup {
	rows := make([][]api.InlineKeyboardButton, 0, 2)
	if link != "" {
		rows = append(rows, api.NewInlineKeyboardRow(
			api.NewInlineKeyboardButtonURL(i18n.Get("🚀 Boost the group", lang), link),
		))
	}
	rows = append(rows, api.NewInlineKeyboardRow(
		api.NewInlineKeyboardButtonData(i18n.Get("✅ I already did", lang), fmt.Sprintf("%s%d", UnmuteCallbackPrefix, userID)),
	))
	return api.NewInlineKeyboardMarkup(rows...)
}
