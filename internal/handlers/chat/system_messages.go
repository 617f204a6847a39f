package chat

import (
	"context"
	"fmt"
	"strings"

	api "github.com/OvyFlash/telegram-bot-api"
	log "github.com/sirupsen/logrus"

	"github.com/rottengram/rottenshield/internal/bot"
	"github.com/rottengram/rottenshield/internal/handlers/base"
	"github.com/rottengram/rottenshield/internal/i18n"
)

var boostMarkers = []string{"ha potenziato il gruppo", "boosted the group"}

// SystemMessages logs service messages and thanks users whose boost shows up as a service text.
type SystemMessages struct {
	*base.BaseHandler
}

func NewSystemMessages(s bot.Service) *SystemMessages {
	return &SystemMessages{BaseHandler: base.NewBaseHandler(s, "SystemMessages")}
}

func (h *SystemMessages) Handle(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) (bool, error) {
	if u == nil || u.Message == nil || chat == nil {
		return true, nil
	}
	msg := u.Message
	boosted := isBoostText(msg.Text)
	if bot.GetMessageType(msg) != bot.MessageTypeService && !boosted {
		return true, nil
	}

	entry := h.GetLogger().WithField("chat_id", chat.ID)
	if msg.LeftChatMember != nil {
		entry.WithFields(log.Fields{"user_id": msg.LeftChatMember.ID, "user": bot.GetUN(msg.LeftChatMember)}).Info("member left")
	}
	if len(msg.NewChatMembers) > 0 {
		ids := make([]int64, 0, len(msg.NewChatMembers))
		for _, m := range msg.NewChatMembers {
			ids = append(ids, m.ID)
		}
		entry.WithField("user_ids", ids).Info("members joined")
	}
	if msg.GroupChatCreated {
		entry.Info("group created")
	}
	if msg.SuperGroupChatCreated {
		entry.Info("supergroup created")
	}
	if msg.MigrateToChatID != 0 {
		entry.WithField("to", msg.MigrateToChatID).Info("group migrated")
	}
	if msg.MigrateFromChatID != 0 {
		entry.WithField("from", msg.MigrateFromChatID).Info("group migrated")
	}

	if boosted {
		if user == nil {
			entry.Warn("cant tell who boosted the group")
			return true, nil
		}
		lang := h.GetLanguage(ctx, chat, user)
		text := fmt.Sprintf(i18n.Get("🎉 Thanks %s for boosting the group! Your support is much appreciated! 💪", lang), bot.MentionHTML(user))
		if _, err := h.GetService().GetPlatform().SendHTML(ctx, chat.ID, text, 0); err != nil {
			entry.WithError(err).Warn("cant send thanks")
		} else {
			entry.WithField("user_id", user.ID).Info("thanked booster")
		}
	}
	return true, nil
}

func isBoostText(text string) bool {
	lower := strings.ToLower(text)
	for _, marker := range boostMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
