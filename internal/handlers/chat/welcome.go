package chat

import (
	"context"
	"fmt"
	"html"
	"os"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	log "github.com/sirupsen/logrus"

	"github.com/rottengram/rottenshield/internal/bot"
	"github.com/rottengram/rottenshield/internal/handlers/base"
	"github.com/rottengram/rottenshield/internal/i18n"
)

// Welcome opens the new member window for every joiner and greets them.
type Welcome struct {
	*base.BaseHandler
	now func() time.Time
}

func NewWelcome(s bot.Service) *Welcome {
	return &Welcome{
		BaseHandler: base.NewBaseHandler(s, "Welcome"),
		now:         time.Now,
	}
}

func (w *Welcome) Handle(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) (bool, error) {
	if u == nil || u.Message == nil || chat == nil || len(u.Message.NewChatMembers) == 0 {
		return true, nil
	}

	engine := w.GetService().GetCooldowns().For(chat.ID)
	now := w.now()
	for i := range u.Message.NewChatMembers {
		member := &u.Message.NewChatMembers[i]
		if member.IsBot {
			continue
		}
		engine.RegisterJoin(member.ID, now)
		w.GetLogger().WithFields(log.Fields{"chat_id": chat.ID, "user_id": member.ID}).Info("registered new member")

		if err := w.greet(ctx, chat, member, engine.Options().NewMemberWindow, engine.Options().MediaInterval); err != nil {
			w.GetLogger().WithError(err).WithField("user_id", member.ID).Warn("cant send welcome")
		}
	}
	return true, nil
}

func (w *Welcome) greet(ctx context.Context, chat *api.Chat, member *api.User, window, interval time.Duration) error {
	lang := w.GetLanguage(ctx, chat, member)
	text := fmt.Sprintf(
		i18n.Get("👋 Welcome %s to <b>%s</b>\n\n⚠️ For the <u>first %s</u> you cannot send:\n<blockquote>• Photos\n• Videos\n• GIFs\n• Stickers\n</blockquote>\n<i>After that you can send 1 media every %s.</i>", lang),
		bot.MentionHTML(member),
		html.EscapeString(chat.Title),
		i18n.FormatDuration(window, lang),
		i18n.FormatDuration(interval, lang),
	)

	platform := w.GetService().GetPlatform()
	if image := w.GetService().GetConfig().WelcomeImage; image != "" {
		if _, err := os.Stat(image); err == nil {
			_, err = platform.SendPhoto(ctx, chat.ID, image, text)
			return err
		}
		w.GetLogger().WithField("path", image).Debug("welcome image not readable, sending text")
	}
	_, err := platform.SendHTML(ctx, chat.ID, text, 0)
	return err
}
