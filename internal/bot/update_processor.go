package bot

import (
	"context"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/rottengram/rottenshield/internal/cooldown"
	"github.com/rottengram/rottenshield/internal/infrastructure/telegram"
	"github.com/rottengram/rottenshield/internal/observability"
)

const (
	UpdateTimeout = 5 * time.Minute
)

type (
	UpdateProcessor struct {
		s              Service
		updateHandlers []Handler
		now            func() time.Time
	}

	MessageType string
)

const (
	MessageTypeText      MessageType = "text"
	MessageTypeAnimation MessageType = "animation"
	MessageTypeAudio     MessageType = "audio"
	MessageTypeDocument  MessageType = "document"
	MessageTypePhoto     MessageType = "photo"
	MessageTypeSticker   MessageType = "sticker"
	MessageTypeVideo     MessageType = "video"
	MessageTypeVideoNote MessageType = "video_note"
	MessageTypeVoice     MessageType = "voice"
	MessageTypeService   MessageType = "service"
)

var (
	handlersMu         sync.RWMutex
	registeredHandlers = make(map[string]Handler)
)

func RegisterUpdateHandler(title string, handler Handler) {
	handlersMu.Lock()
	defer handlersMu.Unlock()
	registeredHandlers[title] = handler
}

// NewUpdateProcessor chains the registered handlers in the order given by enabled.
func NewUpdateProcessor(s Service, enabled []string) *UpdateProcessor {
	handlersMu.RLock()
	defer handlersMu.RUnlock()

	enabledHandlers := make([]Handler, 0, len(enabled))
	for _, handlerName := range enabled {
		h, ok := registeredHandlers[handlerName]
		if !ok || h == nil {
			log.Warnf("no registered handler: %s", handlerName)
			continue
		}
		enabledHandlers = append(enabledHandlers, h)
	}

	return &UpdateProcessor{
		s:              s,
		updateHandlers: enabledHandlers,
		now:            time.Now,
	}
}

func (up *UpdateProcessor) Process(ctx context.Context, u *api.Update) (err error) {
	if u == nil {
		return errors.New("update is nil")
	}

	ctx, span := observability.Tracer().Start(ctx, "ProcessUpdate")
	span.SetAttributes(attribute.Int("update.id", u.UpdateID))
	done := observability.StartUpdateProcessing()
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		done(status)
		span.End()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	var updateTime time.Time
	switch {
	case u.Message != nil:
		updateTime = time.Unix(int64(u.Message.Date), 0)
	case u.EditedMessage != nil:
		updateTime = time.Unix(int64(u.EditedMessage.Date), 0)
	default:
		updateTime = up.now()
	}

	if age := up.now().Sub(updateTime); age > UpdateTimeout {
		log.WithFields(log.Fields{
			"update_time": updateTime,
			"age":         age,
		}).Debug("Skipping outdated update")
		return nil
	}

	chat := u.FromChat()
	if chat == nil {
		switch {
		case u.ChatMember != nil:
			chat = &u.ChatMember.Chat
		case u.MyChatMember != nil:
			chat = &u.MyChatMember.Chat
		}
	}

	user := u.SentFrom()
	if user == nil {
		switch {
		case u.ChatMember != nil:
			user = &u.ChatMember.From
		case u.MyChatMember != nil:
			user = &u.MyChatMember.From
		}
	}
	up.rememberUsers(u, user)
	if chat != nil {
		span.SetAttributes(attribute.Int64("chat.id", chat.ID), attribute.String("chat.type", chat.Type))
	}

	for _, handler := range up.updateHandlers {
		if handler == nil {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		proceed, err := handler.Handle(ctx, u, chat, user)
		if err != nil {
			return errors.WithMessage(err, "handling error")
		}
		if !proceed {
			log.Trace("not proceeding")
			return nil
		}
	}
	return nil
}

// rememberUsers teaches the resolver every username visible in the update.
func (up *UpdateProcessor) rememberUsers(u *api.Update, user *api.User) {
	seen := []*api.User{user}
	if msg := u.Message; msg != nil {
		for i := range msg.NewChatMembers {
			seen = append(seen, &msg.NewChatMembers[i])
		}
		if msg.ReplyToMessage != nil {
			seen = append(seen, msg.ReplyToMessage.From)
		}
	}
	resolver := up.s.GetResolver()
	for _, s := range seen {
		if s != nil && s.UserName != "" && !s.IsBot {
			resolver.Remember(s.UserName, s.ID)
		}
	}
}

// UpdatesSource is the long-polling part of *api.BotAPI.
type UpdatesSource interface {
	GetUpdates(config api.UpdateConfig) ([]api.Update, error)
}

// GetUpdatesChans polls until ctx is done or polling fails maxFailures times in
// a row. Flood waits, server errors and transport failures are retried with the
// platform backoff. Both channels are closed on exit.
func GetUpdatesChans(ctx context.Context, bot UpdatesSource, buffer, maxFailures int, config api.UpdateConfig) (api.UpdatesChannel, chan error) {
	ch := make(chan api.Update, buffer)
	chErr := make(chan error, 1)
	if maxFailures < 1 {
		maxFailures = 1
	}
	logger := log.WithField("object", "UpdatesPoller")

	go func() {
		defer close(ch)
		defer close(chErr)
		failures := 0
		for {
			select {
			case <-ctx.Done():
				chErr <- ctx.Err()
				return
			default:
			}
			updates, err := bot.GetUpdates(config)
			if err != nil {
				failures++
				delay, retryable := telegram.RetryDelay(err, failures)
				if !retryable || failures >= maxFailures {
					chErr <- err
					return
				}
				logger.WithError(err).WithFields(log.Fields{
					"failures": failures,
					"delay":    delay.String(),
				}).Warn("get updates failed, retrying")
				if err := telegram.SleepContext(ctx, delay); err != nil {
					chErr <- err
					return
				}
				continue
			}
			failures = 0

			for _, update := range updates {
				if update.UpdateID >= config.Offset {
					config.Offset = update.UpdateID + 1
					select {
					case ch <- update:
					case <-ctx.Done():
						chErr <- ctx.Err()
						return
					}
				}
			}
		}
	}()

	return ch, chErr
}

// ChatKindOf maps the platform chat type onto the cooldown chat kinds.
func ChatKindOf(chat *api.Chat) cooldown.ChatKind {
	if chat == nil {
		return cooldown.ChatKindUnknown
	}
	return cooldown.ParseChatKind(chat.Type)
}

// IsMedia reports whether msg carries a photo, video, animation or sticker.
func IsMedia(msg *api.Message) bool {
	if msg == nil {
		return false
	}
	switch GetMessageType(msg) {
	case MessageTypePhoto, MessageTypeVideo, MessageTypeAnimation, MessageTypeSticker:
		return true
	}
	return false
}

func GetMessageType(msg *api.Message) MessageType {
	switch {
	case msg.Animation != nil:
		return MessageTypeAnimation
	case msg.Audio != nil:
		return MessageTypeAudio
	case msg.Document != nil:
		return MessageTypeDocument
	case len(msg.Photo) > 0:
		return MessageTypePhoto
	case msg.Sticker != nil:
		return MessageTypeSticker
	case msg.Video != nil:
		return MessageTypeVideo
	case msg.VideoNote != nil:
		return MessageTypeVideoNote
	case msg.Voice != nil:
		return MessageTypeVoice
	case len(msg.NewChatMembers) > 0, msg.LeftChatMember != nil, msg.GroupChatCreated,
		msg.SuperGroupChatCreated, msg.MigrateToChatID != 0, msg.MigrateFromChatID != 0:
		return MessageTypeService
	default:
		return MessageTypeText
	}
}

func GetUN(user *api.User) string {
	if user == nil {
		return ""
	}
	userName := user.UserName
	if len(userName) == 0 {
		userName = user.FirstName + " " + user.LastName
		userName = strings.TrimSpace(userName)
	}
	return userName
}

func GetFullName(user *api.User) string {
	if user == nil {
		return ""
	}
	fullName := user.FirstName + " " + user.LastName
	fullName = strings.TrimSpace(fullName)
	if len(fullName) == 0 {
		fullName = user.UserName
	}
	return fullName
}

// MentionHTML links the user's first name to their profile.
func MentionHTML(user *api.User) string {
	if user == nil {
		return ""
	}
	name := user.FirstName
	if name == "" {
		name = GetFullName(user)
	}
	return fmt.Sprintf(`<a href="tg://user?id=%d">%s</a>`, user.ID, html.EscapeString(name))
}
