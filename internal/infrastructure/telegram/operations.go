package telegram

import (
	"context"
	"strings"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	rserrors "github.com/rottengram/rottenshield/internal/errors"
)

// requester is the subset of *api.BotAPI used here.
type requester interface {
	Request(c api.Chattable) (*api.APIResponse, error)
	Send(c api.Chattable) (api.Message, error)
	GetChatMember(config api.GetChatMemberConfig) (api.ChatMember, error)
	GetChat(config api.ChatInfoConfig) (api.ChatFullInfo, error)
	MakeRequest(endpoint string, params api.Params) (*api.APIResponse, error)
}

type Options struct {
	MaxRetries int
	Rate       float64
	Burst      int
	// ReapInterval is how often pending temporary messages are checked.
	ReapInterval time.Duration
}

// Operations wraps the Bot API with an outbound rate limit and capped retries.
// A request that keeps failing is reported to the caller once the retries are spent.
type Operations struct {
	bot        requester
	limiter    *rate.Limiter
	maxRetries int
	sleep      func(ctx context.Context, d time.Duration) error
	reaper     *Reaper
	logger     *log.Entry
}

func NewOperations(bot *api.BotAPI, opts Options) *Operations {
	return newOperations(bot, opts)
}

func newOperations(bot requester, opts Options) *Operations {
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}
	if opts.Rate <= 0 {
		opts.Rate = 25
	}
	if opts.Burst < 1 {
		opts.Burst = 1
	}
	o := &Operations{
		bot:        bot,
		limiter:    rate.NewLimiter(rate.Limit(opts.Rate), opts.Burst),
		maxRetries: opts.MaxRetries,
		sleep:      SleepContext,
		logger:     log.WithField("object", "TelegramOperations"),
	}
	o.reaper = NewReaper(o, opts.ReapInterval)
	return o
}

// Reaper returns the component deleting temporary messages; it has to be started by the caller.
func (o *Operations) Reaper() *Reaper {
	return o.reaper
}

func (o *Operations) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	return o.do(ctx, "deleteMessage", func() error {
		_, err := o.bot.Request(api.NewDeleteMessage(chatID, messageID))
		return err
	})
}

func (o *Operations) Send(ctx context.Context, c api.Chattable) (api.Message, error) {
	var sent api.Message
	err := o.do(ctx, "send", func() error {
		var err error
		sent, err = o.bot.Send(c)
		return err
	})
	return sent, err
}

// SendHTML sends an HTML message, optionally as a reply to replyTo.
func (o *Operations) SendHTML(ctx context.Context, chatID int64, text string, replyTo int) (api.Message, error) {
	msg := api.NewMessage(chatID, text)
	msg.ParseMode = api.ModeHTML
	if replyTo != 0 {
		msg.ReplyParameters = api.ReplyParameters{MessageID: replyTo, AllowSendingWithoutReply: true}
	}
	return o.Send(ctx, msg)
}

func (o *Operations) SendPhoto(ctx context.Context, chatID int64, path, caption string) (api.Message, error) {
	photo := api.NewPhoto(chatID, api.FilePath(path))
	photo.Caption = caption
	photo.ParseMode = api.ModeHTML
	return o.Send(ctx, photo)
}

// SendTemporary sends msg and deletes it after ttl.
func (o *Operations) SendTemporary(ctx context.Context, msg api.MessageConfig, ttl time.Duration) (api.Message, error) {
	sent, err := o.Send(ctx, msg)
	if err != nil {
		return sent, err
	}
	o.reaper.Schedule(msg.ChatID, sent.MessageID, ttl)
	return sent, nil
}

// Restrict applies perms to userID until the given time. A zero until means forever.
func (o *Operations) Restrict(ctx context.Context, chatID, userID int64, perms api.ChatPermissions, until time.Time) error {
	var untilDate int64
	if !until.IsZero() {
		untilDate = until.Unix()
	}
	config := api.RestrictChatMemberConfig{
		ChatMemberConfig: api.ChatMemberConfig{
			ChatConfig: api.ChatConfig{ChatID: chatID},
			UserID:     userID,
		},
		Permissions: &perms,
		UntilDate:   untilDate,

		UseIndependentChatPermissions: true,
	}
	return o.do(ctx, "restrictChatMember", func() error {
		_, err := o.bot.Request(config)
		return withPrivilegeError(err, "restrict")
	})
}

func (o *Operations) Unrestrict(ctx context.Context, chatID, userID int64) error {
	return o.Restrict(ctx, chatID, userID, FullPermissions(), time.Time{})
}

// Ban removes userID from the chat permanently.
func (o *Operations) Ban(ctx context.Context, chatID, userID int64) error {
	config := api.BanChatMemberConfig{
		ChatMemberConfig: api.ChatMemberConfig{
			ChatConfig: api.ChatConfig{ChatID: chatID},
			UserID:     userID,
		},
	}
	return o.do(ctx, "banChatMember", func() error {
		_, err := o.bot.Request(config)
		return withPrivilegeError(err, "ban")
	})
}

func (o *Operations) Unban(ctx context.Context, chatID, userID int64) error {
	config := api.UnbanChatMemberConfig{
		ChatMemberConfig: api.ChatMemberConfig{
			ChatConfig: api.ChatConfig{ChatID: chatID},
			UserID:     userID,
		},
		OnlyIfBanned: true,
	}
	return o.do(ctx, "unbanChatMember", func() error {
		_, err := o.bot.Request(config)
		return withPrivilegeError(err, "unban")
	})
}

func (o *Operations) GetChat(ctx context.Context, chatID int64) (api.ChatFullInfo, error) {
	var chat api.ChatFullInfo
	err := o.do(ctx, "getChat", func() error {
		var err error
		chat, err = o.bot.GetChat(api.ChatInfoConfig{ChatConfig: api.ChatConfig{ChatID: chatID}})
		return err
	})
	return chat, err
}

func (o *Operations) GetChatMember(ctx context.Context, chatID, userID int64) (api.ChatMember, error) {
	var member api.ChatMember
	err := o.do(ctx, "getChatMember", func() error {
		var err error
		member, err = o.bot.GetChatMember(api.GetChatMemberConfig{
			ChatConfigWithUser: api.ChatConfigWithUser{
				ChatConfig: api.ChatConfig{ChatID: chatID},
				UserID:     userID,
			},
		})
		return err
	})
	return member, err
}

func (o *Operations) AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error {
	config := api.NewCallback(callbackID, text)
	if alert {
		config = api.NewCallbackWithAlert(callbackID, text)
	}
	return o.do(ctx, "answerCallbackQuery", func() error {
		_, err := o.bot.Request(config)
		return err
	})
}

func (o *Operations) ClearReplyMarkup(ctx context.Context, chatID int64, messageID int) error {
	config := api.NewEditMessageReplyMarkup(chatID, messageID, api.InlineKeyboardMarkup{
		InlineKeyboard: [][]api.InlineKeyboardButton{},
	})
	return o.do(ctx, "editMessageReplyMarkup", func() error {
		_, err := o.bot.Request(config)
		return err
	})
}

func FullPermissions() api.ChatPermissions {
	return api.ChatPermissions{
		CanSendMessages:       true,
		CanSendAudios:         true,
		CanSendDocuments:      true,
		CanSendPhotos:         true,
		CanSendVideos:         true,
		CanSendVideoNotes:     true,
		CanSendVoiceNotes:     true,
		CanSendPolls:          true,
		CanSendOtherMessages:  true,
		CanAddWebPagePreviews: true,
		CanInviteUsers:        true,
	}
}

// NoPermissions mutes the member completely.
func NoPermissions() api.ChatPermissions {
	return api.ChatPermissions{}
}

func withPrivilegeError(err error, action string) error {
	if err == nil {
		return nil
	}
	if strings.Contains(strings.ToLower(err.Error()), "not enough rights") {
		return errors.Wrap(rserrors.ErrNoPrivileges, action)
	}
	return errors.Wrap(err, action)
}
