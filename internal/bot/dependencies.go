package bot

import (
	"context"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"

	"github.com/rottengram/rottenshield/internal/config"
	"github.com/rottengram/rottenshield/internal/cooldown"
	"github.com/rottengram/rottenshield/internal/db"
	"github.com/rottengram/rottenshield/internal/infrastructure/telegram"
)

// Platform is the messaging platform as seen by handlers.
type Platform interface {
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	Send(ctx context.Context, c api.Chattable) (api.Message, error)
	SendHTML(ctx context.Context, chatID int64, text string, replyTo int) (api.Message, error)
	SendPhoto(ctx context.Context, chatID int64, path, caption string) (api.Message, error)
	SendTemporary(ctx context.Context, msg api.MessageConfig, ttl time.Duration) (api.Message, error)
	Restrict(ctx context.Context, chatID, userID int64, perms api.ChatPermissions, until time.Time) error
	Unrestrict(ctx context.Context, chatID, userID int64) error
	Ban(ctx context.Context, chatID, userID int64) error
	Unban(ctx context.Context, chatID, userID int64) error
	GetChat(ctx context.Context, chatID int64) (api.ChatFullInfo, error)
	GetChatMember(ctx context.Context, chatID, userID int64) (api.ChatMember, error)
	AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error
	ClearReplyMarkup(ctx context.Context, chatID int64, messageID int) error
	GetUserChatBoosts(ctx context.Context, chatID, userID int64) ([]telegram.ChatBoost, error)
}

// Resolver maps @usernames to user IDs. Remember feeds it the users seen in updates.
type Resolver interface {
	ResolveUsername(ctx context.Context, username string) (int64, error)
	Remember(username string, id int64)
}

type ServicePlatform interface {
	GetPlatform() Platform
}

type ServiceDB interface {
	GetDB() db.Client
}

// Service is what every handler gets.
type Service interface {
	ServicePlatform
	ServiceDB
	GetCooldowns() *cooldown.Registry
	GetResolver() Resolver
	GetConfig() config.Config
	GetLanguage(ctx context.Context, chatID int64, user *api.User) string
}

// Handler defines the interface for all update handlers in the system
type Handler interface {
	Handle(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) (proceed bool, err error)
}
