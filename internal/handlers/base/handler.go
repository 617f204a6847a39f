package base

import (
	"context"
	"errors"

	api "github.com/OvyFlash/telegram-bot-api"
	log "github.com/sirupsen/logrus"

	"github.com/rottengram/rottenshield/internal/bot"
	"github.com/rottengram/rottenshield/internal/db"
	"github.com/rottengram/rottenshield/internal/policy/permissions"
)

// BaseHandler provides common functionality for all handlers
type BaseHandler struct {
	service bot.Service
	logger  *log.Entry
}

func NewBaseHandler(service bot.Service, handlerName string) *BaseHandler {
	return &BaseHandler{
		service: service,
		logger:  log.WithField("object", handlerName),
	}
}

func (h *BaseHandler) GetService() bot.Service {
	return h.service
}

func (h *BaseHandler) GetLogger() *log.Entry {
	return h.logger
}

// ValidateUpdate performs common update validation
func (h *BaseHandler) ValidateUpdate(u *api.Update, chat *api.Chat, user *api.User) error {
	if u == nil {
		return ErrNilUpdate
	}
	if chat == nil || user == nil {
		return ErrNilChatOrUser
	}
	return nil
}

// IsFeatureEnabled reads a per-chat switch. Store errors are logged and the default wins.
func (h *BaseHandler) IsFeatureEnabled(ctx context.Context, chatID int64, f db.Feature) bool {
	on, err := db.IsEnabled(ctx, h.service.GetDB(), chatID, f)
	if err != nil {
		h.logger.WithError(err).WithField("feature", f).Warn("cant read feature switch")
	}
	return on
}

func (h *BaseHandler) GetLanguage(ctx context.Context, chat *api.Chat, user *api.User) string {
	var chatID int64
	if chat != nil {
		chatID = chat.ID
	}
	return h.service.GetLanguage(ctx, chatID, user)
}

// IsAdmin looks the user up in the chat. Lookup failures count as "not an admin".
func (h *BaseHandler) IsAdmin(ctx context.Context, chatID, userID int64) bool {
	member, err := h.service.GetPlatform().GetChatMember(ctx, chatID, userID)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", userID).Debug("cant get chat member")
		return false
	}
	return permissions.IsAdmin(&member)
}

var (
	ErrNilUpdate     = errors.New("nil update")
	ErrNilChatOrUser = errors.New("nil chat or user")
)
