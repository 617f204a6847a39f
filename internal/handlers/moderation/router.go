// Package moderation implements the admin commands.
package moderation

import (
	"context"
	"strings"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/rottengram/rottenshield/internal/bot"
	"github.com/rottengram/rottenshield/internal/handlers/base"
)

const (
	CommandMute       = "blocca"
	CommandUnmute     = "libera"
	CommandWarn       = "rwarn"
	CommandUnwarn     = "runwarn"
	CommandBan        = "rban"
	CommandImmune     = "immune"
	CommandImmuneList = "immunelist"
	CommandPremiumOn  = "premium_on"
	CommandPremiumOff = "premium_off"
	CommandMediaOn    = "media_on"
	CommandMediaOff   = "media_off"
)

// command carries one parsed command invocation.
type command struct {
	name   string
	msg    *api.Message
	chat   *api.Chat
	issuer *api.User
	args   []string
	lang   string
}

type commandFunc func(ctx context.Context, c *command) error

type Moderation struct {
	*base.BaseHandler
	now      func() time.Time
	commands map[string]commandFunc
}

func NewModeration(s bot.Service) *Moderation {
	m := &Moderation{
		BaseHandler: base.NewBaseHandler(s, "Moderation"),
		now:         time.Now,
	}
	m.commands = map[string]commandFunc{
		CommandMute:       m.mute,
		CommandUnmute:     m.unmute,
		CommandWarn:       m.warn,
		CommandUnwarn:     m.unwarn,
		CommandBan:        m.ban,
		CommandImmune:     m.immune,
		CommandImmuneList: m.immuneList,
		CommandPremiumOn:  m.premiumSwitch(true),
		CommandPremiumOff: m.premiumSwitch(false),
		CommandMediaOn:    m.mediaSwitch(true),
		CommandMediaOff:   m.mediaSwitch(false),
	}
	return m
}

// Handle runs known commands sent in groups and stops the chain for them.
func (m *Moderation) Handle(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) (bool, error) {
	if m.ValidateUpdate(u, chat, user) != nil || u.Message == nil || !u.Message.IsCommand() {
		return true, nil
	}
	name := strings.ToLower(u.Message.Command())
	run, ok := m.commands[name]
	if !ok || (!chat.IsGroup() && !chat.IsSuperGroup()) {
		return true, nil
	}

	c := &command{
		name:   name,
		msg:    u.Message,
		chat:   chat,
		issuer: user,
		args:   strings.Fields(u.Message.CommandArguments()),
		lang:   m.GetLanguage(ctx, chat, user),
	}
	m.GetLogger().WithFields(log.Fields{
		"command": name,
		"chat_id": chat.ID,
		"issuer":  user.ID,
		"args":    c.args,
	}).Debug("handling command")

	if err := run(ctx, c); err != nil {
		return false, errors.WithMessagef(err, "command /%s", name)
	}
	return false, nil
}

// reply answers the command message in the group.
func (m *Moderation) reply(ctx context.Context, c *command, text string) error {
	msg := api.NewMessage(c.chat.ID, text)
	msg.ReplyParameters = api.ReplyParameters{MessageID: c.msg.MessageID, AllowSendingWithoutReply: true}
	_, err := m.GetService().GetPlatform().Send(ctx, msg)
	return err
}
