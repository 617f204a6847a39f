package moderation

import (
	"context"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	log "github.com/sirupsen/logrus"
)

type delivery int

const (
	deliveredPrivately delivery = iota
	deliveredToGroup
	notDelivered
)

// notify tells the issuer about a problem with their command. The message goes
// to their private chat when possible; otherwise it is posted in the group for a
// short while and the command message is removed.
func (m *Moderation) notify(ctx context.Context, c *command, text string) delivery {
	return m.deliver(ctx, c, text, m.GetService().GetConfig().Moderation.TempMessageTTL)
}

// notifyKept is notify for the owner commands: a group fallback stays, and so
// does the command message.
func (m *Moderation) notifyKept(ctx context.Context, c *command, text string) delivery {
	return m.deliver(ctx, c, text, 0)
}

func (m *Moderation) deliver(ctx context.Context, c *command, text string, ttl time.Duration) delivery {
	platform := m.GetService().GetPlatform()
	entry := m.GetLogger().WithFields(log.Fields{"command": c.name, "issuer": c.issuer.ID})

	_, err := platform.Send(ctx, api.NewMessage(c.issuer.ID, text))
	if err == nil {
		return deliveredPrivately
	}
	entry.WithError(err).Debug("cant reach issuer privately")

	if ttl <= 0 {
		if _, err := platform.Send(ctx, api.NewMessage(c.chat.ID, text)); err != nil {
			entry.WithError(err).Warn("cant notify issuer")
			return notDelivered
		}
		return deliveredToGroup
	}
	if _, err := platform.SendTemporary(ctx, api.NewMessage(c.chat.ID, text), ttl); err != nil {
		entry.WithError(err).Warn("cant notify issuer")
		return notDelivered
	}
	if err := platform.DeleteMessage(ctx, c.chat.ID, c.msg.MessageID); err != nil {
		entry.WithError(err).Debug("cant delete command message")
	}
	return deliveredToGroup
}
