package moderation

import (
	"context"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"

	"github.com/rottengram/rottenshield/internal/db"
	"github.com/rottengram/rottenshield/internal/i18n"
)

type switchTexts struct {
	already string
	done    string
}

func (m *Moderation) premiumSwitch(on bool) commandFunc {
	return func(ctx context.Context, c *command) error {
		texts := switchTexts{
			already: i18n.Get("⚠️ Premium check is already disabled.", c.lang),
			done:    i18n.Get("✅ Premium check disabled successfully.", c.lang),
		}
		if on {
			texts = switchTexts{
				already: i18n.Get("⚠️ Premium check is already active.", c.lang),
				done:    i18n.Get("✅ Premium check enabled successfully.", c.lang),
			}
		}
		return m.toggleFeature(ctx, c, db.FeaturePremiumCheck, on, texts)
	}
}

func (m *Moderation) mediaSwitch(on bool) commandFunc {
	return func(ctx context.Context, c *command) error {
		texts := switchTexts{
			already: i18n.Get("⚠️ Media cooldown is already disabled.", c.lang),
			done:    i18n.Get("✅ Media cooldown disabled successfully.", c.lang),
		}
		if on {
			texts = switchTexts{
				already: i18n.Get("⚠️ Media cooldown is already active.", c.lang),
				done:    i18n.Get("✅ Media cooldown enabled successfully.", c.lang),
			}
		}
		return m.toggleFeature(ctx, c, db.FeatureMediaCooldown, on, texts)
	}
}

// toggleFeature answers in the group directly, unlike the other commands.
func (m *Moderation) toggleFeature(ctx context.Context, c *command, f db.Feature, on bool, texts switchTexts) error {
	if !m.IsAdmin(ctx, c.chat.ID, c.issuer.ID) {
		return m.reply(ctx, c, i18n.Get("⚠️ Only administrators can run this command.", c.lang))
	}

	store := m.GetService().GetDB()
	current, err := db.IsEnabled(ctx, store, c.chat.ID, f)
	if err != nil {
		return errors.WithMessage(err, "read feature")
	}
	if current == on {
		return m.reply(ctx, c, texts.already)
	}
	if err := db.SetEnabled(ctx, store, c.chat.ID, f, on); err != nil {
		return errors.WithMessage(err, "store feature")
	}
	m.GetLogger().WithField("chat_id", c.chat.ID).WithField("feature", f).WithField("enabled", on).Info("feature switched")
	return m.reply(ctx, c, texts.done)
}

func (m *Moderation) send(ctx context.Context, c *command, text string) error {
	_, err := m.GetService().GetPlatform().Send(ctx, api.NewMessage(c.chat.ID, text))
	return err
}
