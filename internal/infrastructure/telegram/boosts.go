package telegram

import (
	"context"
	"encoding/json"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"
)

const BoostSourcePremium = "premium"

// ChatBoost is one entry of getUserChatBoosts.
type ChatBoost struct {
	BoostID        string `json:"boost_id"`
	AddDate        int64  `json:"add_date"`
	ExpirationDate int64  `json:"expiration_date"`
	Source         struct {
		Source string    `json:"source"`
		User   *api.User `json:"user,omitempty"`
	} `json:"source"`
}

func (b ChatBoost) AddedAt() time.Time {
	return time.Unix(b.AddDate, 0)
}

type userChatBoosts struct {
	Boosts []ChatBoost `json:"boosts"`
}

func (o *Operations) GetUserChatBoosts(ctx context.Context, chatID, userID int64) ([]ChatBoost, error) {
	params := make(api.Params)
	params.AddNonZero64("chat_id", chatID)
	params.AddNonZero64("user_id", userID)

	var boosts userChatBoosts
	err := o.do(ctx, "getUserChatBoosts", func() error {
		resp, err := o.bot.MakeRequest("getUserChatBoosts", params)
		if err != nil {
			return err
		}
		return errors.Wrap(json.Unmarshal(resp.Result, &boosts), "decode boosts")
	})
	if err != nil {
		return nil, err
	}
	return boosts.Boosts, nil
}

// HasPremiumBoost reports whether boosts holds a premium boost added less than validity before now.
func HasPremiumBoost(boosts []ChatBoost, now time.Time, validity time.Duration) bool {
	for _, b := range boosts {
		if b.Source.Source != BoostSourcePremium {
			continue
		}
		if now.Sub(b.AddedAt()) < validity {
			return true
		}
	}
	return false
}
