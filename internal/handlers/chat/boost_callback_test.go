package chat

import (
	"context"
	"testing"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"

	"github.com/rottengram/rottenshield/internal/bot/bottest"
	"github.com/rottengram/rottenshield/internal/infrastructure/telegram"
)

func callbackUpdate(data string, from api.User) *api.Update {
	return &api.Update{CallbackQuery: &api.CallbackQuery{
		ID:      "cb",
		From:    &from,
		Data:    data,
		Message: &api.Message{MessageID: 55, Chat: testChat},
	}}
}

func premiumBoost(addDate int64) telegram.ChatBoost {
	var b telegram.ChatBoost
	b.AddDate = addDate
	b.Source.Source = telegram.BoostSourcePremium
	return b
}

func TestBoostCallbackRejections(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := bottest.NewEnv(t, bottest.Config(), nil)
	now := t0
	b := NewBoostCallback(env.Service)
	b.now = clock(&now)

	stranger := testUser
	stranger.ID = 1000
	if _, err := env.DB.AddPremiumUser(ctx, testUser.ID); err != nil {
		t.Fatalf("add premium user: %v", err)
	}

	cases := []struct {
		name string
		data string
		user api.User
		want string
	}{
		{"someone else", "unmute_me_v2:42", stranger, "⚠️ You are not allowed to unlock this user!"},
		{"unregistered", "unmute_me_v2:1000", stranger, "⚠️ User not registered"},
		{"no boost", "unmute_me_v2:42", testUser, "🚫 Boost not active! Make sure you:\n1. Boosted the right group\n2. Waited 5 minutes"},
		{"garbage", "unmute_me_v2:abc", testUser, "❌ System error"},
	}
	for _, tc := range cases {
		before := len(env.Platform.Answers)
		proceed, err := b.Handle(ctx, callbackUpdate(tc.data, tc.user), &testChat, &tc.user)
		if err != nil || proceed {
			t.Fatalf("%s: proceed=%v err=%v", tc.name, proceed, err)
		}
		got := env.Platform.Answers[before]
		if got.Text != tc.want || !got.Alert {
			t.Fatalf("%s: unexpected answer %+v", tc.name, got)
		}
	}
	if len(env.Platform.Unrestricted) != 0 {
		t.Fatalf("nobody should be unmuted")
	}
}

func TestBoostCallbackUnmutesVerifiedBooster(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := bottest.NewEnv(t, bottest.Config(), nil)
	now := t0
	b := NewBoostCallback(env.Service)
	b.now = clock(&now)

	if _, err := env.DB.AddPremiumUser(ctx, testUser.ID); err != nil {
		t.Fatalf("add premium user: %v", err)
	}
	env.Platform.Boosts[testUser.ID] = []telegram.ChatBoost{premiumBoost(t0.Add(-24 * time.Hour).Unix())}

	proceed, err := b.Handle(ctx, callbackUpdate("unmute_me_v2:42", testUser), &testChat, &testUser)
	if err != nil || proceed {
		t.Fatalf("handle: proceed=%v err=%v", proceed, err)
	}

	record, err := env.DB.GetPremiumUser(ctx, testUser.ID)
	if err != nil || record == nil || !record.HasBoosted || !record.BoostVerifiedAt.Valid {
		t.Fatalf("boost must be stored: %+v %v", record, err)
	}
	if len(env.Platform.Unrestricted) != 1 || env.Platform.Unrestricted[0] != testUser.ID {
		t.Fatalf("user must be unmuted: %v", env.Platform.Unrestricted)
	}
	if len(env.Platform.Cleared) != 1 || env.Platform.Cleared[0] != 55 {
		t.Fatalf("keyboard must be removed: %v", env.Platform.Cleared)
	}
	if env.Platform.Answers[0].Text != "✅ Unlocked successfully!" {
		t.Fatalf("unexpected answer: %+v", env.Platform.Answers)
	}
	if len(env.Platform.Sent) != 1 {
		t.Fatalf("expected a thank you message")
	}
}

func TestBoostCallbackIgnoresOtherCallbacks(t *testing.T) {
	t.Parallel()

	env := bottest.NewEnv(t, bottest.Config(), nil)
	proceed, err := NewBoostCallback(env.Service).Handle(context.Background(), callbackUpdate("something_else", testUser), &testChat, &testUser)
	if err != nil || !proceed {
		t.Fatalf("foreign callbacks must pass: proceed=%v err=%v", proceed, err)
	}
}
