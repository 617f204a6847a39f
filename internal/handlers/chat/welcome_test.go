package chat

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"

	"github.com/rottengram/rottenshield/internal/bot/bottest"
	"github.com/rottengram/rottenshield/internal/cooldown"
)

func joinUpdate(members ...api.User) *api.Update {
	return &api.Update{Message: &api.Message{MessageID: 1, Chat: testChat, NewChatMembers: members}}
}

func TestWelcomeRegistersJoinAndGreets(t *testing.T) {
	t.Parallel()

	env := bottest.NewEnv(t, bottest.Config(), nil)
	now := t0
	w := NewWelcome(env.Service)
	w.now = clock(&now)

	robot := api.User{ID: 99, FirstName: "Bot", IsBot: true}
	proceed, err := w.Handle(context.Background(), joinUpdate(testUser, robot), &testChat, &testUser)
	if err != nil || !proceed {
		t.Fatalf("handle: proceed=%v err=%v", proceed, err)
	}

	engine := env.Cooldowns.For(testChat.ID)
	if d := engine.Classify(testUser.ID, cooldown.ChatKindSupergroup, t0.Add(time.Minute)); d.Kind != cooldown.DeleteAndWarn {
		t.Fatalf("joiner must be inside the new member window, got %s", d)
	}
	if d := engine.Classify(robot.ID, cooldown.ChatKindSupergroup, t0.Add(time.Minute)); d.Kind != cooldown.Allow {
		t.Fatalf("bots must not be registered, got %s", d)
	}

	texts := env.Platform.Texts()
	if len(texts) != 1 {
		t.Fatalf("expected one welcome, got %v", texts)
	}
	for _, want := range []string{`tg://user?id=42`, "<b>Rotten Gram</b>", "first 30 minutes", "1 media every 1 minute"} {
		if !strings.Contains(texts[0], want) {
			t.Fatalf("welcome %q lacks %q", texts[0], want)
		}
	}
}

func TestWelcomeUsesImageWhenReadable(t *testing.T) {
	t.Parallel()

	image := filepath.Join(t.TempDir(), "welcome.jpg")
	if err := os.WriteFile(image, []byte("jpeg"), 0o600); err != nil {
		t.Fatalf("write image: %v", err)
	}
	cfg := bottest.Config()
	cfg.WelcomeImage = image
	env := bottest.NewEnv(t, cfg, nil)

	if _, err := NewWelcome(env.Service).Handle(context.Background(), joinUpdate(testUser), &testChat, &testUser); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(env.Platform.Sent) != 1 {
		t.Fatalf("expected one message")
	}
	if _, ok := env.Platform.Sent[0].Chattable.(api.PhotoConfig); !ok {
		t.Fatalf("expected a photo, got %T", env.Platform.Sent[0].Chattable)
	}
}
