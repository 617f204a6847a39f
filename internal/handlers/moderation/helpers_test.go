package moderation

import (
	"context"
	"strings"
	"testing"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"

	"github.com/rottengram/rottenshield/internal/bot"
	"github.com/rottengram/rottenshield/internal/bot/bottest"
)

var (
	testChat  = api.Chat{ID: -1001, Type: "supergroup", Title: "Rotten Gram"}
	testAdmin = api.User{ID: 1, FirstName: "Anna", UserName: "anna"}
	testOwner = api.User{ID: 2, FirstName: "Olga", UserName: "olga"}
	testUser  = api.User{ID: 42, FirstName: "Mario", UserName: "mario"}
	t0        = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
)

// newEnv returns a moderation handler with an admin, an owner and a member known to the platform.
func newEnv(t *testing.T) (*Moderation, *bottest.Env) {
	t.Helper()
	return newEnvWith(t, bottest.Resolver{"mario": testUser.ID})
}

func newEnvWith(t *testing.T, usernames bot.Resolver) (*Moderation, *bottest.Env) {
	t.Helper()
	env := bottest.NewEnv(t, bottest.Config(), usernames)
	env.Platform.Members[testAdmin.ID] = api.ChatMember{User: &testAdmin, Status: "administrator"}
	env.Platform.Members[testOwner.ID] = api.ChatMember{User: &testOwner, Status: "creator"}
	user := testUser
	env.Platform.Members[testUser.ID] = api.ChatMember{User: &user, Status: "member"}

	m := NewModeration(env.Service)
	m.now = func() time.Time { return t0 }
	return m, env
}

func commandUpdate(id int, from api.User, text string, reply *api.User) *api.Update {
	name := strings.Fields(text)[0]
	msg := &api.Message{
		MessageID: id,
		Chat:      testChat,
		From:      &from,
		Text:      text,
		Entities:  []api.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name)}},
	}
	if reply != nil {
		msg.ReplyToMessage = &api.Message{MessageID: id - 1, Chat: testChat, From: reply}
	}
	return &api.Update{Message: msg}
}

func run(t *testing.T, m *Moderation, from api.User, text string, reply *api.User) {
	t.Helper()
	chat := testChat
	proceed, err := m.Handle(context.Background(), commandUpdate(100, from, text, reply), &chat, &from)
	if err != nil {
		t.Fatalf("%s: %v", text, err)
	}
	if proceed {
		t.Fatalf("%s: command must stop the chain", text)
	}
}

func lastText(t *testing.T, env *bottest.Env) bottest.Sent {
	t.Helper()
	if len(env.Platform.Sent) == 0 {
		t.Fatalf("nothing was sent")
	}
	return env.Platform.Sent[len(env.Platform.Sent)-1]
}
