package moderation

import (
	"context"
	"errors"
	"testing"

	api "github.com/OvyFlash/telegram-bot-api"
)

func TestHandleIgnoresUnknownAndPrivateCommands(t *testing.T) {
	t.Parallel()

	m, env := newEnv(t)
	chat := testChat
	from := testAdmin

	proceed, err := m.Handle(context.Background(), commandUpdate(1, from, "/start", nil), &chat, &from)
	if err != nil || !proceed {
		t.Fatalf("unknown command: proceed=%v err=%v", proceed, err)
	}

	private := api.Chat{ID: testAdmin.ID, Type: "private"}
	u := commandUpdate(2, from, "/rban @mario", nil)
	u.Message.Chat = private
	proceed, err = m.Handle(context.Background(), u, &private, &from)
	if err != nil || !proceed {
		t.Fatalf("private command: proceed=%v err=%v", proceed, err)
	}
	if len(env.Platform.Sent) != 0 || len(env.Platform.Banned) != 0 {
		t.Fatalf("nothing should have happened: %+v", env.Platform)
	}
}

func TestNonAdminIsNotifiedPrivately(t *testing.T) {
	t.Parallel()

	m, env := newEnv(t)
	run(t, m, testUser, "/rban @mario", nil)

	sent := lastText(t, env)
	if sent.ChatID != testUser.ID || sent.Text != "❌ Only admins can use /rban." {
		t.Fatalf("unexpected notice: %+v", sent)
	}
	if len(env.Platform.Deleted) != 0 {
		t.Fatalf("command message must stay when the notice went privately")
	}
}

func TestNotifyFallsBackToTemporaryGroupMessage(t *testing.T) {
	t.Parallel()

	m, env := newEnv(t)
	env.Platform.SendErr[testUser.ID] = errors.New("bot was blocked by the user")
	run(t, m, testUser, "/rwarn @mario", nil)

	sent := lastText(t, env)
	if sent.ChatID != testChat.ID || !sent.Temporary {
		t.Fatalf("expected temporary group message, got %+v", sent)
	}
	if len(env.Platform.Deleted) != 1 || env.Platform.Deleted[0] != 100 {
		t.Fatalf("command message must be deleted, got %v", env.Platform.Deleted)
	}
}

func TestTargetResolutionFailures(t *testing.T) {
	t.Parallel()

	m, env := newEnv(t)

	run(t, m, testAdmin, "/rban @ghost", nil)
	if got := lastText(t, env).Text; got != "❌ Could not find the user by username." {
		t.Fatalf("unexpected text: %q", got)
	}

	run(t, m, testAdmin, "/rban", nil)
	if got := lastText(t, env).Text; got != "Usage: /rban [reply to a message / user_id / @username]" {
		t.Fatalf("unexpected text: %q", got)
	}
	if len(env.Platform.Banned) != 0 {
		t.Fatalf("nobody should be banned: %v", env.Platform.Banned)
	}
}

func TestOwnerCommandNoticesStayInGroup(t *testing.T) {
	t.Parallel()

	m, env := newEnv(t)
	env.Platform.SendErr[testAdmin.ID] = errors.New("bot can't initiate conversation with a user")
	env.Platform.SendErr[testOwner.ID] = errors.New("bot can't initiate conversation with a user")

	run(t, m, testAdmin, "/immune @mario", nil)
	sent := lastText(t, env)
	if sent.ChatID != testChat.ID || sent.Temporary || sent.Text != "❌ Only the group owner can use this command." {
		t.Fatalf("expected a lasting group notice, got %+v", sent)
	}

	run(t, m, testOwner, "/immune @ghost", nil)
	sent = lastText(t, env)
	if sent.ChatID != testChat.ID || sent.Temporary || sent.Text != "⚠️ Could not find the specified user." {
		t.Fatalf("expected a lasting group notice, got %+v", sent)
	}
	if len(env.Platform.Deleted) != 0 {
		t.Fatalf("owner command messages must stay, deleted %v", env.Platform.Deleted)
	}
}
