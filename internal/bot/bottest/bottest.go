// Package bottest provides an in-memory platform and a service wired to a
// throwaway sqlite store for handler tests.
package bottest

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"

	"github.com/rottengram/rottenshield/internal/bot"
	"github.com/rottengram/rottenshield/internal/config"
	"github.com/rottengram/rottenshield/internal/cooldown"
	"github.com/rottengram/rottenshield/internal/db"
	"github.com/rottengram/rottenshield/internal/db/sqlstore"
	"github.com/rottengram/rottenshield/internal/infrastructure/telegram"
)

type Restriction struct {
	ChatID int64
	UserID int64
	Perms  api.ChatPermissions
	Until  time.Time
}

type Sent struct {
	ChatID    int64
	Text      string
	Temporary bool
	Chattable api.Chattable
}

type Answer struct {
	ID    string
	Text  string
	Alert bool
}

// Platform records every call. Members default to plain members.
type Platform struct {
	mu sync.Mutex

	Members map[int64]api.ChatMember
	Boosts  map[int64][]telegram.ChatBoost
	// SendErr is returned for sends to the listed chat IDs.
	SendErr   map[int64]error
	DeleteErr error

	Deleted      []int
	Sent         []Sent
	Restrictions []Restriction
	Unrestricted []int64
	Banned       []int64
	Unbanned     []int64
	Answers      []Answer
	Cleared      []int

	nextID int
}

func NewPlatform() *Platform {
	return &Platform{
		Members: map[int64]api.ChatMember{},
		Boosts:  map[int64][]telegram.ChatBoost{},
		SendErr: map[int64]error{},
	}
}

// SetMember registers userID with the given status ("creator", "administrator", "member").
func (p *Platform) SetMember(userID int64, status string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Members[userID] = api.ChatMember{User: &api.User{ID: userID}, Status: status}
}

func (p *Platform) send(chatID int64, text string, temporary bool, c api.Chattable) (api.Message, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.SendErr[chatID]; err != nil {
		return api.Message{}, err
	}
	p.nextID++
	p.Sent = append(p.Sent, Sent{ChatID: chatID, Text: text, Temporary: temporary, Chattable: c})
	return api.Message{MessageID: p.nextID, Chat: api.Chat{ID: chatID}, Text: text}, nil
}

func (p *Platform) DeleteMessage(_ context.Context, _ int64, messageID int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.DeleteErr != nil {
		return p.DeleteErr
	}
	p.Deleted = append(p.Deleted, messageID)
	return nil
}

func (p *Platform) Send(_ context.Context, c api.Chattable) (api.Message, error) {
	switch m := c.(type) {
	case api.MessageConfig:
		return p.send(m.ChatID, m.Text, false, c)
	case api.PhotoConfig:
		return p.send(m.ChatID, m.Caption, false, c)
	}
	return p.send(0, "", false, c)
}

func (p *Platform) SendHTML(_ context.Context, chatID int64, text string, replyTo int) (api.Message, error) {
	msg := api.NewMessage(chatID, text)
	msg.ParseMode = api.ModeHTML
	msg.ReplyParameters.MessageID = replyTo
	return p.send(chatID, text, false, msg)
}

func (p *Platform) SendPhoto(_ context.Context, chatID int64, path, caption string) (api.Message, error) {
	return p.send(chatID, caption, false, api.NewPhoto(chatID, api.FilePath(path)))
}

func (p *Platform) SendTemporary(_ context.Context, msg api.MessageConfig, _ time.Duration) (api.Message, error) {
	return p.send(msg.ChatID, msg.Text, true, msg)
}

func (p *Platform) Restrict(_ context.Context, chatID, userID int64, perms api.ChatPermissions, until time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Restrictions = append(p.Restrictions, Restriction{ChatID: chatID, UserID: userID, Perms: perms, Until: until})
	return nil
}

func (p *Platform) Unrestrict(_ context.Context, _, userID int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Unrestricted = append(p.Unrestricted, userID)
	return nil
}

func (p *Platform) Ban(_ context.Context, _, userID int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Banned = append(p.Banned, userID)
	return nil
}

func (p *Platform) Unban(_ context.Context, _, userID int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Unbanned = append(p.Unbanned, userID)
	return nil
}

func (p *Platform) GetChat(_ context.Context, chatID int64) (api.ChatFullInfo, error) {
	var chat api.ChatFullInfo
	chat.ID = chatID
	chat.Type = "supergroup"
	return chat, nil
}

func (p *Platform) GetChatMember(_ context.Context, _, userID int64) (api.ChatMember, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if m, ok := p.Members[userID]; ok {
		return m, nil
	}
	return api.ChatMember{User: &api.User{ID: userID}, Status: "member"}, nil
}

func (p *Platform) AnswerCallback(_ context.Context, callbackID, text string, alert bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Answers = append(p.Answers, Answer{ID: callbackID, Text: text, Alert: alert})
	return nil
}

func (p *Platform) ClearReplyMarkup(_ context.Context, _ int64, messageID int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Cleared = append(p.Cleared, messageID)
	return nil
}

func (p *Platform) GetUserChatBoosts(_ context.Context, _, userID int64) ([]telegram.ChatBoost, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Boosts[userID], nil
}

// Texts returns the texts of every sent message in order.
func (p *Platform) Texts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.Sent))
	for _, s := range p.Sent {
		out = append(out, s.Text)
	}
	return out
}

// Resolver is a static username table.
type Resolver map[string]int64

func (r Resolver) Remember(username string, id int64) {
	r[strings.ToLower(strings.TrimPrefix(username, "@"))] = id
}

func (r Resolver) ResolveUsername(_ context.Context, username string) (int64, error) {
	if id, ok := r[username]; ok {
		return id, nil
	}
	return 0, errors.New("unknown username")
}

// Config returns the defaults used in production, in English.
func Config() config.Config {
	return config.Config{
		DefaultLanguage: "en",
		BoostLink:       "https://t.me/boost/rotten",
		Cooldown: config.Cooldown{
			Scope:           "global",
			NewMemberWindow: 30 * time.Minute,
			MediaInterval:   time.Minute,
		},
		Moderation: config.Moderation{
			DefaultMute:    5 * time.Minute,
			MaxMute:        24 * time.Hour,
			WarnLimit:      3,
			TempMessageTTL: 10 * time.Second,
		},
		Premium: config.Premium{
			MuteDuration:  5 * time.Minute,
			BoostValidity: 365 * 24 * time.Hour,
		},
	}
}

// Env is a ready service plus direct access to its parts.
type Env struct {
	Service   bot.Service
	Platform  *Platform
	DB        db.Client
	Cooldowns *cooldown.Registry
}

func NewEnv(t *testing.T, cfg config.Config, resolver bot.Resolver) *Env {
	t.Helper()
	store, err := sqlstore.New(context.Background(), sqlstore.DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("new sqlite client: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	platform := NewPlatform()
	cooldowns := cooldown.NewRegistry(cooldown.ScopeGlobal, cooldown.Options{
		NewMemberWindow: cfg.Cooldown.NewMemberWindow,
		MediaInterval:   cfg.Cooldown.MediaInterval,
	})
	return &Env{
		Service:   bot.NewService(platform, store, cooldowns, resolver, cfg),
		Platform:  platform,
		DB:        store,
		Cooldowns: cooldowns,
	}
}
