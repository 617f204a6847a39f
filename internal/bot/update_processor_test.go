package bot_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"

	"github.com/rottengram/rottenshield/internal/bot"
	"github.com/rottengram/rottenshield/internal/bot/bottest"
	"github.com/rottengram/rottenshield/internal/cooldown"
)

type recordingHandler struct {
	name    string
	proceed bool
	err     error
	calls   *[]string
}

func (h recordingHandler) Handle(_ context.Context, _ *api.Update, _ *api.Chat, _ *api.User) (bool, error) {
	*h.calls = append(*h.calls, h.name)
	return h.proceed, h.err
}

func groupMessage(date time.Time) *api.Update {
	return &api.Update{
		UpdateID: 1,
		Message: &api.Message{
			MessageID: 10,
			Date:      int(date.Unix()),
			Chat:      api.Chat{ID: -100, Type: "supergroup"},
			From:      &api.User{ID: 5, FirstName: "Mario"},
		},
	}
}

func TestProcessRunsHandlersInOrderUntilStopped(t *testing.T) {
	t.Parallel()

	env := bottest.NewEnv(t, bottest.Config(), nil)
	var calls []string
	bot.RegisterUpdateHandler("test_order_first", recordingHandler{name: "first", proceed: true, calls: &calls})
	bot.RegisterUpdateHandler("test_order_stop", recordingHandler{name: "stop", proceed: false, calls: &calls})
	bot.RegisterUpdateHandler("test_order_never", recordingHandler{name: "never", proceed: true, calls: &calls})

	up := bot.NewUpdateProcessor(env.Service, []string{"test_order_first", "test_order_missing", "test_order_stop", "test_order_never"})
	if err := up.Process(context.Background(), groupMessage(time.Now())); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(calls) != 2 || calls[0] != "first" || calls[1] != "stop" {
		t.Fatalf("unexpected handler calls: %v", calls)
	}
}

func TestProcessReturnsHandlerError(t *testing.T) {
	t.Parallel()

	env := bottest.NewEnv(t, bottest.Config(), nil)
	var calls []string
	boom := errors.New("boom")
	bot.RegisterUpdateHandler("test_error", recordingHandler{name: "err", err: boom, calls: &calls})

	up := bot.NewUpdateProcessor(env.Service, []string{"test_error"})
	if err := up.Process(context.Background(), groupMessage(time.Now())); !errors.Is(err, boom) {
		t.Fatalf("expected handler error, got %v", err)
	}
}

func TestProcessSkipsOutdatedUpdates(t *testing.T) {
	t.Parallel()

	env := bottest.NewEnv(t, bottest.Config(), nil)
	var calls []string
	bot.RegisterUpdateHandler("test_outdated", recordingHandler{name: "h", proceed: true, calls: &calls})

	up := bot.NewUpdateProcessor(env.Service, []string{"test_outdated"})
	if err := up.Process(context.Background(), groupMessage(time.Now().Add(-time.Hour))); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(calls) != 0 {
		t.Fatalf("outdated update must not reach handlers: %v", calls)
	}
	if err := up.Process(context.Background(), nil); err == nil {
		t.Fatalf("nil update must fail")
	}
}

func TestIsMedia(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		msg  *api.Message
		want bool
	}{
		{"nil", nil, false},
		{"text", &api.Message{Text: "ciao"}, false},
		{"photo", &api.Message{Photo: []api.PhotoSize{{FileID: "x"}}}, true},
		{"video", &api.Message{Video: &api.Video{FileID: "x"}}, true},
		{"animation", &api.Message{Animation: &api.Animation{FileID: "x"}}, true},
		{"sticker", &api.Message{Sticker: &api.Sticker{FileID: "x"}}, true},
		{"document", &api.Message{Document: &api.Document{FileID: "x"}}, false},
		{"voice", &api.Message{Voice: &api.Voice{FileID: "x"}}, false},
	}
	for _, tc := range cases {
		if got := bot.IsMedia(tc.msg); got != tc.want {
			t.Fatalf("%s: IsMedia=%v want %v", tc.name, got, tc.want)
		}
	}
}

func TestChatKindOf(t *testing.T) {
	t.Parallel()

	if bot.ChatKindOf(nil) != cooldown.ChatKindUnknown {
		t.Fatalf("nil chat must be unknown")
	}
	if bot.ChatKindOf(&api.Chat{Type: "supergroup"}) != cooldown.ChatKindSupergroup {
		t.Fatalf("supergroup not mapped")
	}
	if bot.ChatKindOf(&api.Chat{Type: "private"}) != cooldown.ChatKindPrivate {
		t.Fatalf("private not mapped")
	}
}

func TestNames(t *testing.T) {
	t.Parallel()

	u := &api.User{ID: 7, FirstName: "Anna <b>", LastName: "Rossi", UserName: "anna"}
	if got := bot.GetUN(u); got != "anna" {
		t.Fatalf("GetUN: %q", got)
	}
	if got := bot.GetFullName(u); got != "Anna <b> Rossi" {
		t.Fatalf("GetFullName: %q", got)
	}
	if got := bot.MentionHTML(u); got != `<a href="tg://user?id=7">Anna &lt;b&gt;</a>` {
		t.Fatalf("MentionHTML: %q", got)
	}
	if bot.GetUN(&api.User{FirstName: "Solo"}) != "Solo" {
		t.Fatalf("GetUN must fall back to the name")
	}
}

func TestNoResolverFails(t *testing.T) {
	t.Parallel()

	env := bottest.NewEnv(t, bottest.Config(), nil)
	if _, err := env.Service.GetResolver().ResolveUsername(context.Background(), "anyone"); err == nil {
		t.Fatalf("disabled resolver must fail")
	}
}

type staticUpdates struct {
	batches [][]api.Update
}

func (s *staticUpdates) GetUpdates(api.UpdateConfig) ([]api.Update, error) {
	if len(s.batches) == 0 {
		return nil, errors.New("drained")
	}
	b := s.batches[0]
	s.batches = s.batches[1:]
	return b, nil
}

func TestGetUpdatesChansAdvancesOffset(t *testing.T) {
	t.Parallel()

	src := &staticUpdates{batches: [][]api.Update{
		{{UpdateID: 1}, {UpdateID: 2}},
		{{UpdateID: 2}, {UpdateID: 3}},
	}}
	updates, errs := bot.GetUpdatesChans(context.Background(), src, 10, 1, api.NewUpdate(0))

	var ids []int
	for u := range updates {
		ids = append(ids, u.UpdateID)
	}
	if len(ids) != 3 || ids[2] != 3 {
		t.Fatalf("unexpected updates: %v", ids)
	}
	if err := <-errs; err == nil || err.Error() != "drained" {
		t.Fatalf("expected polling error, got %v", err)
	}
}

type flakyUpdates struct {
	mu      sync.Mutex
	errs    []error
	batches [][]api.Update
	offsets []int
	cancel  context.CancelFunc
}

func (f *flakyUpdates) GetUpdates(config api.UpdateConfig) ([]api.Update, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offsets = append(f.offsets, config.Offset)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	if len(f.batches) == 0 {
		f.cancel()
		return nil, nil
	}
	b := f.batches[0]
	f.batches = f.batches[1:]
	return b, nil
}

func TestGetUpdatesChansSurvivesTransientFailure(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	src := &flakyUpdates{
		errs: []error{errors.New("EOF"), nil, &api.Error{Code: 502, Message: "Bad Gateway"}},
		batches: [][]api.Update{
			{{UpdateID: 7}},
			{{UpdateID: 8}},
		},
		cancel: cancel,
	}
	updates, errs := bot.GetUpdatesChans(ctx, src, 10, 2, api.NewUpdate(0))

	var ids []int
	for u := range updates {
		ids = append(ids, u.UpdateID)
	}
	if len(ids) != 2 || ids[0] != 7 || ids[1] != 8 {
		t.Fatalf("unexpected updates: %v", ids)
	}
	if err := <-errs; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}

	src.mu.Lock()
	defer src.mu.Unlock()
	want := []int{0, 0, 8, 8, 9}
	if len(src.offsets) != len(want) {
		t.Fatalf("unexpected polls: %v", src.offsets)
	}
	for i := range want {
		if src.offsets[i] != want[i] {
			t.Fatalf("unexpected offsets: %v", src.offsets)
		}
	}
}

func TestGetUpdatesChansGivesUp(t *testing.T) {
	t.Parallel()

	unauthorized := &api.Error{Code: 401, Message: "Unauthorized"}
	src := &flakyUpdates{errs: []error{unauthorized}, cancel: func() {}}
	updates, errs := bot.GetUpdatesChans(context.Background(), src, 1, 5, api.NewUpdate(0))
	for range updates {
	}
	if err := <-errs; !errors.Is(err, unauthorized) {
		t.Fatalf("non retryable error must stop polling at once, got %v", err)
	}

	src = &flakyUpdates{errs: []error{errors.New("EOF"), errors.New("EOF")}, cancel: func() {}}
	updates, errs = bot.GetUpdatesChans(context.Background(), src, 1, 2, api.NewUpdate(0))
	for range updates {
	}
	if err := <-errs; err == nil || err.Error() != "EOF" {
		t.Fatalf("expected EOF after two failures, got %v", err)
	}
	src.mu.Lock()
	defer src.mu.Unlock()
	if len(src.offsets) != 2 {
		t.Fatalf("expected two polls, got %d", len(src.offsets))
	}
}

func TestGetLanguage(t *testing.T) {
	t.Parallel()

	fixed := bottest.Config()
	fixed.DefaultLanguage = "it"
	env := bottest.NewEnv(t, fixed, nil)
	if got := env.Service.GetLanguage(context.Background(), -100, &api.User{LanguageCode: "en"}); got != "it" {
		t.Fatalf("configured language must win, got %q", got)
	}

	auto := bottest.Config()
	auto.DefaultLanguage = "auto"
	env = bottest.NewEnv(t, auto, nil)
	cases := []struct {
		user *api.User
		want string
	}{
		{&api.User{LanguageCode: "it"}, "it"},
		{&api.User{LanguageCode: "IT"}, "it"},
		{&api.User{LanguageCode: "de"}, "en"},
		{&api.User{}, "en"},
		{nil, "en"},
	}
	for _, tc := range cases {
		if got := env.Service.GetLanguage(context.Background(), -100, tc.user); got != tc.want {
			t.Fatalf("auto with %+v: got %q want %q", tc.user, got, tc.want)
		}
	}
}

func TestProcessRemembersSeenUsernames(t *testing.T) {
	t.Parallel()

	seen := bottest.Resolver{}
	env := bottest.NewEnv(t, bottest.Config(), seen)
	u := groupMessage(time.Now())
	u.Message.From.UserName = "Mario"
	u.Message.NewChatMembers = []api.User{
		{ID: 6, FirstName: "Anna", UserName: "anna"},
		{ID: 9, FirstName: "Bot", UserName: "helper_bot", IsBot: true},
		{ID: 11, FirstName: "NoName"},
	}

	if err := bot.NewUpdateProcessor(env.Service, nil).Process(context.Background(), u); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(seen) != 2 || seen["mario"] != 5 || seen["anna"] != 6 {
		t.Fatalf("unexpected remembered users: %v", seen)
	}
}
