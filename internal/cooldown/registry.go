package cooldown

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Scope selects how cooldown state is partitioned.
type Scope string

const (
	// ScopeGlobal shares one engine between every chat the bot moderates,
	// so a cooldown earned in one group applies in all of them.
	ScopeGlobal Scope = "global"
	// ScopeChat gives each chat its own join windows, cooldowns and immunity list.
	ScopeChat Scope = "chat"
)

func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeGlobal, "":
		return ScopeGlobal, nil
	case ScopeChat:
		return ScopeChat, nil
	default:
		return "", fmt.Errorf("unknown cooldown scope %q", s)
	}
}

// Registry hands out the engine responsible for a chat.
type Registry struct {
	scope  Scope
	opts   Options
	global *Engine

	mu    sync.Mutex
	chats map[int64]*Engine
}

func NewRegistry(scope Scope, opts Options) *Registry {
	r := &Registry{
		scope: scope,
		opts:  opts.withDefaults(),
		chats: make(map[int64]*Engine),
	}
	if scope != ScopeChat {
		r.scope = ScopeGlobal
		r.global = NewEngine(r.opts)
	}
	log.WithFields(log.Fields{
		"object":            "CooldownRegistry",
		"scope":             r.scope,
		"new_member_window": r.opts.NewMemberWindow.String(),
		"media_interval":    r.opts.MediaInterval.String(),
	}).Info("cooldown state is in-memory only and resets on restart")
	return r
}

func (r *Registry) Scope() Scope {
	return r.scope
}

// For returns the engine for chatID, creating it on first use in per-chat mode.
func (r *Registry) For(chatID int64) *Engine {
	if r.scope == ScopeGlobal {
		return r.global
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.chats[chatID]
	if !ok {
		e = NewEngine(r.opts)
		r.chats[chatID] = e
	}
	return e
}
