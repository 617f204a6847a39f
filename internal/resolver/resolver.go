// Package resolver turns @usernames into numeric user IDs.
// The Bot API cannot do that, so lookups go through an MTProto session
// logged in with the bot token, with results cached in memory.
package resolver

import (
	"context"
	"encoding/binary"
	"strconv"
	"strings"
	"time"

	"github.com/coocood/freecache"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	rserrors "github.com/rottengram/rottenshield/internal/errors"
)

const (
	minCacheSize = 512 * 1024
	cacheTTL     = 6 * time.Hour
)

// LookupFunc resolves a normalized username against the platform.
type LookupFunc func(ctx context.Context, username string) (int64, error)

type Resolver struct {
	lookup LookupFunc
	cache  *freecache.Cache
	group  singleflight.Group
	logger *log.Entry
}

func newResolver(lookup LookupFunc, cacheSize int) *Resolver {
	if cacheSize < minCacheSize {
		cacheSize = minCacheSize
	}
	return &Resolver{
		lookup: lookup,
		cache:  freecache.NewCache(cacheSize),
		logger: log.WithField("object", "UsernameResolver"),
	}
}

// NewSeenUsers returns a resolver without an MTProto session: only usernames
// passed to Remember can be resolved.
func NewSeenUsers(cacheSize int) *Resolver {
	return newResolver(func(context.Context, string) (int64, error) {
		return 0, errors.Wrap(rserrors.ErrNotFound, "username not seen recently")
	}, cacheSize)
}

// Normalize strips the leading @ and lowercases the username.
func Normalize(username string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(username), "@"))
}

// ResolveUsername returns the user ID behind username. Concurrent lookups of the
// same name share one request.
func (r *Resolver) ResolveUsername(ctx context.Context, username string) (int64, error) {
	name := Normalize(username)
	if name == "" {
		return 0, errors.Wrap(rserrors.ErrInvalidInput, "empty username")
	}
	if id, ok := r.cached(name); ok {
		return id, nil
	}

	v, err, _ := r.group.Do(name, func() (any, error) {
		id, err := r.lookup(ctx, name)
		if err != nil {
			return int64(0), err
		}
		r.remember(name, id)
		return id, nil
	})
	if err != nil {
		r.logger.WithError(err).WithField("username", name).Warn("cant resolve username")
		return 0, errors.Wrapf(rserrors.ErrUnresolved, "@%s: %v", name, err)
	}
	return v.(int64), nil
}

// Remember caches username for id; a later owner of the same name replaces the earlier one.
func (r *Resolver) Remember(username string, id int64) {
	if name := Normalize(username); name != "" && id != 0 {
		r.remember(name, id)
	}
}

func (r *Resolver) cached(name string) (int64, bool) {
	raw, err := r.cache.Get([]byte(name))
	if err != nil || len(raw) != 8 {
		return 0, false
	}
	return int64(binary.BigEndian.Uint64(raw)), true
}

func (r *Resolver) remember(name string, id int64) {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(id))
	if err := r.cache.Set([]byte(name), buf, int(cacheTTL/time.Second)); err != nil {
		r.logger.WithError(err).Debug("cant cache username")
	}
}

// ParseUserID accepts a plain numeric ID argument.
func ParseUserID(arg string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
