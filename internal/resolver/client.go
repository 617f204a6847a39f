package resolver

import (
	"context"
	"sync"
	"time"

	"github.com/celestix/gotgproto"
	"github.com/celestix/gotgproto/sessionMaker"
	"github.com/glebarez/sqlite"
	"github.com/gotd/contrib/middleware/floodwait"
	"github.com/gotd/contrib/middleware/ratelimit"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/tg"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	rserrors "github.com/rottengram/rottenshield/internal/errors"
)

type ClientOptions struct {
	APIID       int
	APIHash     string
	BotToken    string
	SessionPath string
	CacheSize   int
}

// Client owns the MTProto session and exposes the resolver once started.
type Client struct {
	*Resolver
	opts ClientOptions

	mu     sync.Mutex
	client *gotgproto.Client
}

func NewClient(opts ClientOptions) *Client {
	c := &Client{opts: opts}
	c.Resolver = newResolver(c.lookup, opts.CacheSize)
	return c
}

func middlewares() []telegram.Middleware {
	return []telegram.Middleware{
		floodwait.NewSimpleWaiter().WithMaxRetries(5),
		ratelimit.New(rate.Every(100*time.Millisecond), 5),
	}
}

// Start logs in. gotgproto blocks until the session is authorized.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return nil
	}

	client, err := gotgproto.NewClient(
		c.opts.APIID,
		c.opts.APIHash,
		gotgproto.ClientTypeBot(c.opts.BotToken),
		&gotgproto.ClientOpts{
			Session:          sessionMaker.SqlSession(sqlite.Open(c.opts.SessionPath)),
			DisableCopyright: true,
			Middlewares:      middlewares(),
		},
	)
	if err != nil {
		return errors.Wrap(err, "start mtproto client")
	}
	c.client = client
	c.logger.Info("username resolver connected")
	return nil
}

func (c *Client) Stop(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil {
		return nil
	}
	c.client.Stop()
	c.client = nil
	return nil
}

func (c *Client) lookup(ctx context.Context, username string) (int64, error) {
	c.mu.Lock()
	client := c.client
	c.mu.Unlock()
	if client == nil {
		return 0, errors.New("resolver is not started")
	}

	res, err := client.API().ContactsResolveUsername(ctx, &tg.ContactsResolveUsernameRequest{Username: username})
	if err != nil {
		return 0, err
	}
	if peer, ok := res.Peer.(*tg.PeerUser); ok {
		return peer.UserID, nil
	}
	return 0, errors.Wrap(rserrors.ErrNotFound, "username does not belong to a user")
}
