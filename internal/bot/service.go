package bot

import (
	"context"
	"strings"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/iamwavecut/tool"
	"github.com/pkg/errors"

	"github.com/rottengram/rottenshield/internal/config"
	"github.com/rottengram/rottenshield/internal/cooldown"
	"github.com/rottengram/rottenshield/internal/db"
	rserrors "github.com/rottengram/rottenshield/internal/errors"
	"github.com/rottengram/rottenshield/internal/i18n"
)

type service struct {
	platform  Platform
	db        db.Client
	cooldowns *cooldown.Registry
	resolver  Resolver
	cfg       config.Config
}

// NewService bundles the collaborators. A nil resolver makes every username lookup fail.
func NewService(platform Platform, dbClient db.Client, cooldowns *cooldown.Registry, resolver Resolver, cfg config.Config) *service {
	if resolver == nil {
		resolver = noResolver{}
	}
	return &service{
		platform:  platform,
		db:        dbClient,
		cooldowns: cooldowns,
		resolver:  resolver,
		cfg:       cfg,
	}
}

func (s *service) GetPlatform() Platform {
	return s.platform
}

func (s *service) GetDB() db.Client {
	return s.db
}

func (s *service) GetCooldowns() *cooldown.Registry {
	return s.cooldowns
}

func (s *service) GetResolver() Resolver {
	return s.resolver
}

func (s *service) GetConfig() config.Config {
	return s.cfg
}

// LanguageAuto makes every reply follow the client language of the user it is about.
const LanguageAuto = "auto"

// GetLanguage returns the configured language. With LanguageAuto the user's client
// language is used when supported, the key language otherwise.
func (s *service) GetLanguage(_ context.Context, _ int64, user *api.User) string {
	if lang := strings.ToLower(s.cfg.DefaultLanguage); lang != LanguageAuto && i18n.IsSupported(lang) {
		return lang
	}
	if user != nil {
		if code := strings.ToLower(user.LanguageCode); tool.In(code, i18n.GetLanguagesList()...) {
			return code
		}
	}
	return i18n.DefaultLanguage
}

type noResolver struct{}

func (noResolver) Remember(string, int64) {}

func (noResolver) ResolveUsername(_ context.Context, username string) (int64, error) {
	return 0, errors.Wrapf(rserrors.ErrUnresolved, "resolver disabled, cant look up %s", username)
}
