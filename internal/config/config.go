package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/sethvargo/go-envconfig"
	log "github.com/sirupsen/logrus"
)

const envPrefix = "RS_"

type (
	Config struct {
		TelegramAPIToken string   `env:"TOKEN,required" validate:"required"`
		DefaultLanguage  string   `env:"LANG,default=it" validate:"oneof=auto en it"`
		EnabledHandlers  []string `env:"HANDLERS,default=system,welcome,boost,moderation,premium,antiflood" validate:"min=1,dive,required"`
		LogLevel         int      `env:"LOG_LEVEL,default=4" validate:"min=0,max=6"`
		LogFile          string   `env:"LOG_FILE"`
		DotPath          string   `env:"DOT_PATH,default=~/.rottenshield"`
		Environment      string   `env:"ENV,default=development"`
		WelcomeImage     string   `env:"WELCOME_IMAGE"`
		BoostLink        string   `env:"BOOST_LINK" validate:"omitempty,url"`

		Database   Database
		Cooldown   Cooldown
		Moderation Moderation
		Premium    Premium
		Platform   Platform
		Resolver   Resolver
		Metrics    Metrics
	}

	Database struct {
		Driver string `env:"DB_DRIVER,default=sqlite" validate:"oneof=sqlite pgx"`
		// DSN is a file name relative to DotPath for sqlite, a connection URL for pgx.
		DSN string `env:"DB_DSN,default=rottenshield.db" validate:"required"`
	}

	Cooldown struct {
		Scope           string        `env:"COOLDOWN_SCOPE,default=global" validate:"oneof=global chat"`
		NewMemberWindow time.Duration `env:"COOLDOWN_NEW_MEMBER_WINDOW,default=30m" validate:"gt=0"`
		MediaInterval   time.Duration `env:"COOLDOWN_MEDIA_INTERVAL,default=60s" validate:"gt=0"`
	}

	Moderation struct {
		DefaultMute    time.Duration `env:"MUTE_DEFAULT,default=5m" validate:"gt=0"`
		MaxMute        time.Duration `env:"MUTE_MAX,default=24h" validate:"gtefield=DefaultMute"`
		WarnLimit      int           `env:"WARN_LIMIT,default=3" validate:"min=1"`
		TempMessageTTL time.Duration `env:"TEMP_MESSAGE_TTL,default=10s" validate:"gt=0"`
	}

	Premium struct {
		MuteDuration  time.Duration `env:"PREMIUM_MUTE,default=5m" validate:"gt=0"`
		BoostValidity time.Duration `env:"BOOST_VALIDITY,default=8760h" validate:"gt=0"`
	}

	Platform struct {
		MaxRetries int     `env:"PLATFORM_MAX_RETRIES,default=3" validate:"min=1,max=10"`
		Rate       float64 `env:"PLATFORM_RATE,default=25" validate:"gt=0"`
		Burst      int     `env:"PLATFORM_BURST,default=5" validate:"min=1"`
	}

	Resolver struct {
		Enabled     bool   `env:"RESOLVER_ENABLED,default=false"`
		APIID       int    `env:"API_ID" validate:"required_if=Enabled true"`
		APIHash     string `env:"API_HASH" validate:"required_if=Enabled true"`
		SessionFile string `env:"RESOLVER_SESSION,default=resolver.session"`
		CacheSize   int    `env:"RESOLVER_CACHE_SIZE,default=1048576" validate:"min=524288"`
	}

	Metrics struct {
		Addr string `env:"METRICS_ADDR,default=:2112"`
	}
)

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

var (
	once         sync.Once
	globalConfig = &Config{}
	globalErr    error
)

// Load reads the configuration once per process. Outside production a .env
// file in the working directory is merged into the environment first.
func Load() (Config, error) {
	once.Do(func() {
		if !strings.EqualFold(os.Getenv(envPrefix+"ENV"), "production") {
			if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
				log.WithError(err).Warn("cant read .env file")
			}
		}
		cfg, err := loadFrom(context.Background(), envconfig.OsLookuper())
		if err != nil {
			globalErr = err
			return
		}
		log.Traceln("loaded config")
		globalConfig = cfg
	})
	return *globalConfig, globalErr
}

func Get() Config {
	cfg, err := Load()
	if err != nil {
		log.WithField("error", err.Error()).Error("cant load config")
	}
	return cfg
}

func loadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	cfg := &Config{}
	envcfg := envconfig.Config{
		Lookuper: envconfig.PrefixLookuper(envPrefix, lookuper),
		Target:   cfg,
	}
	if err := envconfig.ProcessWith(ctx, &envcfg); err != nil {
		return nil, fmt.Errorf("process env config: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	dotPath, err := homedir.Expand(cfg.DotPath)
	if err != nil {
		return nil, fmt.Errorf("expand dot path: %w", err)
	}
	cfg.DotPath = dotPath
	return cfg, nil
}
