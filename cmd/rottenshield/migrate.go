package main

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rottengram/rottenshield/internal/config"
	"github.com/rottengram/rottenshield/internal/db/sqlstore"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and exit.",
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.WithMessage(err, "load config")
	}
	closer := config.SetupLogging(cfg)
	defer closer.Close()

	dsn, err := databaseDSN(cfg)
	if err != nil {
		return err
	}
	store, err := sqlstore.Open(cmd.Context(), cfg.Database.Driver, dsn)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.Migrate()
	if err != nil {
		return err
	}
	log.WithField("applied", n).Info("database is up to date")
	return nil
}
