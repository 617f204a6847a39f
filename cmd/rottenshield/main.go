package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "rottenshield",
	Short:         "Telegram group guard: media cooldowns, Premium check and moderation commands.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(runCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.WithError(err).Errorln("exiting")
		os.Exit(1)
	}
}
