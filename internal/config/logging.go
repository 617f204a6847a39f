package config

import (
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// SetupLogging installs the formatter and level on the standard logrus logger.
// When LogFile is set the output is also written to a size-rotated file.
// The returned closer flushes the file writer and is safe to call when no file is used.
func SetupLogging(cfg Config) io.Closer {
	log.SetFormatter(&NbFormatter{Colors: cfg.LogFile == ""})
	log.SetLevel(log.Level(cfg.LogLevel))

	if cfg.LogFile == "" {
		log.SetOutput(os.Stdout)
		return nopCloser{}
	}

	file := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    50,
		MaxBackups: 5,
		MaxAge:     14,
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stdout, file))
	return file
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
