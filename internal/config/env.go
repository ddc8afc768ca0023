package config

import (
	"log/slog"
	"path/filepath"

	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/sitemigrator/internal/fsutil"
	"git.home.luguber.info/inful/sitemigrator/internal/logfields"
)

// envFiles are read in order before the configuration is expanded.
// Variables already set in the process environment are never overridden.
var envFiles = []string{".env", ".env.local"}

// loadEnvFiles loads the .env files found in dir and returns the ones read.
func loadEnvFiles(dir string) []string {
	var loaded []string
	for _, name := range envFiles {
		p := filepath.Join(dir, name)
		if !fsutil.IsFile(p) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			slog.Warn("ignoring unreadable env file", logfields.Path(p), logfields.Error(err))
			continue
		}
		loaded = append(loaded, p)
	}
	return loaded
}
