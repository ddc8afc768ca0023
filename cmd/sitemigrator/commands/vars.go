package commands

import (
	"strconv"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitemigrator/internal/notify"
	"git.home.luguber.info/inful/sitemigrator/internal/version"
)

const defaultNATSRetries = 2

// Vars are the interpolation variables the CLI struct tags reference.
func Vars() kong.Vars {
	return kong.Vars{
		"version":      version.String(),
		"nats_subject": notify.DefaultSubject,
		"nats_retries": strconv.Itoa(defaultNATSRetries),
	}
}

// Options returns the kong options shared by main and tests.
func Options() []kong.Option {
	return []kong.Option{
		kong.Name("sitemigrator"),
		kong.Description("Migrate sites built with other static-site generators to Jekyll."),
		kong.UsageOnError(),
		Vars(),
	}
}
