package config

import (
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/sitemigrator/internal/foundation/errors"
)

// Validate checks cross-field constraints after normalization.
func Validate(c *Config) error {
	m := c.Migration
	if m.Source != "" && m.Dest != "" {
		if err := ValidatePaths(m.Source, m.Dest, m.Clean); err != nil {
			return err
		}
	}
	if c.Notify.Subject != "" && c.Notify.NATSURL == "" {
		return errors.ValidationError("notify.subject requires notify.nats_url").Build()
	}
	if c.Notify.Retries < 0 {
		return errors.ValidationError("notify.retries cannot be negative").Build()
	}
	if c.Notify.NATSURL != "" && !strings.Contains(c.Notify.NATSURL, "://") {
		return errors.ValidationError("notify.nats_url must be a URL").WithContext("nats_url", c.Notify.NATSURL).Build()
	}
	return nil
}

// ValidatePaths rejects a destination equal to the source, and a clean
// destination that contains the source.
func ValidatePaths(source, dest string, clean bool) error {
	src, err := filepath.Abs(source)
	if err != nil {
		return errors.ValidationError("invalid source path").WithCause(err).WithPath(source).Build()
	}
	dst, err := filepath.Abs(dest)
	if err != nil {
		return errors.ValidationError("invalid destination path").WithCause(err).WithPath(dest).Build()
	}
	if src == dst {
		return errors.ValidationError("source and destination must differ").WithPath(source).Build()
	}
	if clean && isWithin(src, dst) {
		return errors.ValidationError("cleaning the destination would remove the source").
			WithContext("source", source).
			WithContext("dest", dest).
			Build()
	}
	return nil
}

// isWithin reports whether path equals dir or lies below it.
func isWithin(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
