package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Normalize canonicalizes enumerations and paths in place and returns a
// warning for every value it had to replace.
func Normalize(c *Config) []string {
	var warnings []string
	if raw := string(c.Logging.Level); strings.TrimSpace(raw) != "" {
		if lvl, ok := logLevelNormalizer.Lookup(raw); ok {
			c.Logging.Level = lvl
		} else {
			warnings = append(warnings, unknown("logging.level", raw, logLevelNormalizer.Default()))
			c.Logging.Level = logLevelNormalizer.Default()
		}
	}
	if raw := string(c.Logging.Format); strings.TrimSpace(raw) != "" {
		if f, ok := logFormatNormalizer.Lookup(raw); ok {
			c.Logging.Format = f
		} else {
			warnings = append(warnings, unknown("logging.format", raw, logFormatNormalizer.Default()))
			c.Logging.Format = logFormatNormalizer.Default()
		}
	}

	for _, p := range []*string{&c.Migration.Source, &c.Migration.Dest, &c.Journal.Path, &c.Metrics.Textfile, &c.Report.JSON} {
		*p = cleanPath(*p)
	}
	c.Migration.Engine = strings.TrimSpace(c.Migration.Engine)
	c.Notify.NATSURL = strings.TrimSpace(c.Notify.NATSURL)
	c.Notify.Subject = strings.TrimSpace(c.Notify.Subject)
	return warnings
}

func cleanPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	return filepath.Clean(p)
}

func unknown(field, raw string, fallback any) string {
	return fmt.Sprintf("%s: unknown value %q, using %q", field, raw, fallback)
}
