package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyEngine     = "engine"
	KeyStage      = "stage"
	KeyRunID      = "run_id"
	KeyPath       = "path"
	KeySource     = "source"
	KeyDest       = "dest"
	KeyChangeType = "change_type"
	KeyDurationMS = "duration_ms"
	KeyCount      = "count"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Engine(name string) slog.Attr    { return slog.String(KeyEngine, name) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Source(p string) slog.Attr       { return slog.String(KeySource, p) }
func Dest(p string) slog.Attr         { return slog.String(KeyDest, p) }
func ChangeType(t string) slog.Attr   { return slog.String(KeyChangeType, t) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
