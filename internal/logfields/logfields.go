package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyStage      = "stage"
	KeyFocus      = "focus"
	KeyLevel      = "level"
	KeyProject    = "project"
	KeyPath       = "path"
	KeyDurationMS = "duration_ms"
	KeyStatus     = "status"
	KeyDocument   = "document"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Focus(f string) slog.Attr        { return slog.String(KeyFocus, f) }
func Level(l int) slog.Attr           { return slog.Int(KeyLevel, l) }
func Project(name string) slog.Attr   { return slog.String(KeyProject, name) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Status(s string) slog.Attr       { return slog.String(KeyStatus, s) }
func Document(name string) slog.Attr  { return slog.String(KeyDocument, name) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
