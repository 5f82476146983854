package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyFile       = "file"
	KeyTarget     = "target"
	KeyMember     = "member"
	KeyIndex      = "index"
	KeyLabel      = "label"
	KeyKind       = "kind"
	KeyStage      = "stage"
	KeyPath       = "path"
	KeyFormat     = "format"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func File(p string) slog.Attr         { return slog.String(KeyFile, p) }
func Target(t string) slog.Attr       { return slog.String(KeyTarget, t) }
func Member(m string) slog.Attr       { return slog.String(KeyMember, m) }
func Index(i int) slog.Attr           { return slog.Int(KeyIndex, i) }
func Label(l string) slog.Attr        { return slog.String(KeyLabel, l) }
func Kind(k string) slog.Attr         { return slog.String(KeyKind, k) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Format(f string) slog.Attr       { return slog.String(KeyFormat, f) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
