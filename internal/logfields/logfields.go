package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyJobID      = "job_id"
	KeyJobTitle   = "job_title"
	KeyRepo       = "repository"
	KeyOwner      = "owner"
	KeyBranch     = "branch"
	KeyStage      = "stage"
	KeyStatus     = "status"
	KeyDurationMS = "duration_ms"
	KeyDeadline   = "deadline"
	KeyPath       = "path"
	KeyCount      = "count"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func JobID(id string) slog.Attr          { return slog.String(KeyJobID, id) }
func JobTitle(t string) slog.Attr        { return slog.String(KeyJobTitle, t) }
func Repository(r string) slog.Attr      { return slog.String(KeyRepo, r) }
func Owner(o string) slog.Attr           { return slog.String(KeyOwner, o) }
func Branch(b string) slog.Attr          { return slog.String(KeyBranch, b) }
func Stage(name string) slog.Attr        { return slog.String(KeyStage, name) }
func Status(s string) slog.Attr          { return slog.String(KeyStatus, s) }
func Path(p string) slog.Attr            { return slog.String(KeyPath, p) }
func Count(n int) slog.Attr              { return slog.Int(KeyCount, n) }
func Deadline(d time.Duration) slog.Attr { return slog.Duration(KeyDeadline, d) }
func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
