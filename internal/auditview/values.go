package auditview

import (
	"fmt"
	"time"

	"github.com/togglr/togglr-admin/internal/api"
)

// MaxValueLength is the length above which snapshot values are truncated
const MaxValueLength = 100

// Side selects the old or new snapshot of a log
type Side string

const (
	SideOld Side = "old"
	SideNew Side = "new"
)

type valueKey struct {
	id   api.ID
	side Side
}

// ToggleValue expands or collapses one snapshot value
func (v *Viewer) ToggleValue(id api.ID, side Side) {
	v.mu.Lock()
	key := valueKey{id: id, side: side}
	if v.values[key] {
		delete(v.values, key)
	} else {
		v.values[key] = true
	}
	v.mu.Unlock()
	v.changed()
}

// Value returns the snapshot text to display and whether it is truncated
func (v *Viewer) Value(log api.AuditLog, side Side) (string, bool) {
	text := string(log.OldValues)
	if side == SideNew {
		text = string(log.NewValues)
	}

	v.mu.Lock()
	expanded := v.values[valueKey{id: log.ID, side: side}]
	v.mu.Unlock()

	if expanded {
		return text, false
	}
	return Truncate(text, MaxValueLength)
}

// Truncate cuts s to max runes followed by "..."
func Truncate(s string, max int) (string, bool) {
	r := []rune(s)
	if len(r) <= max {
		return s, false
	}
	return string(r[:max]) + "...", true
}

// TimeAgo renders t relative to now
func TimeAgo(t, now time.Time) string {
	minutes := int(now.Sub(t) / time.Minute)
	switch {
	case minutes < 1:
		return "Just now"
	case minutes < 60:
		return fmt.Sprintf("%dm ago", minutes)
	case minutes < 1440:
		return fmt.Sprintf("%dh ago", minutes/60)
	default:
		return fmt.Sprintf("%dd ago", minutes/1440)
	}
}

// Ago renders t relative to the viewer's clock
func (v *Viewer) Ago(t time.Time) string {
	return TimeAgo(t, v.opts.Clock.Now())
}
