package timezone

import (
	"fmt"
	"strings"
	"time"
)

// DefaultOffsetMinutes is the IST offset (+05:30) applied when no override is configured.
const DefaultOffsetMinutes = 330

// NotSetSentinel is returned by Format for absent timestamps.
const NotSetSentinel = "Not set"

// InputLayout matches the value emitted by datetime-local pickers.
const InputLayout = "2006-01-02T15:04"

// displayLayout renders instants for human consumption (day-first, 24h clock).
const displayLayout = "2 Jan 2006, 15:04:05"

// Civil holds calendar fields without an attached timezone. It is ambiguous
// until interpreted against a fixed offset.
type Civil struct {
	Year   int
	Month  time.Month
	Day    int
	Hour   int
	Minute int
}

// Delta describes the distance between an instant and a reference time.
type Delta struct {
	Millis   int64
	IsFuture bool
	Human    string
}

// Converter interprets civil date-times against one fixed UTC offset.
// The zero value is not usable; construct with New or Default.
type Converter struct {
	loc *time.Location
}

// New builds a converter for the given offset east of UTC, in minutes.
func New(offsetMinutes int) Converter {
	sign := "+"
	minutes := offsetMinutes
	if minutes < 0 {
		sign = "-"
		minutes = -minutes
	}
	name := fmt.Sprintf("UTC%s%02d:%02d", sign, minutes/60, minutes%60)
	return Converter{loc: time.FixedZone(name, offsetMinutes*60)}
}

// Default returns the IST (+05:30) converter.
func Default() Converter {
	return New(DefaultOffsetMinutes)
}

// Location exposes the fixed-offset location for callers that format directly.
func (c Converter) Location() *time.Location {
	return c.loc
}

// ToInstant interprets the civil fields as wall-clock time in the fixed zone
// and returns the resulting absolute instant. Seconds and nanoseconds are zero.
func (c Converter) ToInstant(civil Civil) time.Time {
	return time.Date(civil.Year, civil.Month, civil.Day, civil.Hour, civil.Minute, 0, 0, c.loc)
}

// CivilOf decomposes an instant into civil fields in the fixed zone.
// It inverts ToInstant: CivilOf(ToInstant(d)) == d for any valid d.
func (c Converter) CivilOf(t time.Time) Civil {
	local := t.In(c.loc)
	return Civil{
		Year:   local.Year(),
		Month:  local.Month(),
		Day:    local.Day(),
		Hour:   local.Hour(),
		Minute: local.Minute(),
	}
}

// ParseInput parses a datetime-local string ("2006-01-02T15:04", optionally
// with seconds) into civil fields. The string carries no offset; the caller
// decides which converter interprets it.
func ParseInput(value string) (Civil, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return Civil{}, fmt.Errorf("parse input time: empty value")
	}
	parsed, err := time.Parse(InputLayout, trimmed)
	if err != nil {
		parsed, err = time.Parse(InputLayout+":05", trimmed)
		if err != nil {
			return Civil{}, fmt.Errorf("parse input time %q: %w", trimmed, err)
		}
	}
	return Civil{
		Year:   parsed.Year(),
		Month:  parsed.Month(),
		Day:    parsed.Day(),
		Hour:   parsed.Hour(),
		Minute: parsed.Minute(),
	}, nil
}

// InputValue renders an instant as a datetime-local string in the fixed zone,
// usable as the lower bound of a date/time picker.
func (c Converter) InputValue(t time.Time) string {
	return t.In(c.loc).Format(InputLayout)
}

// MinimumInput returns the current time as civil fields in the fixed zone.
func (c Converter) MinimumInput() Civil {
	return c.CivilOf(time.Now())
}

// MinimumInputString returns the current time formatted for a datetime-local widget.
func (c Converter) MinimumInputString() string {
	return c.InputValue(time.Now())
}

// Now returns the current instant formatted for display in the fixed zone.
func (c Converter) Now() string {
	return c.FormatTime(time.Now())
}

// Format renders an instant for display, or the "Not set" sentinel when absent.
func (c Converter) Format(t *time.Time) string {
	if t == nil || t.IsZero() {
		return NotSetSentinel
	}
	return c.FormatTime(*t)
}

// FormatTime renders a non-absent instant for display in the fixed zone.
func (c Converter) FormatTime(t time.Time) string {
	return t.In(c.loc).Format(displayLayout)
}

// DeltaFromNow reports how far target lies from the current time.
func (c Converter) DeltaFromNow(target time.Time) Delta {
	return DeltaBetween(time.Now(), target)
}

// DeltaBetween reports how far target lies from now. Offsets do not matter
// here; the computation is on absolute instants.
func DeltaBetween(now, target time.Time) Delta {
	diff := target.Sub(now)
	return Delta{
		Millis:   diff.Milliseconds(),
		IsFuture: diff > 0,
		Human:    humanizeDelta(diff),
	}
}

// humanizeDelta renders the largest two units among days/hours/minutes.
// Sub-minute deltas collapse to "Now".
func humanizeDelta(diff time.Duration) string {
	if diff < 0 {
		diff = -diff
	}
	minutes := int64(diff / time.Minute)
	hours := minutes / 60
	days := hours / 24

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours%24)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes%60)
	case minutes > 0:
		return fmt.Sprintf("%dm", minutes)
	default:
		return "Now"
	}
}
