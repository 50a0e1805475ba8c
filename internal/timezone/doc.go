// Package timezone converts between civil date-times and absolute instants
// using a fixed UTC offset, independent of the machine's local timezone.
//
// The scheduler treats all user-entered wall-clock times as IST (+05:30, no
// daylight saving). Conversions here construct instants from that fixed offset
// directly; they never consult time.Local. The package also renders
// human-readable deltas ("2d 3h", "45m", "Now") and display timestamps with a
// "Not set" sentinel for absent values.
package timezone
