// Package gpio reads the away and holiday switches.
// The real implementation uses the Linux GPIO character device.
// The fake implementation replays scripted samples for tests.
package gpio

// Reader reads the switch inputs.
type Reader interface {
	// Read returns whether the away and holiday switches are closed.
	// The switches pull their line to ground, so a raw 0 reads as on.
	Read() (away, holiday bool, err error)

	// Close releases GPIO resources.
	Close() error
}

// Default pins (BCM numbering).
const (
	DefaultPinAway    = 17
	DefaultPinHoliday = 27
)
