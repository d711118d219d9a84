//go:build linux

package gpio

import (
	"errors"
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealReader reads the switches from gpiochip0.
type RealReader struct {
	chip    *gpiocdev.Chip
	away    *gpiocdev.Line
	holiday *gpiocdev.Line
}

// NewRealReader requests the away and holiday lines as inputs with pull-ups.
func NewRealReader(pinAway, pinHoliday int) (*RealReader, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	away, err := chip.RequestLine(pinAway, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request away pin %d: %w", pinAway, err)
	}

	holiday, err := chip.RequestLine(pinHoliday, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		away.Close()
		chip.Close()
		return nil, fmt.Errorf("request holiday pin %d: %w", pinHoliday, err)
	}

	return &RealReader{chip: chip, away: away, holiday: holiday}, nil
}

// Read returns the switch states. A line held low means the switch is on.
func (r *RealReader) Read() (bool, bool, error) {
	awayRaw, err := r.away.Value()
	if err != nil {
		return false, false, fmt.Errorf("read away pin: %w", err)
	}
	holidayRaw, err := r.holiday.Value()
	if err != nil {
		return false, false, fmt.Errorf("read holiday pin: %w", err)
	}
	return awayRaw == 0, holidayRaw == 0, nil
}

// Close returns the lines to pulled-down inputs, the Pi boot default, and
// releases them.
func (r *RealReader) Close() error {
	var errs []error
	for name, line := range map[string]*gpiocdev.Line{"away": r.away, "holiday": r.holiday} {
		if line == nil {
			continue
		}
		if err := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure %s pin: %w", name, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s pin: %w", name, err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	return errors.Join(errs...)
}
