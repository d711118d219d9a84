package clock

import (
	"fmt"
	"time"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/ds1307"
)

// rtcDevice is the subset of ds1307.Device used here.
type rtcDevice interface {
	ReadTime() (time.Time, error)
	SetTime(t time.Time) error
}

// DS1307 reads the time from a DS1307 RTC.
//
// The chip keeps wall time with no zone. The driver labels it UTC; it is
// reinterpreted here as wall time in Location.
type DS1307 struct {
	dev      rtcDevice
	Location *time.Location
}

// NewDS1307 returns a clock for the DS1307 on bus at its fixed address.
func NewDS1307(bus drivers.I2C, loc *time.Location) *DS1307 {
	dev := ds1307.New(bus)
	if loc == nil {
		loc = time.Local
	}
	return &DS1307{dev: &dev, Location: loc}
}

// Now returns the RTC time.
func (c *DS1307) Now() (time.Time, error) {
	t, err := c.dev.ReadTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("ds1307 read: %w", err)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, c.Location), nil
}

// Set writes t, as wall time in Location, to the RTC.
func (c *DS1307) Set(t time.Time) error {
	t = t.In(c.Location)
	wall := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
	if err := c.dev.SetTime(wall); err != nil {
		return fmt.Errorf("ds1307 write: %w", err)
	}
	return nil
}
