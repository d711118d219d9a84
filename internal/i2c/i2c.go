// Package i2c provides I2C buses that satisfy tinygo.org/x/drivers.I2C, so
// the TinyGo device drivers can run on a Linux host.
// The real implementation uses the Linux i2c-dev interface.
// The fake implementation emulates register-pointer devices for tests.
package i2c

import "tinygo.org/x/drivers"

// DefaultBus is the i2c-dev node of the Raspberry Pi header bus.
const DefaultBus = "/dev/i2c-1"

var (
	_ drivers.I2C = (*Bus)(nil)
	_ drivers.I2C = (*FakeBus)(nil)
)
