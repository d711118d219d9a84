package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sweeney/setpoint-scheduler/internal/clock"
	"github.com/sweeney/setpoint-scheduler/internal/eeprom"
	"github.com/sweeney/setpoint-scheduler/internal/i2c"
)

// hardware is the store and clock selected by the flags, plus whatever must
// be closed on exit.
type hardware struct {
	store   eeprom.Store
	clock   clock.Clock
	closers []io.Closer
}

func (h *hardware) Close() error {
	var errs []error
	for i := len(h.closers) - 1; i >= 0; i-- {
		errs = append(errs, h.closers[i].Close())
	}
	return errors.Join(errs...)
}

func openHardware(cfg config, loc *time.Location) (_ *hardware, err error) {
	h := &hardware{}
	defer func() {
		if err != nil {
			h.Close()
		}
	}()

	var bus *i2c.Bus
	openBus := func() (*i2c.Bus, error) {
		if bus != nil {
			return bus, nil
		}
		b, err := i2c.Open(cfg.i2cBus)
		if err != nil {
			return nil, fmt.Errorf("open i2c: %w", err)
		}
		bus = b
		h.closers = append(h.closers, b)
		return b, nil
	}

	switch cfg.store {
	case "memory":
		log.Warn().Msg("memory store: the schedule is lost on exit")
		h.store = eeprom.NewMemory(cfg.eepromSize)
	case "file":
		f, err := eeprom.OpenFile(cfg.storePath, cfg.eepromSize)
		if err != nil {
			return nil, err
		}
		h.store = f
		h.closers = append(h.closers, f)
	case "sqlite":
		s, err := eeprom.OpenSQLite(cfg.storePath, cfg.eepromSize)
		if err != nil {
			return nil, err
		}
		h.store = s
		h.closers = append(h.closers, s)
	case "at24":
		b, err := openBus()
		if err != nil {
			return nil, err
		}
		h.store = eeprom.NewAT24(b, eeprom.DefaultAT24Address, cfg.eepromSize)
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.store)
	}

	switch cfg.rtc {
	case "system":
		h.clock = clock.System{Location: loc}
	case "ds1307":
		b, err := openBus()
		if err != nil {
			return nil, err
		}
		rtc := clock.NewDS1307(b, loc)
		if cfg.rtcSync {
			if err := rtc.Set(time.Now()); err != nil {
				return nil, err
			}
			log.Info().Msg("rtc set from host clock")
		}
		h.clock = rtc
	default:
		return nil, fmt.Errorf("unknown rtc %q", cfg.rtc)
	}

	log.Debug().Str("store", cfg.store).Str("rtc", cfg.rtc).Int("size", h.store.Size()).Msg("hardware ready")
	return h, nil
}
