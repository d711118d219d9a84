package main

import (
	"context"
	"errors"
	"os"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sweeney/setpoint-scheduler/internal/gpio"
	"github.com/sweeney/setpoint-scheduler/internal/logic"
	"github.com/sweeney/setpoint-scheduler/internal/mqtt"
	"github.com/sweeney/setpoint-scheduler/internal/schedule"
	"github.com/sweeney/setpoint-scheduler/internal/status"
)

// resolveEvery bounds how long a set point is reused before the schedule
// is consulted again.
const resolveEvery = time.Minute

// scheduler is the part of *schedule.Manager the loop drives.
type scheduler interface {
	logic.Lookup
	SetHoliday(on bool)
	Season() schedule.Season
}

type loopDeps struct {
	reader     gpio.Reader
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus // may be nil
	tracker    *status.Tracker       // may be nil
	sched      scheduler
	debounce   time.Duration
	heartbeat  time.Duration
	now        func() (time.Time, error)
	tick       <-chan time.Time
	sig        <-chan os.Signal
}

// runLoop polls the switches on every tick and republishes the set point
// when it changes. It returns nil on SIGINT/SIGTERM after publishing
// SHUTDOWN, or when ctx is cancelled.
func runLoop(ctx context.Context, d loopDeps) error {
	var (
		detector    *logic.Detector
		nextResolve time.Time
	)

	publish := func(events []logic.Event) {
		for _, e := range events {
			log.Info().
				Str("event", string(e.Type)).
				Int("set_point", int(e.Reading.SetPoint)).
				Bool("valid", e.Reading.Valid).
				Str("away", string(e.Away)).
				Str("holiday", string(e.Holiday)).
				Msg("event")
			if err := d.publisher.Publish(e); err != nil {
				log.Warn().Err(err).Msg("publish")
			}
		}
	}

	refresh := func() {
		if d.tracker == nil || detector == nil {
			return
		}
		away, holiday := detector.CurrentState()
		d.tracker.Update(away, holiday, detector.IsBaselined(), detector.Counts())
		d.tracker.SetReading(detector.Reading(), d.sched.Season().String())
		if d.mqttStatus != nil {
			d.tracker.SetMQTTConnected(d.mqttStatus.IsConnected())
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case s := <-d.sig:
			reason := "UNKNOWN"
			switch s {
			case syscall.SIGINT:
				reason = "SIGINT"
			case syscall.SIGTERM:
				reason = "SIGTERM"
			}
			log.Info().Str("signal", reason).Msg("shutting down")

			t, err := d.now()
			if err != nil {
				t = time.Now()
			}
			event := mqtt.SystemEvent{Timestamp: t, Event: "SHUTDOWN", Reason: reason, Retained: true}
			if d.tracker != nil {
				refresh()
				event.RawPayload = status.FormatStatusEvent(d.tracker.Snapshot(), "SHUTDOWN", reason)
			}
			if err := d.publisher.PublishSystem(event); err != nil {
				log.Warn().Err(err).Msg("publish shutdown event")
			}
			return nil

		case <-d.tick:
			t, err := d.now()
			if err != nil {
				log.Warn().Err(err).Msg("clock read")
				continue
			}
			if detector == nil {
				detector = logic.NewDetector(d.debounce, t)
			}

			away, holiday, err := d.reader.Read()
			if err != nil {
				log.Warn().Err(err).Msg("gpio read")
				continue
			}

			switched := detector.Process(logic.Input{Away: away, Holiday: holiday, Time: t})
			if !detector.IsBaselined() {
				continue
			}

			if len(switched) > 0 || !t.Before(nextResolve) {
				d.sched.SetHoliday(detector.Holiday())
				reading, err := logic.Resolve(d.sched, t, detector.Away())
				switch {
				case errors.Is(err, schedule.ErrNoSetPoint):
					log.Debug().Err(err).Msg("no set point")
				case err != nil:
					log.Warn().Err(err).Msg("schedule lookup")
				}
				nextResolve = t.Add(resolveEvery)
				if nc := reading.NextChange; !nc.IsZero() && nc.Before(nextResolve) {
					nextResolve = nc
				}

				// Switch events carry the reading they caused
				setPoint := detector.Observe(t, reading)
				for i := range switched {
					switched[i].Reading = reading
				}
				publish(switched)
				publish(setPoint)
			}

			if hb := detector.CheckHeartbeat(t, d.heartbeat); hb != nil {
				log.Info().
					Dur("uptime", hb.Uptime).
					Int("set_point_changes", hb.Counts.SetPoint).
					Msg("heartbeat")
				event := mqtt.SystemEvent{Timestamp: hb.Timestamp, Event: "HEARTBEAT"}
				if d.tracker != nil {
					refresh()
					if info := readNetworkInfo(); info != nil {
						d.tracker.SetNetwork(info)
					}
					event.RawPayload = status.FormatStatusEvent(d.tracker.Snapshot(), "HEARTBEAT", "")
				}
				if err := d.publisher.PublishSystem(event); err != nil {
					log.Warn().Err(err).Msg("publish heartbeat")
				}
			}

			refresh()
		}
	}
}
