// Command setpoint-scheduler looks up the heating set point from a weekly
// schedule kept in EEPROM and publishes set point changes to MQTT.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/sweeney/setpoint-scheduler/internal/gpio"
	"github.com/sweeney/setpoint-scheduler/internal/mqtt"
	"github.com/sweeney/setpoint-scheduler/internal/recordstore"
	"github.com/sweeney/setpoint-scheduler/internal/schedule"
	"github.com/sweeney/setpoint-scheduler/internal/seed"
	"github.com/sweeney/setpoint-scheduler/internal/status"
	"github.com/sweeney/setpoint-scheduler/internal/web"
)

type config struct {
	store        string
	storePath    string
	eepromSize   int
	i2cBus       string
	rtc          string
	rtcSync      bool
	tz           string
	amBegin      int
	profileBase  int
	profileCount int
	tableAddr    int
	poll         time.Duration
	debounce     time.Duration
	broker       string
	heartbeat    time.Duration
	pinAway      int
	pinHoliday   int
	httpAddr     string
	importPath   string
	dump         bool
	format       bool
	logLevel     string
}

func main() {
	var cfg config
	flag.StringVar(&cfg.store, "store", "file", "Schedule store: memory, file, sqlite or at24")
	flag.StringVar(&cfg.storePath, "store-path", "/var/lib/setpoint-scheduler/eeprom.img", "Image file or SQLite database for the file and sqlite stores")
	flag.IntVar(&cfg.eepromSize, "eeprom-size", 4096, "Store size in bytes")
	flag.StringVar(&cfg.i2cBus, "i2c-bus", "/dev/i2c-1", "I2C bus for the at24 store and ds1307 clock")
	flag.StringVar(&cfg.rtc, "rtc", "system", "Time source: system or ds1307")
	flag.BoolVar(&cfg.rtcSync, "rtc-sync", false, "Set the DS1307 from the host clock at startup")
	flag.StringVar(&cfg.tz, "tz", "Local", "Time zone the schedule is written in")
	flag.IntVar(&cfg.amBegin, "am-begin", schedule.DefaultAMBegin, "Hour (0-11) at which the schedule day begins")
	flag.IntVar(&cfg.profileBase, "profile-base", 64, "Store address of the first profile record")
	flag.IntVar(&cfg.profileCount, "profile-count", 32, "Number of profile records")
	flag.IntVar(&cfg.tableAddr, "table-addr", 0, "Store address of the schedule table")
	flag.DurationVar(&cfg.poll, "poll", 100*time.Millisecond, "Switch polling interval")
	flag.DurationVar(&cfg.debounce, "debounce", 250*time.Millisecond, "Switch debounce duration")
	flag.StringVar(&cfg.broker, "broker", "tcp://localhost:1883", "MQTT broker address")
	flag.DurationVar(&cfg.heartbeat, "heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	flag.IntVar(&cfg.pinAway, "pin-away", gpio.DefaultPinAway, "BCM pin of the away switch")
	flag.IntVar(&cfg.pinHoliday, "pin-holiday", gpio.DefaultPinHoliday, "BCM pin of the holiday switch")
	flag.StringVar(&cfg.httpAddr, "http", ":80", "HTTP status address (empty to disable)")
	flag.StringVar(&cfg.importPath, "import", "", "Apply a JSON schedule file before starting")
	flag.BoolVar(&cfg.dump, "dump", false, "Print the stored schedule and exit")
	flag.BoolVar(&cfg.format, "format", false, "Erase all profiles and the table before starting")
	flag.StringVar(&cfg.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.Parse()

	if err := setupLogging(cfg.logLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("fatal")
	}
}

func setupLogging(level string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	zerolog.SetGlobalLevel(lvl)
	if isatty.IsTerminal(os.Stderr.Fd()) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	}
	return nil
}

func (c config) validate() error {
	if c.amBegin < 0 || c.amBegin > 11 {
		return fmt.Errorf("-am-begin %d: must be 0..11", c.amBegin)
	}
	if c.profileCount <= 0 {
		return fmt.Errorf("-profile-count %d: must be positive", c.profileCount)
	}
	layout := recordstore.Layout{Base: c.profileBase, Count: c.profileCount}
	tableEnd := c.tableAddr + schedule.TableSize
	if c.tableAddr < c.profileBase+layout.Bytes() && c.profileBase < tableEnd {
		return fmt.Errorf("table at %d overlaps profile records %d..%d", c.tableAddr, c.profileBase, c.profileBase+layout.Bytes())
	}
	if need := max(tableEnd, c.profileBase+layout.Bytes()); need > c.eepromSize {
		return fmt.Errorf("layout needs %d bytes, store has %d", need, c.eepromSize)
	}
	return nil
}

func run(cfg config) error {
	if err := cfg.validate(); err != nil {
		return err
	}
	loc, err := time.LoadLocation(cfg.tz)
	if err != nil {
		return fmt.Errorf("time zone: %w", err)
	}

	hw, err := openHardware(cfg, loc)
	if err != nil {
		return err
	}
	defer hw.Close()

	profiles := recordstore.New(hw.store, recordstore.Layout{Base: cfg.profileBase, Count: cfg.profileCount})
	sched := schedule.New(hw.store, cfg.tableAddr, profiles, schedule.WithAMBegin(cfg.amBegin))
	if err := sched.Load(); err != nil {
		return fmt.Errorf("load schedule: %w", err)
	}

	if cfg.format {
		if err := sched.FormatProfiles(); err != nil {
			return fmt.Errorf("format: %w", err)
		}
		if err := sched.Clear(); err != nil {
			return fmt.Errorf("format: %w", err)
		}
		log.Info().Msg("schedule store formatted")
	}
	if cfg.importPath != "" {
		f, err := seed.LoadFile(cfg.importPath)
		if err != nil {
			return fmt.Errorf("import: %w", err)
		}
		if err := seed.Apply(sched, f); err != nil {
			return fmt.Errorf("import: %w", err)
		}
	}
	if cfg.dump {
		return sched.Dump(os.Stdout)
	}

	reader, err := gpio.NewRealReader(cfg.pinAway, cfg.pinHoliday)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer reader.Close()

	publisher := mqtt.NewRealPublisher(cfg.broker)
	defer publisher.Close()

	now := func() time.Time {
		if t, err := hw.clock.Now(); err == nil {
			return t
		}
		return time.Now().In(loc)
	}

	tracker := status.NewTracker(now(), status.Config{
		PollMs:      cfg.poll.Milliseconds(),
		DebounceMs:  cfg.debounce.Milliseconds(),
		HeartbeatMs: cfg.heartbeat.Milliseconds(),
		Broker:      cfg.broker,
		HTTPAddr:    cfg.httpAddr,
		Store:       cfg.store,
		RTC:         cfg.rtc,
		Location:    loc.String(),
		AMBegin:     sched.AMBegin(),
	})
	tracker.SetClock(now)
	if info := readNetworkInfo(); info != nil {
		tracker.SetNetwork(info)
	}

	snap := tracker.Snapshot()
	startup := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startup); err != nil {
		log.Warn().Err(err).Msg("publish startup event")
	}

	log.Info().
		Str("store", cfg.store).
		Str("rtc", cfg.rtc).
		Stringer("tz", loc).
		Dur("poll", cfg.poll).
		Dur("debounce", cfg.debounce).
		Dur("heartbeat", cfg.heartbeat).
		Str("broker", cfg.broker).
		Msg("started")

	ticker := time.NewTicker(cfg.poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	if cfg.httpAddr != "" {
		ln, err := net.Listen("tcp", cfg.httpAddr)
		if err != nil {
			return fmt.Errorf("http listen: %w", err)
		}
		srv := web.New(cfg.httpAddr, tracker, sched)
		log.Info().Str("addr", ln.Addr().String()).Msg("http status server listening")

		g.Go(func() error {
			if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
			defer done()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		defer cancel()
		return runLoop(ctx, loopDeps{
			reader:     reader,
			publisher:  publisher,
			mqttStatus: publisher,
			tracker:    tracker,
			sched:      sched,
			debounce:   cfg.debounce,
			heartbeat:  cfg.heartbeat,
			now:        hw.clock.Now,
			tick:       ticker.C,
			sig:        sigCh,
		})
	})

	return g.Wait()
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
