package internal

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/setpoint-scheduler/internal/eeprom"
	"github.com/sweeney/setpoint-scheduler/internal/gpio"
	"github.com/sweeney/setpoint-scheduler/internal/logic"
	"github.com/sweeney/setpoint-scheduler/internal/mqtt"
	"github.com/sweeney/setpoint-scheduler/internal/recordstore"
	"github.com/sweeney/setpoint-scheduler/internal/schedule"
	"github.com/sweeney/setpoint-scheduler/internal/seed"
	"github.com/sweeney/setpoint-scheduler/internal/status"
	"github.com/sweeney/setpoint-scheduler/internal/web"
)

const seedDoc = `{
  "clear": true,
  "season": "winter",
  "vacation": {"summer": 85, "winter": 50},
  "profiles": [
    {"id": 1, "name": "workday", "entries": [
      {"time": "00:30", "set_point": 66},
      {"time": "02:00", "set_point": 70}
    ]},
    {"id": 2, "name": "evening", "entries": [
      {"slot": 0, "set_point": 68}
    ]},
    {"id": 7, "name": "holiday", "entries": [
      {"time": "00:00", "set_point": 64}
    ]}
  ],
  "table": [
    {"day": "wednesday", "half": "am", "season": "winter", "profile": 1},
    {"day": "wednesday", "half": "pm", "season": "winter", "profile": 2},
    {"day": "holiday", "half": "am", "season": "winter", "profile": 7}
  ]
}`

// wednesday is 2026-01-07 06:00, the start of the Wednesday AM half.
var wednesday = time.Date(2026, 1, 7, 6, 0, 0, 0, time.UTC)

func openSchedule(t *testing.T, store eeprom.Store) *schedule.Manager {
	t.Helper()
	m := schedule.New(store, 0, recordstore.New(store, recordstore.Layout{Base: 64, Count: 16}))
	if err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return m
}

func seeded(t *testing.T, store eeprom.Store) *schedule.Manager {
	t.Helper()
	f, err := seed.Load(strings.NewReader(seedDoc))
	if err != nil {
		t.Fatalf("seed.Load: %v", err)
	}
	m := openSchedule(t, store)
	if err := seed.Apply(m, f); err != nil {
		t.Fatalf("seed.Apply: %v", err)
	}
	return m
}

// simulate runs the poll loop over samples at interval from start and
// returns the published events.
func simulate(t *testing.T, m *schedule.Manager, samples []gpio.Sample, start time.Time, interval time.Duration) *mqtt.FakePublisher {
	t.Helper()
	reader := gpio.NewFakeReader(samples)
	pub := mqtt.NewFakePublisher()
	detector := logic.NewDetector(250*time.Millisecond, start)

	for i := range samples {
		away, holiday, err := reader.Read()
		if err != nil {
			t.Fatalf("sample %d: %v", i, err)
		}
		now := start.Add(time.Duration(i) * interval)
		switched := detector.Process(logic.Input{Away: away, Holiday: holiday, Time: now})
		if !detector.IsBaselined() {
			continue
		}

		m.SetHoliday(detector.Holiday())
		reading, err := logic.Resolve(m, now, detector.Away())
		if err != nil && !errors.Is(err, schedule.ErrNoSetPoint) {
			t.Fatalf("sample %d: resolve: %v", i, err)
		}
		events := detector.Observe(now, reading)
		for j := range switched {
			switched[j].Reading = reading
		}
		for _, e := range append(switched, events...) {
			if err := pub.Publish(e); err != nil {
				t.Fatalf("sample %d: publish: %v", i, err)
			}
		}
	}
	return pub
}

func hold(s gpio.Sample, n int) []gpio.Sample {
	out := make([]gpio.Sample, n)
	for i := range out {
		out[i] = s
	}
	return out
}

func TestIntegrationFullFlow(t *testing.T) {
	m := seeded(t, eeprom.NewMemory(1024))

	var samples []gpio.Sample
	samples = append(samples, hold(gpio.Sample{}, 4)...)
	samples = append(samples, hold(gpio.Sample{Away: true}, 4)...)
	samples = append(samples, hold(gpio.Sample{}, 4)...)
	samples = append(samples, hold(gpio.Sample{Holiday: true}, 4)...)

	// 06:00 is before the first Wednesday AM entry, so Tuesday PM applies
	// and has no profile.
	start := wednesday.Add(45 * time.Minute)
	pub := simulate(t, m, samples, start, 100*time.Millisecond)

	type want struct {
		typ      logic.EventType
		setPoint int8
	}
	expected := []want{
		{logic.EventSetPoint, 66},
		{logic.EventAwayOn, 50},
		{logic.EventSetPoint, 50},
		{logic.EventAwayOff, 66},
		{logic.EventSetPoint, 66},
		{logic.EventHolidayOn, 64},
		{logic.EventSetPoint, 64},
	}
	if len(pub.Events) != len(expected) {
		t.Fatalf("events: got %v", pub.EventTypes())
	}
	for i, w := range expected {
		e := pub.Events[i]
		if e.Type != w.typ || e.Reading.SetPoint != w.setPoint || !e.Reading.Valid {
			t.Errorf("event %d: got %s %d (valid %v), want %s %d", i, e.Type, e.Reading.SetPoint, e.Reading.Valid, w.typ, w.setPoint)
		}
	}

	var p mqtt.Payload
	if err := json.Unmarshal(pub.Payloads[1], &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.Schedule.Event != "AWAY_ON" || p.Schedule.Away != "ON" || p.Schedule.SetPoint == nil || *p.Schedule.SetPoint != 50 || p.Schedule.NextChange != "" {
		t.Errorf("away payload: %+v", p.Schedule)
	}
}

func TestIntegrationNoSetPointBeforeFirstEntry(t *testing.T) {
	m := seeded(t, eeprom.NewMemory(1024))
	pub := simulate(t, m, hold(gpio.Sample{}, 4), wednesday, 100*time.Millisecond)

	if len(pub.Events) != 1 {
		t.Fatalf("events: got %v", pub.EventTypes())
	}
	if pub.Events[0].Reading.Valid {
		t.Errorf("expected no set point, got %+v", pub.Events[0].Reading)
	}
	if !strings.Contains(string(pub.Payloads[0]), `"set_point":null`) {
		t.Errorf("payload: %s", pub.Payloads[0])
	}
}

func TestIntegrationBounceRejection(t *testing.T) {
	m := seeded(t, eeprom.NewMemory(1024))
	samples := append(hold(gpio.Sample{}, 4),
		gpio.Sample{Away: true}, gpio.Sample{}, gpio.Sample{Away: true}, gpio.Sample{}, gpio.Sample{})
	pub := simulate(t, m, samples, wednesday.Add(time.Hour), 100*time.Millisecond)

	for _, typ := range pub.EventTypes() {
		if typ == logic.EventAwayOn {
			t.Fatalf("bounce produced an event: %v", pub.EventTypes())
		}
	}
}

func TestIntegrationScheduleAcrossHalfDay(t *testing.T) {
	m := seeded(t, eeprom.NewMemory(1024))

	// 17:50 Wednesday to 18:10: AM profile 1 gives 70, PM profile 2 gives 68
	start := wednesday.Add(11*time.Hour + 50*time.Minute)
	pub := simulate(t, m, hold(gpio.Sample{}, 5), start, 5*time.Minute)

	if len(pub.Events) != 2 {
		t.Fatalf("events: got %v", pub.EventTypes())
	}
	first, second := pub.Events[0].Reading, pub.Events[1].Reading
	if first.SetPoint != 70 || !first.NextChange.Equal(wednesday.Add(12*time.Hour)) {
		t.Errorf("before half day: %+v", first)
	}
	if second.SetPoint != 68 {
		t.Errorf("after half day: %+v", second)
	}
}

func TestIntegrationPersistsAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eeprom.img")

	f, err := eeprom.OpenFile(path, 1024)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	seeded(t, f)
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err = eeprom.OpenFile(path, 1024)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer f.Close()
	m := openSchedule(t, f)

	if m.Season() != schedule.Winter {
		t.Errorf("season: got %s", m.Season())
	}
	if v := m.VacationTemperature(); v != 50 {
		t.Errorf("vacation: got %d", v)
	}
	sp, err := m.SetPointFor(wednesday.Add(3 * time.Hour))
	if err != nil || sp != 70 {
		t.Errorf("SetPointFor: got %d, %v", sp, err)
	}
	profiles, err := m.Profiles()
	if err != nil || len(profiles) != 3 {
		t.Fatalf("Profiles: got %d, %v", len(profiles), err)
	}
	if profiles[0].Name() != "workday" {
		t.Errorf("name: got %q", profiles[0].Name())
	}
}

func TestIntegrationStatusPages(t *testing.T) {
	m := seeded(t, eeprom.NewMemory(1024))
	now := wednesday.Add(3 * time.Hour)

	tracker := status.NewTracker(wednesday, status.Config{Broker: "tcp://localhost:1883", Store: "memory"})
	tracker.SetClock(func() time.Time { return now })

	reading, err := logic.Resolve(m, now, false)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	tracker.Update(logic.StateOff, logic.StateOff, true, logic.EventCounts{SetPoint: 1})
	tracker.SetReading(reading, m.Season().String())

	srv := httptest.NewServer(web.New("", tracker, m).Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/index.json")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sj.Status.SetPoint == nil || *sj.Status.SetPoint != 70 || sj.Status.Season != "WINTER" {
		t.Errorf("status: %+v", sj.Status)
	}

	resp2, err := srv.Client().Get(srv.URL + "/schedule.json")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp2.Body.Close()
	var sched web.ScheduleJSON
	if err := json.NewDecoder(resp2.Body).Decode(&sched); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(sched.Schedule.Profiles) != 3 {
		t.Errorf("profiles: got %d", len(sched.Schedule.Profiles))
	}

	shutdown := status.FormatStatusEvent(tracker.Snapshot(), "SHUTDOWN", "SIGTERM")
	for _, want := range []string{`"event":"SHUTDOWN"`, `"reason":"SIGTERM"`, `"set_point":70`, `"season":"WINTER"`} {
		if !strings.Contains(string(shutdown), want) {
			t.Errorf("shutdown payload missing %s: %s", want, shutdown)
		}
	}
}
