package logic

import (
	"errors"
	"testing"
	"time"
)

type fakeLookup struct {
	sp      int8
	spErr   error
	next    time.Time
	nextErr error
	vac     int8
}

func (f fakeLookup) SetPointFor(time.Time) (int8, error) { return f.sp, f.spErr }

func (f fakeLookup) NextSetPointChange(time.Time) (time.Time, error) { return f.next, f.nextErr }

func (f fakeLookup) VacationTemperature() int8 { return f.vac }

func TestResolveSchedule(t *testing.T) {
	next := t0.Add(2 * time.Hour)
	r, err := Resolve(fakeLookup{sp: 68, next: next, vac: 50}, t0, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.Valid || r.SetPoint != 68 || !r.NextChange.Equal(next) {
		t.Errorf("got %+v", r)
	}
}

func TestResolveAway(t *testing.T) {
	r, err := Resolve(fakeLookup{sp: 68, vac: 50, spErr: errors.New("unused")}, t0, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.Valid || r.SetPoint != 50 || !r.NextChange.IsZero() {
		t.Errorf("got %+v", r)
	}
}

func TestResolveNoSetPoint(t *testing.T) {
	missing := errors.New("no set point")
	r, err := Resolve(fakeLookup{spErr: missing}, t0, false)
	if !errors.Is(err, missing) {
		t.Errorf("expected lookup error, got %v", err)
	}
	if r.Valid {
		t.Error("reading should be invalid")
	}
}

func TestResolveNoNextChange(t *testing.T) {
	r, err := Resolve(fakeLookup{sp: 68, nextErr: errors.New("none")}, t0, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.Valid || !r.NextChange.IsZero() {
		t.Errorf("got %+v", r)
	}
}
