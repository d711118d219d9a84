package logic

import "time"

// Lookup answers schedule questions. *schedule.Manager implements it.
type Lookup interface {
	SetPointFor(t time.Time) (int8, error)
	NextSetPointChange(t time.Time) (time.Time, error)
	VacationTemperature() int8
}

// Resolve returns the effective reading at now.
//
// When away is set the vacation set point of the active season applies
// until the switch is released, so there is no next change. Otherwise the
// schedule is consulted. A failed set point lookup yields an invalid reading
// and the error; a failed next change lookup only leaves NextChange zero.
func Resolve(l Lookup, now time.Time, away bool) (Reading, error) {
	if away {
		return Reading{SetPoint: l.VacationTemperature(), Valid: true}, nil
	}

	sp, err := l.SetPointFor(now)
	if err != nil {
		return Reading{}, err
	}
	r := Reading{SetPoint: sp, Valid: true}
	if next, err := l.NextSetPointChange(now); err == nil {
		r.NextChange = next
	}
	return r, nil
}
