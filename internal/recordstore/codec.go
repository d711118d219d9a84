package recordstore

import (
	"bytes"
	"fmt"

	"github.com/sweeney/setpoint-scheduler/internal/profile"
)

const (
	offID      = 0
	offSize    = 1
	offName    = 2
	offEntries = offName + profile.MaxNameSize
)

// encode returns the record bytes for p. Only the used part of the record
// is returned; bytes past the last entry are left alone on the store.
func encode(p *profile.Profile) []byte {
	buf := make([]byte, offEntries, RecordSize)
	buf[offID] = byte(p.ID())
	buf[offSize] = byte(p.Len())
	copy(buf[offName:offEntries-1], p.Name())

	for _, e := range p.Entries() {
		buf = append(buf, e.Slot, byte(e.SetPoint))
	}
	return buf
}

// decode fills p from a full record.
func decode(rec []byte, p *profile.Profile) error {
	id := int8(rec[offID])
	size := int(rec[offSize])

	p.Reset(id)

	name := rec[offName:offEntries]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	p.SetName(string(name))

	if size > profile.MaxEntries {
		return fmt.Errorf("%w: profile %d has %d entries", ErrCorrupt, id, size)
	}

	for i := 0; i < size; i++ {
		off := offEntries + 2*i
		slot, setPoint := rec[off], int8(rec[off+1])
		if _, err := p.Add(int(slot), setPoint); err != nil {
			return fmt.Errorf("%w: profile %d entry %d: %v", ErrCorrupt, id, i, err)
		}
	}
	return nil
}
