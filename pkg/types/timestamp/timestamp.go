package timestamp

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"time"
)

type innerTime = time.Time

// Timestamp is a second-precision UTC instant that round-trips through a
// database as an integer Unix time. It embeds the underlying `time.Time`, so
// all its methods are available; note that methods returning "times" still
// return a plain `time.Time`.
type Timestamp struct {
	innerTime
}

var _ driver.Valuer = (*Timestamp)(nil)
var _ sql.Scanner = (*Timestamp)(nil)

func New(t time.Time) Timestamp {
	if t.IsZero() {
		return Timestamp{}
	}
	return Timestamp{innerTime: t.UTC().Truncate(time.Second)}
}

// Now returns the current time as a Timestamp.
func Now() Timestamp {
	return New(time.Now())
}

// Time returns the underlying time.Time.
func (t Timestamp) Time() time.Time {
	return t.innerTime
}

func (t Timestamp) Value() (driver.Value, error) {
	return t.innerTime.Unix(), nil
}

func (t *Timestamp) Scan(src any) error {
	if src == nil {
		*t = Timestamp{}
		return nil
	}
	switch v := src.(type) {
	case int64:
		*t = Timestamp{innerTime: time.Unix(v, 0).UTC()}
	default:
		return fmt.Errorf("unsupported type for timestamp scanning: %T (%v)", v, v)
	}
	return nil
}
