package plinkbed

import (
	"fmt"
	"time"
)

// Time reads the index creation time out of a BIM index. The index stores
// unix seconds, but older indexes wrote text timestamps, so both are
// accepted. Derived from
// https://github.com/mattn/go-sqlite3/issues/190#issuecomment-343341834
type Time time.Time

const indexTimeLayout = "2006-01-02 15:04:05"

func (t *Time) Scan(v interface{}) error {
	switch which := v.(type) {
	case int64:
		*t = Time(time.Unix(which, 0))
		return nil
	case int:
		*t = Time(time.Unix(int64(which), 0))
		return nil
	case string:
		return t.parse(which)
	case []byte:
		return t.parse(string(which))
	}

	return fmt.Errorf("No appropriate type could be found to decode %v", v)
}

func (t *Time) parse(s string) error {
	vt, err := time.Parse(indexTimeLayout, s)
	if err != nil {
		return err
	}
	*t = Time(vt)
	return nil
}

func (t Time) String() string {
	return time.Time(t).Format(indexTimeLayout)
}
