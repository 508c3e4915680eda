// Package support holds runtime code copied verbatim into every generated Go
// package. It is compiled here so it can be tested like any other package.
package support

import (
	"encoding/json"
	"time"
)

// Date is a timestamp that keeps the raw text when it cannot be parsed.
type Date struct {
	Time time.Time
	Raw  string
}

var dateLayouts = []string{"2006-01-02T15:04:05-0700", time.RFC3339, "2006-01-02"}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		d.Raw = string(b)
		return nil
	}
	d.Raw = s
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t
			return nil
		}
	}
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) { return json.Marshal(d.String()) }

func (d Date) String() string {
	if d.Raw != "" {
		return d.Raw
	}
	if d.Time.IsZero() {
		return ""
	}
	return d.Time.Format(dateLayouts[0])
}
