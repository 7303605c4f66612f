package records

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Timestamp decodes the timestamp shapes found in stored documents: RFC 3339
// strings, bare dates and epoch milliseconds. Anything else, including an
// empty string or null, decodes to the zero time so Normalize can fill it.
type Timestamp time.Time

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	*t = Timestamp{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] == 'n' {
		return nil
	}
	if b[0] != '"' {
		if ms, err := strconv.ParseFloat(string(b), 64); err == nil {
			*t = Timestamp(time.UnixMilli(int64(ms)).UTC())
		}
		return nil
	}
	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		return nil
	}
	v = strings.TrimSpace(v)
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, v); err == nil {
			*t = Timestamp(parsed)
			return nil
		}
	}
	return nil
}

// Text decodes a string field that older documents may hold as a number or
// a bool. Objects, arrays and null decode to "".
type Text string

func (x *Text) UnmarshalJSON(b []byte) error {
	*x = ""
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil
	}
	switch b[0] {
	case '"':
		var v string
		if err := json.Unmarshal(b, &v); err == nil {
			*x = Text(v)
		}
	case 't', 'f':
		*x = Text(b)
	case '{', '[', 'n':
	default:
		*x = Text(b)
	}
	return nil
}
