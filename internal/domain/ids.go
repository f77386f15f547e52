package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ID is the canonical integer identifier used for every record and for
// references to bot tokens. Older documents (and some HTTP clients) carry ids
// as numeric strings, so decoding accepts both 5 and "5"; encoding always
// writes a JSON number.
type ID int64

// ParseID parses a decimal id, tolerating surrounding whitespace.
func ParseID(s string) (ID, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", s, err)
	}
	return ID(n), nil
}

// String implements fmt.Stringer.
func (id ID) String() string { return strconv.FormatInt(int64(id), 10) }

// Ptr returns a pointer to a copy of id.
func (id ID) Ptr() *ID { return &id }

// UnmarshalJSON accepts a JSON number or a numeric string. null and "" leave
// id unchanged, as documents written by older versions may carry them.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			return nil
		}
		v, err := ParseID(s)
		if err != nil {
			return err
		}
		*id = v
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	v, err := ParseID(n.String())
	if err != nil {
		// Fractional numbers are not valid ids.
		f, ferr := n.Float64()
		if ferr != nil || f != float64(int64(f)) {
			return err
		}
		v = ID(int64(f))
	}
	*id = v
	return nil
}

// SameID reports whether a and b reference the same record. A nil pointer
// never matches.
func SameID(a *ID, b ID) bool { return a != nil && *a == b }

// ChatID is a Telegram chat identifier kept as a string, because group and
// channel ids are large negative numbers that must survive JSON round trips
// in any client. Decoding accepts a number or a string.
type ChatID string

// String implements fmt.Stringer.
func (c ChatID) String() string { return string(c) }

// Key is the id with surrounding whitespace removed. Chats are matched and
// indexed by it.
func (c ChatID) Key() ChatID { return ChatID(strings.TrimSpace(string(c))) }

// Int64 parses the id as a Telegram numeric chat id.
func (c ChatID) Int64() (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(string(c)), 10, 64)
}

// UnmarshalJSON accepts a JSON string or number.
func (c *ChatID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*c = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = ChatID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*c = ChatID(n.String())
	return nil
}
