package game

import (
	"math"
	"strings"

	"github.com/spf13/cast"
)

// ParseMessage coerces a submitted message to an integer in [MinMessage, MaxMessage].
// Numbers and numeric strings are accepted; anything else reports false.
func ParseMessage(raw any) (int, bool) {
	switch v := raw.(type) {
	case nil, bool:
		return 0, false
	case string:
		raw = strings.TrimSpace(v)
	}

	f, err := cast.ToFloat64E(raw)
	if err != nil || math.IsNaN(f) || f != math.Trunc(f) {
		return 0, false
	}
	if f < MinMessage || f > MaxMessage {
		return 0, false
	}
	return int(f), true
}
