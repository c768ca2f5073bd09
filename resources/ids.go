// Package resources holds the opaque identifier and payload-value types the
// gateway and REST core pass through without interpreting, per the core's
// explicit non-goal of owning the full domain schema.
package resources

import (
	"fmt"
	"strconv"

	json "github.com/goccy/go-json"
)

// Snowflake identifies a server, channel, user, or message. The core never
// inspects its bits; it only round-trips the value between the wire and the
// caller. Wire representation is a JSON string, matching how every
// documented chat-platform API avoids float64 precision loss on 64-bit IDs.
type Snowflake uint64

// ParseSnowflake parses a decimal identifier as received from the wire.
func ParseSnowflake(s string) (Snowflake, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("resources: parse snowflake %q: %w", s, err)
	}

	return Snowflake(n), nil
}

func (s Snowflake) String() string {
	return strconv.FormatUint(uint64(s), 10)
}

func (s Snowflake) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Snowflake) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("resources: unmarshal snowflake: %w", err)
	}

	parsed, err := ParseSnowflake(str)
	if err != nil {
		return err
	}

	*s = parsed

	return nil
}
