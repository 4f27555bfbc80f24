package lifecycle

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Payload encodes the sample as the wire format the backend expects:
// a flat JSON object mapping "channel_N" to the decimal string of the raw
// signed 16-bit reading, for N in 0..3.
//
// Values are strings, not numbers. Earlier firmware revisions published
// strings and the backend's parsers are wedded to that.
func (s *Sample) Payload() ([]byte, error) {
	fields := make(map[string]string, ChannelCount)
	for _, r := range s.Readings {
		key := fmt.Sprintf("channel_%d", r.Channel)
		fields[key] = strconv.Itoa(int(r.Raw))
	}

	payload, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encoding sample payload: %w", err)
	}
	return payload, nil
}
