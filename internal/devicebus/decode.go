package devicebus

import (
	"encoding/json"
	"strings"
)

// Message is one decoded telemetry payload: a source timestamp plus a
// flat list of tag/value pairs covering one or more devices.
type Message struct {
	Timestamp string     `json:"ts"`
	Data      []TagValue `json:"d"`
}

// TagValue is a single instrument sample. Tag encodes the device code
// and the parameter type, joined by underscores.
type TagValue struct {
	Tag   string   `json:"tag"`
	Value *float64 `json:"value"`
}

// compoundPrefixes are device codes that themselves contain an
// underscore (GS1_NM2, QT2_NM2, ...), so a two-part prefix must be
// consumed before the parameter type starts.
var compoundPrefixes = map[string]bool{
	"GS1": true,
	"GS2": true,
	"QT1": true,
	"QT2": true,
}

// Decode parses a raw broker payload. Frames that are not JSON
// objects, or that carry no data array, are reported as not-a-reading
// rather than as errors: the telemetry topic also carries frames this
// service does not consume.
func Decode(raw []byte) (Message, bool) {
	trimmed := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(trimmed, "{") {
		return Message{}, false
	}

	var msg Message
	if err := json.Unmarshal([]byte(trimmed), &msg); err != nil {
		return Message{}, false
	}
	if len(msg.Data) == 0 {
		return Message{}, false
	}
	return msg, true
}

// ParseTag splits a tag like "G30A_MUCNUOC" into its device code and
// parameter type. Compound device codes ("GS1_NM2_LUULUONG") consume
// two segments. A tag without both halves is rejected.
func ParseTag(tag string) (device, parameterType string, ok bool) {
	parts := strings.Split(tag, "_")
	if len(parts) < 2 {
		return "", "", false
	}

	device = parts[0]
	parameterType = strings.Join(parts[1:], "_")
	if len(parts) > 2 && compoundPrefixes[parts[0]] {
		device = parts[0] + "_" + parts[1]
		parameterType = strings.Join(parts[2:], "_")
	}
	if parameterType == "" {
		return "", "", false
	}
	return device, parameterType, true
}
