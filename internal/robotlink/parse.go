package robotlink

import "strings"

const (
	LineTypeAck      = "ack"
	LineTypeError    = "error"
	LineTypePosition = "position"
	LineTypeStatus   = "status"
	LineTypeUnknown  = "unknown"
)

// ClassifyLine inspects a line from the controller and returns a simple
// line type token. The classification is intentionally conservative and
// mirrors the prefixes the firmware actually emits.
func ClassifyLine(line string) string {
	if strings.HasPrefix(line, "ACK") {
		return LineTypeAck
	}
	if strings.HasPrefix(line, "ERR") {
		return LineTypeError
	}
	if strings.HasPrefix(line, "POS") {
		return LineTypePosition
	}
	if strings.HasPrefix(line, "{") {
		return LineTypeStatus
	}
	return LineTypeUnknown
}
