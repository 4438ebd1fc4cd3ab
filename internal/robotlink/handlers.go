package robotlink

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/mural-robotics/wallsweep/internal/events"
)

// CurrentState holds the latest status values received from the controller
// and is intentionally package-level so admin routes or tests can inspect it.
var CurrentState map[string]any

func HandleAck(bus *events.Bus, line string) {
	log.Printf("Ack Line: %+v", line)
	publishTelemetry(bus, line)
}

func HandleControllerError(bus *events.Bus, line string) {
	log.Printf("Error Line: %+v", line)
	publishTelemetry(bus, line)
}

func HandlePosition(bus *events.Bus, line string) error {
	var x, y float64
	if _, err := fmt.Sscanf(line, "POS %f %f", &x, &y); err != nil {
		return fmt.Errorf("malformed position report %q: %v", line, err)
	}

	log.Printf("Position Line: %+v", line)
	publishTelemetry(bus, line)
	return nil
}

func HandleStatus(bus *events.Bus, line string) error {
	var statusValues map[string]any

	if err := json.Unmarshal([]byte(line), &statusValues); err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %v", err)
	}

	// update the current state with the new status values
	if CurrentState == nil {
		CurrentState = make(map[string]any)
	}
	for k, v := range statusValues {
		CurrentState[k] = v
	}

	// log the current line
	log.Printf("Status Line: %+v", line)
	publishTelemetry(bus, line)

	return nil
}

func publishTelemetry(bus *events.Bus, line string) {
	if bus == nil {
		return
	}
	bus.Publish(events.Event{
		Type:    events.TypeRobotTelemetry,
		Message: line,
	})
}

func HandleLine(bus *events.Bus, line string) error {
	switch ClassifyLine(line) {
	case LineTypeAck:
		HandleAck(bus, line)
	case LineTypeError:
		HandleControllerError(bus, line)
	case LineTypePosition:
		if err := HandlePosition(bus, line); err != nil {
			return fmt.Errorf("failed to handle position report: %v", err)
		}
	case LineTypeStatus:
		if err := HandleStatus(bus, line); err != nil {
			return fmt.Errorf("failed to handle status response: %v", err)
		}
	default:
		log.Printf("unknown line type: %s", line)
	}
	return nil
}
