// Package units provides shared constants and validation for length units
package units

// Unit constants
const (
	Metres      = "m"
	Centimetres = "cm"
	Millimetres = "mm"
	Feet        = "ft"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{Metres, Centimetres, Millimetres, Feet}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "m, cm, mm, ft"
}

// ConvertLength converts a length from metres to the target units
// Database stores lengths in metres
func ConvertLength(lengthM float64, targetUnits string) float64 {
	switch targetUnits {
	case Metres:
		return lengthM
	case Centimetres:
		return lengthM * 100
	case Millimetres:
		return lengthM * 1000
	case Feet:
		return lengthM * 3.2808398950131
	default:
		return lengthM
	}
}

// ConvertArea converts an area from square metres to the target units squared
func ConvertArea(areaM2 float64, targetUnits string) float64 {
	factor := ConvertLength(1, targetUnits)
	return areaM2 * factor * factor
}
