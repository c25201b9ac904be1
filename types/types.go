package types

// ------------------------
// Temperature & humidity
// ------------------------

// Values travel the bus in deci-units (tenths), matching the sensor's native
// resolution, so MCU builds never format floats.

type TemperatureValue struct {
	// Tenths of °C (e.g. 261 => 26.1°C).
	DeciC int32 `json:"deci_c"`
	TsMs  int64 `json:"ts_ms"` // producer timestamp (Unix ms)
}

type HumidityValue struct {
	// Tenths of %RH (e.g. 650 => 65.0%).
	DeciRH int32 `json:"deci_rh"`
	TsMs   int64 `json:"ts_ms"`
}

// ReadFailure reports one failed read cycle.
type ReadFailure struct {
	Code string `json:"code"` // errcode short code
	TsMs int64  `json:"ts_ms"`
}

// ------------------------
// Network link state
// ------------------------

// Link is the state reported for the background network stack.
type Link string

const (
	LinkUp   Link = "up"
	LinkDown Link = "down"
)

type LinkStatus struct {
	Link Link  `json:"link"`
	TsMs int64 `json:"ts_ms"`
}
