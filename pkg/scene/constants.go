package scene

import "math"

// piTimes17Over16 / piTimes31Over16 bound the default wide-angle-corner
// band: pi*(1+1/16) and pi*(2-1/16).
const (
	piTimes17Over16 = math.Pi * (1 + 1.0/16)
	piTimes31Over16 = math.Pi * (2 - 1.0/16)
)
