package order

// TimeInForce governs how long an order remains eligible for
// execution. The three facets below are pure functions of the value;
// nothing is stored alongside it.
type TimeInForce string

const (
	// Day — active until the end of the trading day
	Day TimeInForce = "DAY"
	// GTC — active until explicitly cancelled
	GTC TimeInForce = "GTC"
	// IOC — execute what is immediately possible, cancel the rest
	IOC TimeInForce = "IOC"
	// FOK — execute completely and immediately or cancel entirely
	FOK TimeInForce = "FOK"
	// GTD — active until a caller-supplied expiry
	GTD TimeInForce = "GTD"
)

func (t TimeInForce) Valid() bool {
	switch t {
	case Day, GTC, IOC, FOK, GTD:
		return true
	}
	return false
}

// RequiresExpirationDate is true only for GTD.
func (t TimeInForce) RequiresExpirationDate() bool { return t == GTD }

// AllowsPartialFills is true for the resting policies; immediate
// policies either cancel the remainder (IOC) or demand a complete fill
// (FOK), so no partial ever rests.
func (t TimeInForce) AllowsPartialFills() bool {
	return t == Day || t == GTC || t == GTD
}

// IsImmediate is true for IOC and FOK.
func (t TimeInForce) IsImmediate() bool { return t == IOC || t == FOK }

func (t TimeInForce) Description() string {
	switch t {
	case Day:
		return "active until the end of the trading day"
	case GTC:
		return "active until cancelled"
	case IOC:
		return "immediate execution, remainder cancelled"
	case FOK:
		return "complete immediate execution or full cancel"
	case GTD:
		return "active until the given date"
	}
	return "unknown"
}
