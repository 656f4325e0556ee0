package order

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bisttrading/algowire/pkg/util"
)

// Rule names carried on each violation so callers can react per field
// without parsing messages.
const (
	RuleUserIDFormat    = "USER_ID_FORMAT"
	RuleSymbolFormat    = "SYMBOL_FORMAT"
	RuleMinQuantity     = "MIN_QUANTITY"
	RuleMissingPrice    = "MISSING_PRICE"
	RuleUnexpectedPrice = "UNEXPECTED_PRICE"
	RuleMinPrice        = "MIN_PRICE"
	RuleMissingStop     = "MISSING_STOP_PRICE"
	RuleUnexpectedStop  = "UNEXPECTED_STOP_PRICE"
	RuleMinStopPrice    = "MIN_STOP_PRICE"
	RuleGTDExpiry       = "GTD_REQUIRES_FUTURE_EXPIRY"
)

// ValidationError is one business-rule violation. Validation is
// exhaustive: the caller sees every violation of a submission at once.
type ValidationError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Field, e.Message, e.Rule)
}

// ValidationErrors is the ordered sequence of all violations found.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.Error()
	}
	return "order validation failed: " + strings.Join(parts, "; ")
}

// StructuralError marks input that is malformed rather than merely
// invalid: an absent or unknown side, order type or time-in-force.
// Callers treat it with the same severity as a decode failure.
type StructuralError struct {
	Field  string
	Detail string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("structurally invalid order: %s: %s", e.Field, e.Detail)
}

var (
	userIDPattern = regexp.MustCompile(`^[a-zA-Z0-9-_]{3,50}$`)
	symbolPattern = regexp.MustCompile(`^[A-Z]{2,6}$`)
)

// Validator checks order intents against the type and time-in-force
// rule set. It holds no mutable state; concurrent use needs no locking.
type Validator struct {
	minQtyIncrement decimal.Decimal
	clock           util.Clock
}

func NewValidator(minQtyIncrement decimal.Decimal, clock util.Clock) *Validator {
	return &Validator{minQtyIncrement: minQtyIncrement, clock: clock}
}

// Validate evaluates every rule against the intent. On success the
// returned order has defaults applied (time-in-force DAY when absent,
// a MARKET order's price dropped) and Immediate set for IOC/FOK. On
// failure the error is either a *StructuralError or the full
// ValidationErrors sequence.
func (v *Validator) Validate(in Intent) (*ValidatedOrder, error) {
	// Structural gate first: an unknown enumeration value means the
	// submission is malformed, not merely wrong.
	if !in.Side.Valid() {
		return nil, &StructuralError{Field: "side", Detail: fmt.Sprintf("must be BUY or SELL, got %q", string(in.Side))}
	}
	if !in.Type.Valid() {
		return nil, &StructuralError{Field: "order_type", Detail: fmt.Sprintf("unknown order type %q", string(in.Type))}
	}
	if in.TimeInForce == "" {
		in.TimeInForce = Day
	}
	if !in.TimeInForce.Valid() {
		return nil, &StructuralError{Field: "time_in_force", Detail: fmt.Sprintf("unknown time in force %q", string(in.TimeInForce))}
	}

	var errs ValidationErrors

	if !userIDPattern.MatchString(in.UserID) {
		errs = append(errs, ValidationError{
			Field:   "user_id",
			Rule:    RuleUserIDFormat,
			Message: "must be 3-50 characters of letters, digits, dash or underscore",
		})
	}

	if !symbolPattern.MatchString(in.Symbol) {
		errs = append(errs, ValidationError{
			Field:   "symbol",
			Rule:    RuleSymbolFormat,
			Message: "must be 2-6 uppercase letters",
		})
	}

	if in.Quantity.LessThan(v.minQtyIncrement) {
		errs = append(errs, ValidationError{
			Field:   "quantity",
			Rule:    RuleMinQuantity,
			Message: fmt.Sprintf("must be at least %s", v.minQtyIncrement),
		})
	}

	errs = append(errs, v.priceRules(in)...)
	errs = append(errs, v.stopPriceRules(in)...)

	if in.TimeInForce.RequiresExpirationDate() {
		if in.ExpireTime == nil || !in.ExpireTime.After(v.clock.Now()) {
			errs = append(errs, ValidationError{
				Field:   "expire_time",
				Rule:    RuleGTDExpiry,
				Message: "GTD orders require an expire time strictly in the future",
			})
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}

	normalized := in
	if normalized.Type == Market {
		// Forbidden-but-ignored: a price on a MARKET order is dropped,
		// not rejected.
		normalized.Price = nil
	}

	return &ValidatedOrder{
		Intent:     normalized,
		Immediate:  normalized.TimeInForce.IsImmediate(),
		AcceptedAt: v.clock.Now(),
	}, nil
}

func (v *Validator) priceRules(in Intent) ValidationErrors {
	var errs ValidationErrors

	switch {
	case in.Type.RequiresPrice():
		if in.Price == nil {
			errs = append(errs, ValidationError{
				Field:   "price",
				Rule:    RuleMissingPrice,
				Message: fmt.Sprintf("price is required for %s orders", in.Type),
			})
		} else if !in.Price.IsPositive() {
			errs = append(errs, ValidationError{
				Field:   "price",
				Rule:    RuleMinPrice,
				Message: "price must be positive",
			})
		}
	case in.Type == Stop:
		if in.Price != nil {
			errs = append(errs, ValidationError{
				Field:   "price",
				Rule:    RuleUnexpectedPrice,
				Message: "STOP orders do not take a limit price",
			})
		}
	}
	// MARKET with a price present is ignored, not rejected.

	return errs
}

func (v *Validator) stopPriceRules(in Intent) ValidationErrors {
	var errs ValidationErrors

	if in.Type.RequiresStopPrice() {
		if in.StopPrice == nil {
			errs = append(errs, ValidationError{
				Field:   "stop_price",
				Rule:    RuleMissingStop,
				Message: fmt.Sprintf("stop price is required for %s orders", in.Type),
			})
		} else if !in.StopPrice.IsPositive() {
			errs = append(errs, ValidationError{
				Field:   "stop_price",
				Rule:    RuleMinStopPrice,
				Message: "stop price must be positive",
			})
		}
	} else if in.StopPrice != nil {
		errs = append(errs, ValidationError{
			Field:   "stop_price",
			Rule:    RuleUnexpectedStop,
			Message: fmt.Sprintf("%s orders do not take a stop price", in.Type),
		})
	}

	return errs
}
