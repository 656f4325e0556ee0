package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTimeInForce_Facets(t *testing.T) {
	tests := []struct {
		tif                TimeInForce
		requiresExpiration bool
		allowsPartialFills bool
		immediate          bool
	}{
		{Day, false, true, false},
		{GTC, false, true, false},
		{IOC, false, false, true},
		{FOK, false, false, true},
		{GTD, true, true, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.tif), func(t *testing.T) {
			assert.True(t, tt.tif.Valid())
			assert.Equal(t, tt.requiresExpiration, tt.tif.RequiresExpirationDate())
			assert.Equal(t, tt.allowsPartialFills, tt.tif.AllowsPartialFills())
			assert.Equal(t, tt.immediate, tt.tif.IsImmediate())
			assert.NotEqual(t, "unknown", tt.tif.Description())
		})
	}
}

func TestTimeInForce_UnknownValues(t *testing.T) {
	for _, v := range []TimeInForce{"", "GTW", "day", "EOD"} {
		assert.False(t, v.Valid(), "value %q", v)
	}
}
