package cart

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

// Unit fields serialize as explicit nulls so a line always shows both
// quantity and weight, with the unused one null.
func TestLineViewSerializesAbsentUnitAsNull(t *testing.T) {
	qty := int64(2)
	line := LineView{
		ItemID:     1,
		ItemName:   "MacBook Pro",
		Quantity:   &qty,
		UnitPrice:  2000,
		BasePrice:  4000,
		FinalPrice: 4000,
	}

	raw, err := json.Marshal(line)
	require.NoError(t, err)

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &fields))

	require.Equal(t, "2", string(fields["quantity"]))
	require.Equal(t, "null", string(fields["weight"]))
	require.Equal(t, "null", string(fields["promotion_name"]))
}

func TestLineViewSerializesWeightLine(t *testing.T) {
	weight := 250.0
	line := LineView{
		ItemID:    4,
		ItemName:  "Arabica Coffee Beans",
		Weight:    &weight,
		UnitPrice: 0.05,
		BasePrice: 12.5,
	}

	raw, err := json.Marshal(line)
	require.NoError(t, err)

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &fields))

	require.Equal(t, "null", string(fields["quantity"]))
	require.Equal(t, "250", string(fields["weight"]))
}
