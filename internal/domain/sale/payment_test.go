package sale

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want decimal.Decimal
	}{
		{"dot separator", "30.00", d("30.00")},
		{"comma separator", "30,50", d("30.50")},
		{"integer", "15", d("15")},
		{"surrounding spaces", "  12.5 ", d("12.5")},
		{"empty", "", decimal.Zero},
		{"garbage", "abc", decimal.Zero},
		{"double separator", "1,2,3", decimal.Zero},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseAmount(tt.raw)
			assert.True(t, tt.want.Equal(got),
				"expected %s, got %s", tt.want, got)
		})
	}
}

func TestValidMethod(t *testing.T) {
	assert.True(t, ValidMethod(MethodCash))
	assert.True(t, ValidMethod(MethodPix))
	assert.True(t, ValidMethod(MethodCredit))
	assert.True(t, ValidMethod(MethodDebit))
	assert.False(t, ValidMethod(MethodNone))
	assert.False(t, ValidMethod(Method("CHEQUE")))
}

func TestPaymentSelectMethodClearsTendered(t *testing.T) {
	var p Payment
	p.SelectMethod(MethodCash)
	p.SetTendered("30,00")
	assert.True(t, d("30").Equal(p.Tendered))

	p.SelectMethod(MethodPix)
	assert.True(t, p.Tendered.IsZero())

	// switching back to cash starts from zero again
	p.SelectMethod(MethodCash)
	assert.True(t, p.Tendered.IsZero())
}

func TestPaymentChange(t *testing.T) {
	var p Payment
	p.SelectMethod(MethodCash)

	p.SetTendered("30.00")
	assert.True(t, d("8.00").Equal(p.Change(d("22.00"))))

	p.SetTendered("10.00")
	assert.True(t, p.Change(d("22.00")).IsZero(), "change never goes negative")

	p.SetTendered("22.00")
	assert.True(t, p.Change(d("22.00")).IsZero())
}

func TestPaymentReady(t *testing.T) {
	total := d("22.00")

	var p Payment
	assert.False(t, p.Ready(total), "no method selected")

	p.SelectMethod(MethodPix)
	assert.True(t, p.Ready(total), "non-cash needs no tendered amount")

	p.SelectMethod(MethodCash)
	assert.False(t, p.Ready(total), "cash with zero tendered")
	assert.True(t, p.Insufficient(total))

	p.SetTendered("21.99")
	assert.False(t, p.Ready(total))

	p.SetTendered("22.00")
	assert.True(t, p.Ready(total))

	p.SetTendered("abc")
	assert.False(t, p.Ready(total), "unparseable tendered counts as zero")
}

func TestPaymentReset(t *testing.T) {
	var p Payment
	p.SelectMethod(MethodCash)
	p.SetTendered("50")
	p.Reset()
	assert.Equal(t, MethodNone, p.Method)
	assert.True(t, p.Tendered.IsZero())
}

func TestFormatOrderID(t *testing.T) {
	assert.Equal(t, "#0001", FormatOrderID(1))
	assert.Equal(t, "#0042", FormatOrderID(42))
	assert.Equal(t, "#12345", FormatOrderID(12345))
}

func TestSnapshotItems(t *testing.T) {
	lines := []Line{
		{Product: prod(1, "Coxinha de Frango", "6.00"), Quantity: 2},
		{Product: prod(3, "Suco Natural 500ml", "8.00"), Quantity: 1},
	}
	items := SnapshotItems(lines)
	assert.Equal(t, []RecordItem{
		{Name: "Coxinha de Frango", Quantity: 2, Price: d("6.00"), Category: "Salgados"},
		{Name: "Suco Natural 500ml", Quantity: 1, Price: d("8.00"), Category: "Salgados"},
	}, items)
}
