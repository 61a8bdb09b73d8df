package output

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormatPrice(t *testing.T) {
	if got, want := FormatPrice(3.977145694118793), "3.9771"; got != want {
		t.Errorf("FormatPrice = %q, want %q", got, want)
	}
	if got, want := FormatPrice(40), "40.0000"; got != want {
		t.Errorf("FormatPrice = %q, want %q", got, want)
	}
}

func TestFormatPercentage(t *testing.T) {
	v := decimal.NewFromFloat(12.3456)
	got := FormatPercentage(v)
	want := "12.35%"
	if got != want {
		t.Errorf("FormatPercentage(%v) = %q, want %q", v, got, want)
	}
}

func TestFormatRelativeError(t *testing.T) {
	if got, want := FormatRelativeError(110, 100), "10.00%"; got != want {
		t.Errorf("FormatRelativeError = %q, want %q", got, want)
	}
	if got, want := FormatRelativeError(1, 0), "0.00%"; got != want {
		t.Errorf("FormatRelativeError with zero reference = %q, want %q", got, want)
	}
}

func TestIntToString(t *testing.T) {
	if got, want := intToString(42), "42"; got != want {
		t.Errorf("intToString(42) = %q, want %q", got, want)
	}
}
