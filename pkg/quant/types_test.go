package quant

import (
	"testing"
	"time"
)

func TestToPriceMicros(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want PriceMicros
	}{
		{"Whole", 8, 8000000},
		{"Fraction", 1.23, 1230000},
		{"Rounds", 0.0000005, 1},
		{"Zero", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToPriceMicros(tt.in); got != tt.want {
				t.Errorf("ToPriceMicros(%v) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestParsePriceMicros(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    PriceMicros
		wantErr bool
	}{
		{"Whole", "8", 8000000, false},
		{"Fraction", "20.5", 20500000, false},
		{"SubMicro Truncated", "1.0000009", 1000000, false},
		{"Negative", "-3.25", -3250000, false},
		{"Garbage", "twelve", 0, true},
		{"Empty", "", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePriceMicros(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePriceMicros(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParsePriceMicros(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestPriceMicrosString(t *testing.T) {
	if got := PriceMicros(8500000).String(); got != "8.50" {
		t.Errorf("String() = %q, want %q", got, "8.50")
	}
	if got := PriceMicros(120000000).String(); got != "120.00" {
		t.Errorf("String() = %q, want %q", got, "120.00")
	}
}

func TestTimeStampRoundTrip(t *testing.T) {
	now := time.Now().Truncate(time.Microsecond)
	ts := TS(now)
	if !ts.Time().Equal(now) {
		t.Errorf("round trip mismatch: %v != %v", ts.Time(), now)
	}
	if DurationTS(24*time.Hour) != Day {
		t.Errorf("DurationTS(24h) = %d, want %d", DurationTS(24*time.Hour), Day)
	}
}
