package quant

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// PriceMicros represents a credit price multiplied by 1,000,000 (10^6).
// E.g., 8.50 credits = 8,500,000 PriceMicros.
type PriceMicros int64

// Qty represents a whole-unit quantity of a ware. Wares are discrete goods;
// there are no fractional units.
type Qty int64

// TimeStamp represents Unix Microseconds.
type TimeStamp int64

const (
	PriceScale = 1000000

	Second TimeStamp = 1000000
	Minute TimeStamp = 60 * Second
	Hour   TimeStamp = 60 * Minute
	Day    TimeStamp = 24 * Hour
)

// ToPriceMicros converts a float64 (boundary only) to PriceMicros.
// Internal logic never round-trips through float64.
func ToPriceMicros(f float64) PriceMicros {
	return PriceMicros(math.Round(f * PriceScale))
}

// ParsePriceMicros parses a decimal string ("8.5") into PriceMicros without
// a float64 round-trip. Used at the config boundary.
func ParsePriceMicros(s string) (PriceMicros, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("quant: parse price %q: %w", s, err)
	}
	micros := d.Shift(6)
	if !micros.IsInteger() {
		// Sub-micro precision is truncated, matching exchange tick size.
		micros = micros.Truncate(0)
	}
	return PriceMicros(micros.IntPart()), nil
}

func (p PriceMicros) String() string {
	return decimal.New(int64(p), -6).StringFixed(2)
}

// Float returns the price as a float64 for display-only consumers.
func (p PriceMicros) Float() float64 {
	return float64(p) / PriceScale
}

// TS converts a time.Time to a TimeStamp.
func TS(t time.Time) TimeStamp {
	return TimeStamp(t.UnixMicro())
}

// DurationTS converts a time.Duration to a TimeStamp delta.
func DurationTS(d time.Duration) TimeStamp {
	return TimeStamp(d.Microseconds())
}

func (t TimeStamp) Time() time.Time {
	return time.UnixMicro(int64(t))
}
