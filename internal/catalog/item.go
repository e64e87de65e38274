package catalog

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Item is one listed vehicle as returned by the catalog source
type Item struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	ModelName       string    `json:"modelName,omitempty"`
	Brand           string    `json:"brand"`
	FractionPrice   Amount    `json:"fractionPrice,omitempty"`
	TokenPrice      Amount    `json:"tokenPrice,omitempty"`
	Price           Amount    `json:"price,omitempty"`
	TotalUnits      Count     `json:"totalUnits"`
	AvailableUnits  Count     `json:"availableUnits"`
	TotalTokens     Count     `json:"totalTokens"`
	AvailableTokens Count     `json:"availableTokens"`
	Location        string    `json:"location,omitempty"`
	Pincode         string    `json:"pincode,omitempty"`
	State           string    `json:"state,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	StopBookings    bool      `json:"stopBookings"`
}

// DisplayName returns the name used for matching and sorting, falling back to the model name
func (it Item) DisplayName() string {
	if strings.TrimSpace(it.Name) != "" {
		return it.Name
	}
	return it.ModelName
}

// BookingsStopped reports whether the item can no longer take new bookings
func (it Item) BookingsStopped() bool {
	return it.StopBookings
}

// HasStock reports whether any tokens or units are left
func (it Item) HasStock() bool {
	return it.AvailableTokens > 0 || it.AvailableUnits > 0
}

// UnitsSold is total minus available units. Missing operands count as zero.
func (it Item) UnitsSold() int {
	return int(it.TotalUnits) - int(it.AvailableUnits)
}

// ListPrice returns the first non-empty of fraction, token and list price
func (it Item) ListPrice() float64 {
	for _, a := range []Amount{it.FractionPrice, it.TokenPrice, it.Price} {
		if !a.IsEmpty() {
			return a.Value()
		}
	}
	return 0
}

// WithTokenDelta returns a copy with AvailableTokens adjusted by delta, never below zero
func (it Item) WithTokenDelta(delta int) Item {
	next := int(it.AvailableTokens) + delta
	if next < 0 {
		next = 0
	}
	it.AvailableTokens = Count(next)
	return it
}

// createdAtMillis treats a missing timestamp as epoch zero
func (it Item) createdAtMillis() int64 {
	if it.CreatedAt.IsZero() {
		return 0
	}
	return it.CreatedAt.UnixMilli()
}

// Amount is a price field that may arrive as a JSON number or as a
// currency-formatted string such as "₹1,23,456".
type Amount string

// UnmarshalJSON accepts strings, numbers and null
func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*a = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = Amount(s)
		return nil
	}

	// Numbers are stored in plain decimal so exponent forms survive ParseAmount
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		*a = ""
		return nil
	}
	*a = Amount(strconv.FormatFloat(v, 'f', -1, 64))
	return nil
}

// IsEmpty reports whether the raw value is blank
func (a Amount) IsEmpty() bool {
	return strings.TrimSpace(string(a)) == ""
}

// Value parses the amount, returning 0 when it cannot be read
func (a Amount) Value() float64 {
	return ParseAmount(string(a))
}

// ParseAmount strips every character that is not a digit or a decimal point
// and parses the rest as a float. Anything unparseable yields 0.
func ParseAmount(s string) float64 {
	var sb strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			sb.WriteRune(r)
		}
	}
	if sb.Len() == 0 {
		return 0
	}
	v, err := strconv.ParseFloat(sb.String(), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Count is a non-negative availability counter. It tolerates numeric strings
// and null, and clamps negative values to zero.
type Count int

// UnmarshalJSON accepts numbers, numeric strings and null
func (c *Count) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*c = 0
		return nil
	}

	var v float64
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v = ParseAmount(s)
	} else if err := json.Unmarshal(b, &v); err != nil {
		v = 0
	}

	// Out-of-range values are malformed, not huge
	if v < 0 || v > math.MaxInt32 {
		v = 0
	}
	*c = Count(int(v))
	return nil
}
