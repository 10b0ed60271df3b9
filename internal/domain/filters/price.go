package filters

import "strings"

// PriceBucket is a fee interval selected by a price label on the listing page.
// A nil bound is open.
type PriceBucket struct {
	Label        string
	Min          *float64
	MinInclusive bool
	Max          *float64
	MaxInclusive bool
}

// Contains reports whether fee falls inside the bucket.
func (b PriceBucket) Contains(fee float64) bool {
	if b.Min != nil {
		if b.MinInclusive && fee < *b.Min {
			return false
		}
		if !b.MinInclusive && fee <= *b.Min {
			return false
		}
	}
	if b.Max != nil {
		if b.MaxInclusive && fee > *b.Max {
			return false
		}
		if !b.MaxInclusive && fee >= *b.Max {
			return false
		}
	}
	return true
}

func bound(v float64) *float64 { return &v }

var priceBuckets = map[string]PriceBucket{
	"<100":    {Label: "<100", Max: bound(100)},
	"100-150": {Label: "100-150", Min: bound(100), MinInclusive: true, Max: bound(150), MaxInclusive: true},
	"150-200": {Label: "150-200", Min: bound(150), Max: bound(200), MaxInclusive: true},
	"150+":    {Label: "150+", Min: bound(150)},
	"200+":    {Label: "200+", Min: bound(200)},
}

// LookupPriceBucket resolves a price label. Dollar signs and spaces are ignored,
// so "<$100" and "< 100" resolve like "<100".
func LookupPriceBucket(label string) (PriceBucket, bool) {
	key := strings.NewReplacer("$", "", " ", "").Replace(strings.TrimSpace(label))
	b, ok := priceBuckets[key]
	return b, ok
}
