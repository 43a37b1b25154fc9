package alternatives

import "github.com/shopspring/decimal"

// Bucket names a price band relative to the original product
type Bucket string

const (
	BucketCheaper   Bucket = "cheaper"
	BucketSimilar   Bucket = "similar"
	BucketExpensive Bucket = "expensive"
)

// ParseBucket accepts a bucket name; ok is false for anything else
func ParseBucket(s string) (Bucket, bool) {
	switch b := Bucket(s); b {
	case BucketCheaper, BucketSimilar, BucketExpensive:
		return b, true
	}
	return "", false
}

// Buckets is Result.Alternatives split by price delta
type Buckets struct {
	Cheaper   []Alternative `json:"cheaper"`
	Similar   []Alternative `json:"similar"`
	Expensive []Alternative `json:"expensive"`
}

// Buckets splits the alternatives: cheaper when the delta exceeds threshold,
// expensive when it is below -threshold, similar otherwise. Order within a
// bucket is kept.
func (r *Result) Buckets(threshold decimal.Decimal) Buckets {
	threshold = threshold.Abs()
	out := Buckets{
		Cheaper:   []Alternative{},
		Similar:   []Alternative{},
		Expensive: []Alternative{},
	}
	for _, a := range r.Alternatives {
		switch {
		case a.PriceDelta.GreaterThan(threshold):
			out.Cheaper = append(out.Cheaper, a)
		case a.PriceDelta.LessThan(threshold.Neg()):
			out.Expensive = append(out.Expensive, a)
		default:
			out.Similar = append(out.Similar, a)
		}
	}
	return out
}

// Get returns one bucket
func (b Buckets) Get(bucket Bucket) []Alternative {
	switch bucket {
	case BucketCheaper:
		return b.Cheaper
	case BucketExpensive:
		return b.Expensive
	}
	return b.Similar
}
