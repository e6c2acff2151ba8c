package logging

// ProgressSampler suppresses repetitive progress logs while preserving signal
// when a monotonically growing amount (bytes captured) crosses a bucket
// boundary.
type ProgressSampler struct {
	bucketSize int64
	lastBucket int64
}

// DefaultProgressBucket is one log line per 256 KiB captured.
const DefaultProgressBucket int64 = 256 * 1024

// NewProgressSampler constructs a sampler that emits when amount crosses
// bucket boundaries (DefaultProgressBucket when bucketSize is not positive).
func NewProgressSampler(bucketSize int64) *ProgressSampler {
	if bucketSize <= 0 {
		bucketSize = DefaultProgressBucket
	}
	return &ProgressSampler{bucketSize: bucketSize, lastBucket: -1}
}

// ShouldLog reports whether a progress event for amount should be logged.
// Non-positive amounts never log; amounts that go backwards are ignored.
func (s *ProgressSampler) ShouldLog(amount int64) bool {
	if s == nil {
		return true
	}
	if amount <= 0 {
		return false
	}
	bucket := amount / s.bucketSize
	if bucket > s.lastBucket {
		s.lastBucket = bucket
		return true
	}
	return false
}
