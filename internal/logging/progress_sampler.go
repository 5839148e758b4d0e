package logging

// ProgressSampler picks which steps of a counted run deserve a log line: the
// first step, each crossing into a new percentage bucket, and the last step.
// It is not safe for concurrent use.
type ProgressSampler struct {
	total      int
	bucketSize float64
	lastBucket int
}

// NewProgressSampler samples a run of total steps. bucketSize is in percent
// and defaults to 10.
func NewProgressSampler(total int, bucketSize float64) *ProgressSampler {
	if bucketSize <= 0 || bucketSize > 100 {
		bucketSize = 10
	}
	return &ProgressSampler{total: total, bucketSize: bucketSize, lastBucket: -1}
}

// Observe records that done steps have finished. It returns the percentage
// complete (-1 when the total is unknown) and whether to log it.
func (s *ProgressSampler) Observe(done int) (float64, bool) {
	if s == nil || s.total <= 0 {
		return -1, true
	}
	if done > s.total {
		done = s.total
	}
	percent := float64(done) * 100 / float64(s.total)
	bucket := int(percent / s.bucketSize)
	if done == s.total && bucket <= s.lastBucket {
		bucket = s.lastBucket + 1
	}
	if bucket <= s.lastBucket {
		return percent, false
	}
	s.lastBucket = bucket
	return percent, true
}
