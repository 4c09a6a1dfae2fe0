package crawler

const (
	// capacityFactor scales the visited-set bound with the page limit
	capacityFactor = 10

	// capacityFloor is the minimum number of URLs kept regardless of the limit
	capacityFloor = 1000
)

// VisitedSet tracks normalized URLs already seen, bounded at
// max(maxPages*capacityFactor, capacityFloor). When the bound is exceeded
// the set is pruned to its most-recently-added half. This is a deliberate
// lossy trade-off: an old URL may be re-fetched on very large sites, in
// exchange for bounded memory. Do not replace with unbounded retention.
type VisitedSet struct {
	capacity int
	order    []string
	seen     map[string]struct{}
}

// NewVisitedSet sizes a set for a crawl with the given page limit.
func NewVisitedSet(maxPages int) *VisitedSet {
	capacity := maxPages * capacityFactor
	if capacity < capacityFloor {
		capacity = capacityFloor
	}
	return &VisitedSet{
		capacity: capacity,
		seen:     make(map[string]struct{}),
	}
}

// Add inserts a normalized URL. Returns false if it was already present.
func (s *VisitedSet) Add(url string) bool {
	if _, ok := s.seen[url]; ok {
		return false
	}
	s.seen[url] = struct{}{}
	s.order = append(s.order, url)
	if len(s.order) > s.capacity {
		s.prune()
	}
	return true
}

// Contains reports whether the normalized URL has been seen.
func (s *VisitedSet) Contains(url string) bool {
	_, ok := s.seen[url]
	return ok
}

// Len reports the current number of tracked URLs.
func (s *VisitedSet) Len() int {
	return len(s.order)
}

// Capacity reports the configured bound.
func (s *VisitedSet) Capacity() int {
	return s.capacity
}

// prune keeps the most-recently-added half of the set.
func (s *VisitedSet) prune() {
	keepFrom := len(s.order) / 2
	kept := make([]string, len(s.order)-keepFrom)
	copy(kept, s.order[keepFrom:])

	s.seen = make(map[string]struct{}, len(kept))
	for _, u := range kept {
		s.seen[u] = struct{}{}
	}
	s.order = kept
}
