package installer

import "sync/atomic"

// Stats are the progress counters spec section 4.5 "State" calls for:
// resolved, installed, cached. A front-end or test can read them once
// Install returns without having to scrape log output.
type Stats struct {
	resolved  int32
	installed int32
	cached    int32
}

func (s *Stats) incResolved()  { atomic.AddInt32(&s.resolved, 1) }
func (s *Stats) incInstalled() { atomic.AddInt32(&s.installed, 1) }
func (s *Stats) incCached()    { atomic.AddInt32(&s.cached, 1) }

// Resolved is the count of packages whose version was determined (via
// registry fetch or lazy lockfile read) during this run.
func (s *Stats) Resolved() int { return int(atomic.LoadInt32(&s.resolved)) }

// Installed is the count of packages actually copied from the store into
// node_modules during this run.
func (s *Stats) Installed() int { return int(atomic.LoadInt32(&s.installed)) }

// Cached is the count of packages whose node_modules directory already
// matched the desired version and so were skipped (spec section 4.5 step 3
// / step 4).
func (s *Stats) Cached() int { return int(atomic.LoadInt32(&s.cached)) }
