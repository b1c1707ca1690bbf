package tracker

import "strings"

// registeredTracker registers a name prefix with some Tracker so that
// the Tracker only tracks scalars whose names start with the prefix.
// registeredTracker itself is a Tracker.
//
// This may be useful to save evaluation summaries, which are all
// prefixed by "eval_", to a separate file from training summaries.
type registeredTracker struct {
	Tracker
	prefix string
	invert bool
}

// Register returns a Tracker which passes to t only the scalars whose
// names start with prefix
func Register(t Tracker, prefix string) Tracker {
	return &registeredTracker{Tracker: t, prefix: prefix}
}

// Exclude returns a Tracker which passes to t only the scalars whose
// names do not start with prefix
func Exclude(t Tracker, prefix string) Tracker {
	return &registeredTracker{Tracker: t, prefix: prefix, invert: true}
}

// Track calls Track() on the embedded Tracker with the matching
// scalars of s. If no scalars match, the embedded Tracker is not
// called.
func (r *registeredTracker) Track(step int, s Summary) {
	filtered := make(Summary)
	for name, value := range s {
		if strings.HasPrefix(name, r.prefix) != r.invert {
			filtered[name] = value
		}
	}

	if len(filtered) > 0 {
		r.Tracker.Track(step, filtered)
	}
}
