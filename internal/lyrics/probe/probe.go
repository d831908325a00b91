// Package probe implements "try candidates in order, keep the first viable one",
// the pattern used for search-result selectors, lyrics containers and candidate sites.
package probe

// Step is one candidate key together with the predicate its result must satisfy.
// A nil Viable accepts any result that was looked up without error.
type Step[T any] struct {
	Key    string
	Viable func(T) bool
}

// Keys builds steps that share one predicate.
func Keys[T any](viable func(T) bool, keys ...string) []Step[T] {
	steps := make([]Step[T], len(keys))
	for i, key := range keys {
		steps[i] = Step[T]{Key: key, Viable: viable}
	}
	return steps
}

// Match is the outcome of a successful probe.
type Match[T any] struct {
	Key   string
	Value T
}

// First looks up each step in order and returns the first value its step accepts.
// Lookup errors skip the step; onSkip, when non-nil, observes them.
func First[T any](steps []Step[T], lookup func(key string) (T, error), onSkip func(key string, err error)) (Match[T], bool) {
	for _, step := range steps {
		value, err := lookup(step.Key)
		if err != nil {
			if onSkip != nil {
				onSkip(step.Key, err)
			}
			continue
		}
		if step.Viable == nil || step.Viable(value) {
			return Match[T]{Key: step.Key, Value: value}, true
		}
	}
	return Match[T]{}, false
}
