package misc

import "sort"

// StatFactory collects named int64 counters for a single component. Counters
// are created lazily on first increment.
type StatFactory struct {
	name     string
	counters map[string]int64
}

func (this *StatFactory) Init(name string) {
	this.name = name
	this.counters = make(map[string]int64)
}

func (this *StatFactory) Name() string {
	return this.name
}

func (this *StatFactory) Increment(key string, delta int64) {
	this.counters[key] += delta
}

func (this *StatFactory) Value(key string) int64 {
	return this.counters[key]
}

// Keys returns the counter names in deterministic order for dumping.
func (this *StatFactory) Keys() []string {
	keys := make([]string, 0, len(this.counters))
	for key := range this.counters {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
