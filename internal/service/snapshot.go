package service

// Bounded buffers backing the agent state snapshot. Both keep only the
// most recent max entries.

type historyBuffer struct {
	max   int
	items []string
}

func newHistoryBuffer(max int) *historyBuffer {
	return &historyBuffer{max: max}
}

func (b *historyBuffer) push(name string) {
	b.items = append(b.items, name)
	if over := len(b.items) - b.max; over > 0 {
		b.items = b.items[over:]
	}
}

func (b *historyBuffer) values() []string {
	out := make([]string, len(b.items))
	copy(out, b.items)
	return out
}

type rewardBuffer struct {
	max   int
	items []float64
}

func newRewardBuffer(max int) *rewardBuffer {
	return &rewardBuffer{max: max}
}

func (b *rewardBuffer) push(r float64) {
	b.items = append(b.items, r)
	if over := len(b.items) - b.max; over > 0 {
		b.items = b.items[over:]
	}
}

func (b *rewardBuffer) values() []float64 {
	out := make([]float64, len(b.items))
	copy(out, b.items)
	return out
}
