package core

import "sync"

// Notifier fans a "something changed" signal out to subscribers.
// Signals are coalesced: a subscriber that has not drained its channel
// misses nothing but the duplicates.
type Notifier struct {
	mu   sync.Mutex
	subs map[chan struct{}]struct{}
}

func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[chan struct{}]struct{})}
}

// Subscribe returns a channel receiving change signals and a cancel func
// that closes it. Cancel is safe to call more than once.
func (n *Notifier) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	n.mu.Lock()
	n.subs[ch] = struct{}{}
	n.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.subs, ch)
			n.mu.Unlock()
			close(ch)
		})
	}
}

func (n *Notifier) Notify() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for ch := range n.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
