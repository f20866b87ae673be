package sequencer

// eventPool recycles event records through a singly linked free-list,
// per spec §4.2. Both acquire and release are expected to run under the
// queue's lock (the owner already holds it for the surrounding insert or
// drain), so the pool itself carries no lock of its own — see
// sequencer.go and queue.go for the callers that serialize access.
type eventPool struct {
	free *event
}

// acquire returns a previously released record if one is free, otherwise
// allocates a new one. The returned record is zeroed.
func (p *eventPool) acquire() *event {
	if p.free == nil {
		return &event{}
	}
	e := p.free
	p.free = e.next
	e.next = nil
	return e
}

// release clears e and pushes it onto the free-list. Callers must not
// reference e again afterward — spec §3's ownership invariant means a
// record is either held by the caller/queue/worker or sits on this
// free-list, never both.
func (p *eventPool) release(e *event) {
	e.reset()
	e.next = p.free
	p.free = e
}
