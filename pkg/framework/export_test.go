package framework

func (t *Timer) isPending() bool {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.pending
}
