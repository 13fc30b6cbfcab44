package chat

// Fan-out resolves target identities to live handles and dispatches
// fire-and-forget: attempt once, same process tick, no acknowledgement.

type fanoutJob struct {
	conns   []*Client
	payload []byte
}

type Fanout struct {
	reg  *Registry
	jobs chan fanoutJob
}

func NewFanout(reg *Registry, workers, queue int) *Fanout {
	if workers <= 0 {
		workers = 1
	}
	f := &Fanout{reg: reg, jobs: make(chan fanoutJob, queue)}
	for i := 0; i < workers; i++ {
		go func() {
			for job := range f.jobs {
				for _, c := range job.conns {
					// Push drops on closed or saturated clients
					c.Push(job.payload)
				}
			}
		}()
	}
	return f
}

// Resolve maps identities through the registry, discards the ones with no
// tracked handle, and de-duplicates handles by connection id so one
// connection backing two logical recipients receives a single copy.
func (f *Fanout) Resolve(userIDs ...string) []*Client {
	seen := make(map[string]struct{}, len(userIDs))
	out := make([]*Client, 0, len(userIDs))
	for _, id := range userIDs {
		c, ok := f.reg.Lookup(id)
		if !ok {
			continue
		}
		if _, dup := seen[c.ConnID]; dup {
			continue
		}
		seen[c.ConnID] = struct{}{}
		out = append(out, c)
	}
	return out
}

// Broadcast enqueues one delivery attempt per handle. Empty target sets and
// payloads are ignored.
func (f *Fanout) Broadcast(conns []*Client, payload []byte) {
	if len(conns) == 0 || len(payload) == 0 {
		return
	}
	f.jobs <- fanoutJob{conns: conns, payload: payload}
}

// Close stops the workers once queued jobs drain.
func (f *Fanout) Close() {
	close(f.jobs)
}
