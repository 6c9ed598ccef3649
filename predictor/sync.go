package predictor

import "golang.org/x/sync/errgroup"

// Sync joins any prior background worker, blocking until it exits, and then
// spawns a fresh background save worker (spec §5 "Predictor save/load").
// It does not wait for the new worker; it does not return early while an
// earlier worker is still running, and it always starts a new worker.
func (p *Predictor) Sync() {
	p.runWorker(p.doSave)
}

// Reload spawns a background reload worker, same semantics as Sync.
func (p *Predictor) Reload() {
	p.runWorker(p.doReload)
}

func (p *Predictor) runWorker(fn func() error) {
	p.workerMu.Lock()
	defer p.workerMu.Unlock()
	if p.eg != nil {
		if err := p.eg.Wait(); err != nil {
			p.logger.Printf("predictor: previous background worker failed: %v", err)
		}
	}
	eg := &errgroup.Group{}
	eg.Go(fn)
	p.eg = eg
}

// Wait blocks until any in-flight background worker exits (spec §5
// "wait() and the destructor both block until the worker exits").
func (p *Predictor) Wait() {
	p.workerMu.Lock()
	eg := p.eg
	p.workerMu.Unlock()
	if eg == nil {
		return
	}
	if err := eg.Wait(); err != nil {
		p.logger.Printf("predictor: background worker failed: %v", err)
	}
}
