package synchtest

import (
	"github.com/kolkov/ksynch/synch"
)

// fixture creates the primitives one test needs and destroys them
// together. After the first construction error every further constructor
// returns nil and err reports the failure.
type fixture struct {
	opts    synch.Options
	destroy []func()
	err     error
}

func newFixture(cfg Config) *fixture {
	return &fixture{opts: cfg.options()}
}

func (f *fixture) sem(name string, initial int) *synch.Semaphore {
	if f.err != nil {
		return nil
	}
	s, err := synch.NewSemaphoreWithOptions(name, initial, f.opts)
	if err != nil {
		f.err = err
		return nil
	}
	f.destroy = append(f.destroy, s.Destroy)
	return s
}

func (f *fixture) lock(name string) *synch.Lock {
	if f.err != nil {
		return nil
	}
	lk, err := synch.NewLockWithOptions(name, f.opts)
	if err != nil {
		f.err = err
		return nil
	}
	f.destroy = append(f.destroy, lk.Destroy)
	return lk
}

func (f *fixture) cv(name string) *synch.CV {
	if f.err != nil {
		return nil
	}
	cv, err := synch.NewCVWithOptions(name, f.opts)
	if err != nil {
		f.err = err
		return nil
	}
	f.destroy = append(f.destroy, cv.Destroy)
	return cv
}

// close destroys everything created, newest first.
func (f *fixture) close() {
	for i := len(f.destroy) - 1; i >= 0; i-- {
		f.destroy[i]()
	}
	f.destroy = nil
}
