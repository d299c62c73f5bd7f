package app

import (
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"
)

type CloseFunc func() error

func (instance *Instance) AddCloseFunc(fn CloseFunc) {
	instance.AddCloser(&closeWrapper{fn: fn})
}

type closeWrapper struct {
	fn CloseFunc
}

func (w *closeWrapper) Close() error {
	return w.fn()
}

func (instance *Instance) AddCloser(closer io.Closer) {
	instance.closers = append(instance.closers, closer)
}

func (instance *Instance) Stop(failed bool) {
	instance.failed = failed || instance.failed
	close(instance.stop)
}

// WaitForFinish blocks until an interrupt or a Stop call, then runs every
// registered closer concurrently and exits non-zero if any of them failed.
func (instance *Instance) WaitForFinish() {
	done := make(chan bool)
	go func() {
		defer close(done)
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt)
		signal.Notify(sigint, syscall.SIGTERM)
		select {
		case <-sigint:
		case <-instance.stop:
		}

		instance.cancel()

		var (
			wg     sync.WaitGroup
			lock   sync.Mutex
			result *multierror.Error
		)
		wg.Add(len(instance.closers))
		for i := range instance.closers {
			go func(i int) {
				defer wg.Done()
				if err := instance.closers[i].Close(); err != nil {
					lock.Lock()
					result = multierror.Append(result, err)
					lock.Unlock()
				}
			}(i)
		}
		wg.Wait()

		if err := result.ErrorOrNil(); err != nil {
			log.Printf("failed to close cleanly: %s", err)
			instance.failed = true
		}

		if instance.failed {
			os.Exit(1)
		}
	}()

	// Wait until everything is done and finished
	<-done
}
