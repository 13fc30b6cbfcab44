package safe

import (
	"chatrelay/logger"
)

// Go starts a goroutine that recovers from panic, so a misbehaving event
// handler can never take down the whole relay process.
func Go(f func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("[safe.Go] panic recovered: %v", r)
			}
		}()
		f()
	}()
}
