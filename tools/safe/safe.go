package safe

import (
	"MProject/logger"
	errs "MProject/tools/errs"
)

// Go starts a new goroutine that recovers from panic,
// so a bad handler doesn't crash the whole process.
func Go(f func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("[safe.Go] panic recovered: %v", errs.ErrPanic(r))
			}
		}()
		f()
	}()
}

// Recover is meant to be deferred inside long-running loops.
func Recover(tag string) {
	if r := recover(); r != nil {
		logger.Errorf("[%s] panic recovered: %v", tag, errs.ErrPanic(r))
	}
}
