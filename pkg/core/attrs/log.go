package attrs

import (
	"sync/atomic"

	"github.com/charmbracelet/log"
)

var pkgLogger atomic.Pointer[log.Logger]

// SetLogger sets the logger used to report unparsable ranges. A nil logger
// restores log.Default().
func SetLogger(l *log.Logger) {
	pkgLogger.Store(l)
}

func logger() *log.Logger {
	if l := pkgLogger.Load(); l != nil {
		return l
	}
	return log.Default()
}
