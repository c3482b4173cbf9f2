package bhvtree

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// pkgLogger is the package-level structured logger tick-time logical
// failures write to before mapping to Failure: an out-of-range Branch
// index, or an Expression evaluation or narrowing failure.
var pkgLogger logrus.FieldLogger = logrus.StandardLogger()

// SetLogger overrides the logger tick-time failures are reported
// through. Passing nil restores the standard logrus logger.
func SetLogger(l logrus.FieldLogger) {
	if l == nil {
		l = logrus.StandardLogger()
	}
	pkgLogger = l
}

func logTickFailure(fields logrus.Fields, format string, args ...any) {
	pkgLogger.WithFields(fields).Warn(fmt.Sprintf(format, args...))
}

func panicf(format string, args ...any) {
	panic(fmt.Sprintf(format, args...))
}
