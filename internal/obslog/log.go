// Package obslog provides the package-level structured logger used for
// configuration and validation diagnostics. Evaluation (eval) paths never
// call into this package: logging stays off the hot path.
package obslog

import "go.uber.org/zap"

var base = newBase()

func newBase() *zap.SugaredLogger {
	logger, err := zap.NewProduction()
	if err != nil {
		logger = zap.NewNop()
	}
	return logger.Sugar()
}

// L returns the shared sugared logger.
func L() *zap.SugaredLogger {
	return base
}

// SetLogger replaces the shared logger, e.g. with a development or
// no-op logger from a test or from the embedding application.
func SetLogger(l *zap.SugaredLogger) {
	base = l
}
