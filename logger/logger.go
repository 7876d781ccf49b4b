// Package logger adapts zap and logrus to the marktree.Logger interface.
// slog.Logger already satisfies it and needs no adapter.
//
// A tree only logs structural events: root growth and collapse and Clear at
// Info, a RestorePair with a missing half at Warn, and failed Check runs at
// Error. Fields carry key counts, tree height and mark ids, so an Info level
// logger is quiet unless the tree changes height.
//
// Example with zap:
//
//	zapLogger, _ := zap.NewProduction()
//	tree := marktree.New(marktree.WithLogger(logger.NewZap(zapLogger)))
package logger
