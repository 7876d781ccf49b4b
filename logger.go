package marktree

// Logger receives the few events a tree reports. Arguments are alternating
// key/value pairs, as with slog, so a *slog.Logger can be passed directly.
//
// Levels used by the tree:
//   - Info: the root grew or shrank by one level ("mark tree grew",
//     "mark tree shrank") and Clear dropped the tree ("mark tree cleared").
//   - Warn: RestorePair was called while a half of the pair is missing.
//   - Error: Check found a broken invariant ("mark tree check failed").
//
// Edits and lookups never log.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	Info(msg string, args ...any)
}

// DiscardLogger drops every event. It is the default.
type DiscardLogger struct{}

func (DiscardLogger) Error(string, ...any) {}

func (DiscardLogger) Warn(string, ...any) {}

func (DiscardLogger) Info(string, ...any) {}
