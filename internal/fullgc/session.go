package fullgc

import "log/slog"

// Session is the small state machine the driver's step 1 ("Begin a GC
// session tagged full. If a previous GC cycle reported start but not end,
// close it.") needs: a guard against a dangling cycle left open by
// whatever ran before this full GC.
type Session struct {
	open  bool
	cause Cause
}

// Begin closes any dangling prior session (logging that it had to), then
// opens a new one tagged full for cause.
func (s *Session) Begin(log *slog.Logger, cause Cause) {
	if s.open {
		log.Warn("closing dangling GC session before starting full GC", "stale_cause", s.cause.String())
		s.open = false
	}
	s.open = true
	s.cause = cause
}

// End closes the session. It is a no-op if no session is open.
func (s *Session) End() { s.open = false }

// Open reports whether a session is currently open.
func (s *Session) Open() bool { return s.open }
