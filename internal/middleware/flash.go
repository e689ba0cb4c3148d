package middleware

import (
	"context"

	"github.com/alexedwards/scs/v2"
)

const flashKey = "flash"

// Flashes keeps operator notices, such as a tie fallback warning, in the
// session until the dashboard shows them.
type Flashes struct {
	sessionManager *scs.SessionManager
}

func NewFlashes(sessionManager *scs.SessionManager) *Flashes {
	return &Flashes{sessionManager: sessionManager}
}

func (f *Flashes) Add(ctx context.Context, msg string) {
	var pending []string
	if v, ok := f.sessionManager.Get(ctx, flashKey).([]string); ok {
		pending = v
	}
	f.sessionManager.Put(ctx, flashKey, append(pending, msg))
}

// Pop returns and clears the pending notices.
func (f *Flashes) Pop(ctx context.Context) []string {
	v, ok := f.sessionManager.Pop(ctx, flashKey).([]string)
	if !ok {
		return nil
	}
	return v
}
