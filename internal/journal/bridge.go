package journal

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/HendryAvila/polly/internal/workflow"
)

// Bridge records workflow writes in the journal. It satisfies
// workflow.Observer.
type Bridge struct {
	store     *Store
	sessionID string
	logger    *slog.Logger
}

// NewBridge starts a journal session for project and returns a bridge
// bound to it. Returns nil if store is nil; check before registering it as
// an observer, a nil *Bridge in a non-nil interface would panic.
func NewBridge(store *Store, project string, logger *slog.Logger) *Bridge {
	if store == nil {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	b := &Bridge{store: store, sessionID: uuid.NewString(), logger: logger}
	if err := store.CreateSession(b.sessionID, project); err != nil {
		logger.Warn("journal: session not recorded", "session", b.sessionID, "err", err)
	}
	return b
}

// SessionID returns the journal session this bridge writes to.
func (b *Bridge) SessionID() string {
	return b.sessionID
}

// OnWrite records ev. Failures are logged and swallowed: the document is
// already on disk and the journal is history only.
func (b *Bridge) OnWrite(ev workflow.Event) {
	_, err := b.store.Record(Entry{
		SessionID: b.sessionID,
		Project:   ev.Root,
		Operation: ev.Operation,
		Kind:      string(ev.Kind),
		Slug:      ev.Slug,
		Path:      ev.Path,
		Digest:    ev.Digest,
		CreatedAt: ev.At.UTC().Format(time.RFC3339),
	})
	if err != nil {
		b.logger.Warn("journal: write not recorded", "path", ev.Path, "err", err)
	}
}
