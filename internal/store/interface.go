// Package store defines the persistence interface for the Zettelkasten server.
package store

import (
	"context"

	"github.com/zettelapp/zettel-server/internal/domain"
)

// Users is the user directory.
type Users interface {
	IsEmailUsed(ctx context.Context, email string) (bool, error)
	AddUser(ctx context.Context, email, password string) (*domain.User, error)
	AuthenticateUser(ctx context.Context, email, password string) (*domain.User, bool, error)
	GetUser(ctx context.Context, id string) (*domain.User, bool, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, bool, error)
}

// Tags is the per-user tag registry.
type Tags interface {
	ResolveOrCreateTag(ctx context.Context, userID, text string) (string, error)
	AssociateTag(ctx context.Context, userID, noteID, text string) (domain.Tag, error)
	DissociateTag(ctx context.Context, tagID, noteID string) error
	GetTag(ctx context.Context, tagID string) (domain.Tag, bool, error)
	TagsForNote(ctx context.Context, noteID string) (domain.TagSet, error)
	TagsForUser(ctx context.Context, userID string) ([]domain.TagUsage, error)
}

// Notes is the note store together with its derived link and search queries.
type Notes interface {
	AddNote(ctx context.Context, userID, title, text string, tags []string) (*domain.Note, error)
	UpdateNote(ctx context.Context, noteID string, update domain.NoteUpdate) (domain.UpdateResult, error)
	DeleteNote(ctx context.Context, noteID string) error
	GetNote(ctx context.Context, userID string, localID int64) (*domain.Note, bool, error)
	GetUserNotes(ctx context.Context, userID string) ([]*domain.Note, error)
	SearchNotes(ctx context.Context, userID, query string) ([]*domain.Note, error)

	// GetNotesWithTag does not check who owns tagID. Callers must.
	GetNotesWithTag(ctx context.Context, tagID string) ([]*domain.Note, error)

	// GetNotesLinkedTo matches "[...](localID)" in note text. It is a textual
	// heuristic and can report coincidental matches.
	GetNotesLinkedTo(ctx context.Context, userID string, localID int64) ([]domain.NoteLink, error)
}

// Notebook is every operation of the store. It is implemented both by the
// store itself, where each call runs in its own transaction, and by a unit
// of work, where all calls share one transaction.
type Notebook interface {
	Users
	Tags
	Notes

	// InTx runs fn in a unit of work. On the store it opens a transaction
	// that commits only if fn returns nil; inside a unit of work it joins
	// the current transaction.
	InTx(ctx context.Context, fn func(nb Notebook) error) error
}

// Store is a Notebook that owns a database connection.
type Store interface {
	Notebook
	Ping(ctx context.Context) error
	Close() error
}

// PasswordHasher hashes and verifies passwords with a one-way, salted algorithm.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(encodedHash, password string) (bool, error)
}
