package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/zettelapp/zettel-server/internal/domain"
	"github.com/zettelapp/zettel-server/internal/id"
	"github.com/zettelapp/zettel-server/internal/store"
)

// userColumns is the ordered list of columns selected in user queries.
// Must match the scan order in scanUser.
const userColumns = `id, email, password_hash, created_at`

// scanUser scans a sql.Row (or sql.Rows via its Scan method) into a domain.User.
func scanUser(scanner interface{ Scan(dest ...any) error }) (*domain.User, error) {
	var (
		u         domain.User
		createdAt string
	)

	if err := scanner.Scan(&u.ID, &u.Email, &u.PasswordHash, &createdAt); err != nil {
		return nil, err
	}

	var err error
	u.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// IsEmailUsed reports whether an account with exactly this email exists.
func (s *Store) IsEmailUsed(ctx context.Context, email string) (bool, error) {
	return viewResult(ctx, s, func(tx *Tx) (bool, error) {
		return tx.IsEmailUsed(ctx, email)
	})
}

// AddUser creates an account. The password is hashed before the
// transaction opens, so the write lock is not held during hashing.
// Returns store.ErrAlreadyExists if the email is taken.
func (s *Store) AddUser(ctx context.Context, email, password string) (*domain.User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return updateResult(ctx, s, func(tx *Tx) (*domain.User, error) {
		return tx.insertUser(ctx, email, hash)
	})
}

// AuthenticateUser returns the user only if password matches the stored hash.
// A wrong password and an unknown email both report found == false.
func (s *Store) AuthenticateUser(ctx context.Context, email, password string) (*domain.User, bool, error) {
	u, found, err := s.GetUserByEmail(ctx, email)
	if err != nil || !found {
		return nil, false, err
	}
	return verifyUser(s.hasher, u, password)
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, userID string) (*domain.User, bool, error) {
	return lookup(ctx, s, func(tx *Tx) (*domain.User, bool, error) {
		return tx.GetUser(ctx, userID)
	})
}

// GetUserByEmail retrieves a user by exact email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, bool, error) {
	return lookup(ctx, s, func(tx *Tx) (*domain.User, bool, error) {
		return tx.GetUserByEmail(ctx, email)
	})
}

// IsEmailUsed reports whether an account with exactly this email exists.
func (t *Tx) IsEmailUsed(ctx context.Context, email string) (bool, error) {
	var used bool
	err := t.tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`, email).Scan(&used)
	if err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return used, nil
}

// AddUser creates an account.
// Returns store.ErrAlreadyExists if the email is taken.
func (t *Tx) AddUser(ctx context.Context, email, password string) (*domain.User, error) {
	hash, err := t.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return t.insertUser(ctx, email, hash)
}

func (t *Tx) insertUser(ctx context.Context, email, passwordHash string) (*domain.User, error) {
	userID, err := id.Generate(id.PrefixUser)
	if err != nil {
		return nil, fmt.Errorf("generate user id: %w", err)
	}

	u := &domain.User{
		ID:           userID,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}

	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, created_at)
		VALUES (?, ?, ?, ?)`,
		u.ID,
		u.Email,
		u.PasswordHash,
		formatTime(u.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrAlreadyExists.WithMessage("email already in use").WithCause(err)
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	t.logger.Debug("user created", "user_id", u.ID)
	return u, nil
}

// AuthenticateUser returns the user only if password matches the stored hash.
func (t *Tx) AuthenticateUser(ctx context.Context, email, password string) (*domain.User, bool, error) {
	u, found, err := t.GetUserByEmail(ctx, email)
	if err != nil || !found {
		return nil, false, err
	}
	return verifyUser(t.hasher, u, password)
}

// GetUser retrieves a user by ID.
func (t *Tx) GetUser(ctx context.Context, userID string) (*domain.User, bool, error) {
	row := t.tx.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, userID)
	return scanUserRow(row)
}

// GetUserByEmail retrieves a user by exact email.
func (t *Tx) GetUserByEmail(ctx context.Context, email string) (*domain.User, bool, error) {
	row := t.tx.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUserRow(row)
}

func scanUserRow(row *sql.Row) (*domain.User, bool, error) {
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get user: %w", err)
	}
	return u, true, nil
}

func verifyUser(h store.PasswordHasher, u *domain.User, password string) (*domain.User, bool, error) {
	ok, err := h.Verify(u.PasswordHash, password)
	if err != nil {
		return nil, false, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	return u, true, nil
}
