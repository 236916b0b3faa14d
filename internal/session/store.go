package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/togglr/togglr-admin/internal/api"
)

var bucketSession = []byte("session")

// Storage keys
var (
	keyToken = []byte("togglr_token")
	keyUser  = []byte("togglr_user")
	keyTheme = []byte("togglr_theme")
)

// DefaultLockTimeout is how long an operation waits for another process
// holding the state file
const DefaultLockTimeout = 2 * time.Second

// Record is the persisted session
type Record struct {
	Token string
	User  *api.User
	Theme Theme
}

// Authenticated reports whether both token and user are present
func (r Record) Authenticated() bool {
	return r.Token != "" && r.User != nil
}

// Store persists the session in a bbolt file. The file is opened for each
// operation so several processes can share it.
type Store struct {
	path    string
	timeout time.Duration
}

// NewStore creates the state file and its bucket when missing
func NewStore(path string, lockTimeout time.Duration) (*Store, error) {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	s := &Store{path: path, timeout: lockTimeout}
	err := s.update(func(b *bolt.Bucket) error { return nil })
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the state file path
func (s *Store) Path() string {
	return s.path
}

func (s *Store) open(readOnly bool) (*bolt.DB, error) {
	db, err := bolt.Open(s.path, 0600, &bolt.Options{
		Timeout:  s.timeout,
		ReadOnly: readOnly,
	})
	if err != nil {
		if errors.Is(err, bolt.ErrTimeout) {
			return nil, fmt.Errorf("state file %s is locked by another process: %w", s.path, err)
		}
		return nil, fmt.Errorf("failed to open state file: %w", err)
	}
	return db, nil
}

func (s *Store) update(fn func(b *bolt.Bucket) error) error {
	db, err := s.open(false)
	if err != nil {
		return err
	}
	defer db.Close()

	return db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketSession)
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketSession, err)
		}
		return fn(b)
	})
}

func (s *Store) view(fn func(b *bolt.Bucket) error) error {
	db, err := s.open(true)
	if err != nil {
		return err
	}
	defer db.Close()

	return db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSession)
		if b == nil {
			return nil
		}
		return fn(b)
	})
}

// Load reads the persisted session. A corrupt user record is treated as
// absent.
func (s *Store) Load(ctx context.Context) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}

	rec := Record{Theme: DefaultTheme}
	err := s.view(func(b *bolt.Bucket) error {
		rec.Token = string(b.Get(keyToken))
		if data := b.Get(keyUser); data != nil {
			var u api.User
			if err := json.Unmarshal(data, &u); err == nil {
				rec.User = &u
			}
		}
		if t, err := ParseTheme(string(b.Get(keyTheme))); err == nil {
			rec.Theme = t
		}
		return nil
	})
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

// SaveSession stores token and user
func (s *Store) SaveSession(ctx context.Context, token string, user *api.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}
	return s.update(func(b *bolt.Bucket) error {
		if err := b.Put(keyToken, []byte(token)); err != nil {
			return fmt.Errorf("failed to store token: %w", err)
		}
		if err := b.Put(keyUser, data); err != nil {
			return fmt.Errorf("failed to store user: %w", err)
		}
		return nil
	})
}

// ClearSession removes token and user. The theme is kept.
func (s *Store) ClearSession(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.update(func(b *bolt.Bucket) error {
		if err := b.Delete(keyToken); err != nil {
			return err
		}
		return b.Delete(keyUser)
	})
}

// SetTheme persists the theme
func (s *Store) SetTheme(ctx context.Context, theme Theme) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := ParseTheme(string(theme)); err != nil {
		return err
	}
	return s.update(func(b *bolt.Bucket) error {
		return b.Put(keyTheme, []byte(theme))
	})
}

// Token returns the stored token, so the store can serve as an
// api.TokenSource for one-shot commands
func (s *Store) Token(ctx context.Context) (string, error) {
	rec, err := s.Load(ctx)
	if err != nil {
		return "", err
	}
	return rec.Token, nil
}
