package store

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/crypto/chacha20poly1305"

	"foodrescue/internal/domain"
	"foodrescue/pkg/platform/sentinel"
)

const (
	filePerm = 0o600
	dirPerm  = 0o700
)

// FileStore keeps the record in a single file, replaced whole on every save.
// With a key configured the file is sealed with ChaCha20-Poly1305 and a
// random nonce is prepended to the ciphertext.
type FileStore struct {
	path string
	aead cipher.AEAD
}

// FileOption configures a FileStore.
type FileOption func(*FileStore) error

// WithEncryptionKey seals the file with a 32-byte key.
func WithEncryptionKey(key []byte) FileOption {
	return func(s *FileStore) error {
		if len(key) == 0 {
			return nil
		}
		if len(key) != chacha20poly1305.KeySize {
			return fmt.Errorf("session key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
		}
		aead, err := chacha20poly1305.New(key)
		if err != nil {
			return fmt.Errorf("new session cipher: %w", err)
		}
		s.aead = aead
		return nil
	}
}

// NewFile returns a store writing to path. The directory is created on the
// first save.
func NewFile(path string, opts ...FileOption) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("session file path is required")
	}
	s := &FileStore{path: path}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// DefaultPath is <user config dir>/foodrescue/auth.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "foodrescue", Key), nil
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Load(_ context.Context) (domain.Identity, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.Identity{}, sentinel.ErrNotFound
	}
	if err != nil {
		return domain.Identity{}, fmt.Errorf("read session file: %w", err)
	}
	if s.aead != nil {
		data, err = s.open(data)
		if err != nil {
			return domain.Identity{}, err
		}
	}
	return decode(data)
}

func (s *FileStore) Save(_ context.Context, id domain.Identity) error {
	data, err := encode(id)
	if err != nil {
		return err
	}
	if s.aead != nil {
		if data, err = s.seal(data); err != nil {
			return err
		}
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if err := tmp.Chmod(filePerm); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod session file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close session file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

func (s *FileStore) Clear(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

func (s *FileStore) seal(plain []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plain)+s.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return s.aead.Seal(nonce, nonce, plain, []byte(Key)), nil
}

// open fails with ErrCorrupted for truncated or tampered files and for files
// sealed with a different key.
func (s *FileStore) open(sealed []byte) ([]byte, error) {
	if len(sealed) < s.aead.NonceSize() {
		return nil, fmt.Errorf("session file too short: %w", sentinel.ErrCorrupted)
	}
	nonce, ciphertext := sealed[:s.aead.NonceSize()], sealed[s.aead.NonceSize():]
	plain, err := s.aead.Open(nil, nonce, ciphertext, []byte(Key))
	if err != nil {
		return nil, fmt.Errorf("open session file: %w: %w", sentinel.ErrCorrupted, err)
	}
	return plain, nil
}
