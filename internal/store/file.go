package store

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

var ErrSealed = errors.New("token file cannot be opened with the configured key")

// File stores the token in a single file readable only by the owner. With a
// key the contents are sealed with XChaCha20-Poly1305.
type File struct {
	path string
	key  []byte
}

func NewFile(path string, key []byte) (*File, error) {
	if key != nil && len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("token key must be %d bytes", chacha20poly1305.KeySize)
	}
	return &File{path: path, key: key}, nil
}

func (f *File) Path() string { return f.path }

func (f *File) Load(context.Context) (string, error) {
	b, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	if f.key == nil {
		return strings.TrimSpace(string(b)), nil
	}
	return f.open(b)
}

func (f *File) Save(_ context.Context, token string) error {
	if token == "" {
		return f.Clear(context.Background())
	}
	data := []byte(token)
	if f.key != nil {
		sealed, err := f.seal(data)
		if err != nil {
			return err
		}
		data = sealed
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("token dir: %w", err)
	}

	// write then rename so a crash never leaves half a token behind
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".token-*")
	if err != nil {
		return fmt.Errorf("token temp: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write token: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod token: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close token: %w", err)
	}
	return os.Rename(tmp.Name(), f.path)
}

func (f *File) Clear(context.Context) error {
	err := os.Remove(f.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}

func (f *File) seal(plain []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(f.key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plain)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return aead.Seal(nonce, nonce, plain, nil), nil
}

func (f *File) open(b []byte) (string, error) {
	aead, err := chacha20poly1305.NewX(f.key)
	if err != nil {
		return "", err
	}
	if len(b) < aead.NonceSize() {
		return "", ErrSealed
	}
	nonce, ct := b[:aead.NonceSize()], b[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", ErrSealed
	}
	return string(plain), nil
}
