package repository

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	saltLength  = 16
	nonceLength = 24

	argon2Time    = 1
	argon2Memory  = 64 * 1024
	argon2Threads = 4
	argon2KeyLen  = 32
)

var fileMagic = []byte("AQV1")

var ErrTokenDecrypt = errors.New("token file: wrong passphrase or corrupted data")

// FileTokenRepository keeps the token in a secretbox-sealed file. The key is
// derived from the passphrase with Argon2id and a per-write salt.
type FileTokenRepository struct {
	path       string
	passphrase []byte
	log        *zap.SugaredLogger
}

func NewFileTokenRepository(path, passphrase string, log *zap.SugaredLogger) *FileTokenRepository {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if passphrase == "" {
		// Without a passphrase the file is only obfuscated.
		passphrase = defaultPassphrase()
	}
	return &FileTokenRepository{
		path:       filepath.Clean(path),
		passphrase: []byte(passphrase),
		log:        log,
	}
}

func (r *FileTokenRepository) Load(ctx context.Context) (string, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}
	if len(data) == 0 {
		return "", nil
	}
	return r.open(data)
}

func (r *FileTokenRepository) Save(ctx context.Context, token string) error {
	sealed, err := r.seal(token)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".token-*")
	if err != nil {
		return fmt.Errorf("create temp token file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(sealed); err != nil {
		tmp.Close()
		return fmt.Errorf("write token file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close token file: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("replace token file: %w", err)
	}
	return nil
}

func (r *FileTokenRepository) Delete(ctx context.Context) error {
	err := os.Remove(r.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}

// Watch calls onChange whenever the token file is written, replaced or
// removed, until ctx is done. The directory is watched so that atomic
// renames are seen.
func (r *FileTokenRepository) Watch(ctx context.Context, onChange func()) error {
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != r.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				r.log.Debugf("token file changed: %s", event.Op)
				onChange()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			r.log.Warnf("token file watcher: %v", err)
		}
	}
}

func (r *FileTokenRepository) seal(token string) ([]byte, error) {
	salt := make([]byte, saltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	var nonce [nonceLength]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	key := r.deriveKey(salt)

	out := make([]byte, 0, len(fileMagic)+saltLength+nonceLength+len(token)+secretbox.Overhead)
	out = append(out, fileMagic...)
	out = append(out, salt...)
	out = append(out, nonce[:]...)
	return secretbox.Seal(out, []byte(token), &nonce, &key), nil
}

func (r *FileTokenRepository) open(data []byte) (string, error) {
	header := len(fileMagic) + saltLength + nonceLength
	if len(data) < header+secretbox.Overhead || !bytes.HasPrefix(data, fileMagic) {
		return "", ErrTokenDecrypt
	}
	salt := data[len(fileMagic) : len(fileMagic)+saltLength]
	var nonce [nonceLength]byte
	copy(nonce[:], data[len(fileMagic)+saltLength:header])
	key := r.deriveKey(salt)

	plain, ok := secretbox.Open(nil, data[header:], &nonce, &key)
	if !ok {
		return "", ErrTokenDecrypt
	}
	return string(plain), nil
}

func (r *FileTokenRepository) deriveKey(salt []byte) [argon2KeyLen]byte {
	var key [argon2KeyLen]byte
	copy(key[:], argon2.IDKey(r.passphrase, salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen))
	return key
}

func defaultPassphrase() string {
	host, _ := os.Hostname()
	home, _ := os.UserHomeDir()
	return "aqve:" + host + ":" + home
}
