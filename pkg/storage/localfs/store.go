// Package localfs implements a file system backed blob store.
//
// Objects are staged under a hidden prefix and renamed into place, so
// that concurrent readers never observe a partially written object on
// file systems with atomic Rename.
package localfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/starworks/depot/pkg/storage"
	"github.com/starworks/depot/pkg/storage/status"
)

// stage area for in-flight puts, renamed into place on completion
const putStageName = ".put-stage"

// New creates a local file system backed blob store
func New(fs afero.Fs) (storage.Store, error) {
	if fs == nil {
		fs = afero.NewBasePathFs(afero.NewOsFs(), filepath.Join(".depot", "objects"))
	}
	if err := fs.MkdirAll(putStageName, 0700); err != nil {
		return nil, fmt.Errorf("ensuring put staging directory %q: %w", putStageName, err)
	}
	return &localFS{fs: fs}, nil
}

type localFS struct {
	fs afero.Fs
}

func maybeInvalidKey(key string) error {
	if key == "" {
		return status.ErrInvalidKey
	}
	pathComponents := strings.Split(strings.TrimLeft(key, "/"), "/")
	if len(pathComponents) > 0 && pathComponents[0] == putStageName {
		return status.ErrInvalidKey.WrapMessage(nil, "key %q conflicts with staging area", key)
	}
	return nil
}

func (l *localFS) Has(ctx context.Context, key string) (bool, error) {
	if err := maybeInvalidKey(key); err != nil {
		return false, err
	}
	fi, err := l.fs.Stat(key)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return !fi.IsDir(), nil
}

func (l *localFS) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := maybeInvalidKey(key); err != nil {
		return nil, err
	}
	has, err := l.Has(ctx, key)
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, status.ErrNotFound
	}
	return l.fs.Open(key)
}

func (l *localFS) Put(ctx context.Context, key string, source io.Reader, doesNotExist bool) error {
	if err := maybeInvalidKey(key); err != nil {
		return err
	}
	if doesNotExist {
		has, err := l.Has(ctx, key)
		if err != nil {
			return err
		}
		if has {
			return status.ErrExists
		}
	}

	// distinct staged name per put: concurrent writers of one key must
	// not interleave on the same staging file
	stageKey := filepath.Join(putStageName, filepath.Base(key)+"."+uuid.NewString())
	if dir := filepath.Dir(stageKey); dir != "" {
		if err := l.fs.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("ensuring directories for %q: %w", stageKey, err)
		}
	}
	target, err := l.fs.OpenFile(stageKey, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("create object for %q: %w", key, err)
	}
	if _, err = storage.PipeIO(target, source); err != nil {
		_ = target.Close()
		_ = l.fs.Remove(stageKey)
		return fmt.Errorf("write object for %q: %w", key, err)
	}
	if err = target.Close(); err != nil {
		_ = l.fs.Remove(stageKey)
		return err
	}

	if dir := filepath.Dir(key); dir != "" {
		if err = l.fs.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("ensuring directories for %q: %w", key, err)
		}
	}
	return l.fs.Rename(stageKey, key)
}

func (l *localFS) Delete(ctx context.Context, key string) error {
	if err := maybeInvalidKey(key); err != nil {
		return err
	}
	if err := l.fs.Remove(key); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing %q: %w", key, err)
	}
	return nil
}

func (l *localFS) Keys(ctx context.Context) ([]string, error) {
	const root = "."
	var res []string
	e := afero.Walk(l.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path == root || info.IsDir() {
			return nil
		}
		if invalid := maybeInvalidKey(path); invalid != nil {
			// skip in-flight staged objects
			return nil
		}
		res = append(res, path)
		return nil
	})
	if e != nil {
		return nil, e
	}
	return res, nil
}

func (l *localFS) String() string {
	const localfs = "localfs"
	switch fs := l.fs.(type) {
	case *afero.BasePathFs:
		pp, err := fs.RealPath("")
		if err != nil {
			return localfs
		}
		return localfs + "@" + pp
	default:
		return localfs
	}
}
