package core

import (
	"context"
	"io"

	"github.com/starworks/depot/pkg/storage"
	"github.com/starworks/depot/pkg/storage/status"
)

// downStore simulates an unreachable blob backend: every operation
// fails with a transport-level error
type downStore struct{}

func (downStore) String() string { return "down-store" }

func (downStore) Has(context.Context, string) (bool, error) {
	return false, status.ErrStorageAPI.WrapMessage(nil, "connection refused")
}

func (downStore) Get(context.Context, string) (io.ReadCloser, error) {
	return nil, status.ErrStorageAPI.WrapMessage(nil, "connection refused")
}

func (downStore) Put(context.Context, string, io.Reader, bool) error {
	return status.ErrStorageAPI.WrapMessage(nil, "connection refused")
}

func (downStore) Delete(context.Context, string) error {
	return status.ErrStorageAPI.WrapMessage(nil, "connection refused")
}

func (downStore) Keys(context.Context) ([]string, error) {
	return nil, status.ErrStorageAPI.WrapMessage(nil, "connection refused")
}

// flakyDeleteStore wraps a working store but refuses deletes, to
// exercise the orphaned blob logging path
type flakyDeleteStore struct {
	storage.Store
}

func (f flakyDeleteStore) Delete(context.Context, string) error {
	return status.ErrStorageAPI.WrapMessage(nil, "delete refused")
}
