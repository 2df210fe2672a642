package tools

import (
	"context"
	"io"

	"github.com/sqlchart/sqlchart/internal/storage"
)

type discardStore struct{}

func newDiscardStore() discardStore { return discardStore{} }

func (discardStore) Put(_ context.Context, key string, body io.Reader, _ int64, opts storage.PutOptions) (storage.ObjectInfo, error) {
	n, err := io.Copy(io.Discard, body)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	return storage.ObjectInfo{Key: key, Location: "discard://" + key, Size: n, ContentType: opts.ContentType}, nil
}

func (discardStore) Get(context.Context, string) (io.ReadCloser, error) {
	return nil, storage.ErrObjectNotFound
}

func (discardStore) Stat(context.Context, string) (storage.ObjectInfo, error) {
	return storage.ObjectInfo{}, storage.ErrObjectNotFound
}
