package blob

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"vendorguard/internal/errs"
)

// FSStore keeps uploaded document content on the local filesystem, one
// file per blob, keyed by a generated opaque reference. The engine only
// ever round-trips the reference; content is never interpreted.
type FSStore struct {
	root string
}

func NewFSStore(root string) (*FSStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("blob store root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errs.Wrapf(err, "create blob root %q", root)
	}
	return &FSStore{root: root}, nil
}

func (s *FSStore) Put(ctx context.Context, data []byte, fileName string, mediaType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", errs.Wrap(err, "check context")
	}
	if len(data) == 0 {
		return "", errors.New("blob content is empty")
	}

	ref := uuid.New().String()
	if err := os.WriteFile(s.path(ref), data, 0o644); err != nil {
		return "", errs.Wrapf(err, "write blob %s", ref)
	}
	return ref, nil
}

func (s *FSStore) Get(ctx context.Context, ref string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}
	if ref != filepath.Base(ref) || strings.Contains(ref, "..") {
		return nil, fmt.Errorf("invalid blob ref %q", ref)
	}

	data, err := os.ReadFile(s.path(ref))
	if err != nil {
		return nil, errs.Wrapf(err, "read blob %s", ref)
	}
	return data, nil
}

func (s *FSStore) path(ref string) string {
	return filepath.Join(s.root, ref)
}
