// Package source defines the boundary to external record providers: a form
// can seed its defaults from a record fetched by identifier, treating the
// provider as an opaque call that returns a structured record or fails.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
)

// RecordSource fetches a nested record by identifier. Implementations must
// honour context cancellation.
type RecordSource interface {
	Fetch(ctx context.Context, id string) (map[string]any, error)
}

// FSSource resolves identifiers to JSON documents inside an fs.FS, looking
// up "<dir>/<id>.json".
type FSSource struct {
	fsys fs.FS
	dir  string
}

// NewFSSource constructs an FSSource rooted at dir within fsys. An empty dir
// reads from the filesystem root.
func NewFSSource(fsys fs.FS, dir string) (*FSSource, error) {
	if fsys == nil {
		return nil, errors.New("source: filesystem is nil")
	}
	return &FSSource{fsys: fsys, dir: dir}, nil
}

// Fetch reads and decodes the record for id.
func (s *FSSource) Fetch(ctx context.Context, id string) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, errors.New("source: record id is empty")
	}

	name := id + ".json"
	if s.dir != "" {
		name = path.Join(s.dir, name)
	}
	data, err := fs.ReadFile(s.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("source: read record %q: %w", id, err)
	}
	return decodeRecord(id, data)
}

func decodeRecord(id string, data []byte) (map[string]any, error) {
	var record map[string]any
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("source: decode record %q: %w", id, err)
	}
	return record, nil
}
