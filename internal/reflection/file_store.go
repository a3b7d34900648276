package reflection

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fyrsmithlabs/journald/internal/logging"
	"github.com/natefinch/atomic"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	dirMode      = 0o755
	documentMode = 0o644
	indent       = "    "
)

// FileStoreConfig configures a FileStore.
type FileStoreConfig struct {
	// Path is the backing document. Required.
	Path string

	// IDs generates reflection ids (default: TimestampIDs).
	IDs IDGenerator

	// Now is the clock used for generated fields (default: time.Now).
	Now func() time.Time
}

// FileStore persists the reflection collection as one JSON document.
//
// Nothing is cached: every call re-reads the document, and every mutation
// rewrites it in full through a temp file and rename.
type FileStore struct {
	path   string
	ids    IDGenerator
	now    func() time.Time
	logger *zap.Logger
	inst   *instruments

	// mu serializes load-mutate-save cycles within this process.
	mu sync.Mutex
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a store backed by cfg.Path.
// The document is not touched until the first operation.
func NewFileStore(cfg FileStoreConfig, logger *zap.Logger) (*FileStore, error) {
	if cfg.Path == "" {
		return nil, errors.New("backing document path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.IDs == nil {
		cfg.IDs = TimestampIDs{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	inst := newInstruments("file", logger)
	return &FileStore{
		path:   filepath.Clean(cfg.Path),
		ids:    cfg.IDs,
		now:    cfg.Now,
		logger: inst.logger,
		inst:   inst,
	}, nil
}

// Path returns the backing document path.
func (s *FileStore) Path() string {
	return s.path
}

// List returns every reflection in stored order.
func (s *FileStore) List(ctx context.Context) (items []Reflection, err error) {
	ctx, span := s.inst.start(ctx, opList)
	defer func() { s.inst.end(ctx, span, opList, err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err = s.load()
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("result_count", len(items)))
	return items, nil
}

// Create appends a new reflection and rewrites the document.
func (s *FileStore) Create(ctx context.Context, name, text string) (_ *Reflection, err error) {
	ctx, span := s.inst.start(ctx, opCreate)
	defer func() { s.inst.end(ctx, span, opCreate, err) }()

	if err := Validate(name, text); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load()
	if err != nil {
		return nil, err
	}

	r := newReflection(s.now(), s.ids, name, text)
	items = append(items, r)
	if err := s.save(items); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("reflection_id", r.ID))
	s.logger.Debug("reflection created",
		zap.String("id", r.ID),
		zap.Int("count", len(items)))
	return &r, nil
}

// Delete removes every reflection with the given id.
// The document is rewritten only when something was removed.
func (s *FileStore) Delete(ctx context.Context, id string) (removed bool, err error) {
	ctx, span := s.inst.start(ctx, opDelete)
	defer func() { s.inst.end(ctx, span, opDelete, err) }()

	span.SetAttributes(attribute.String("reflection_id", id))
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load()
	if err != nil {
		return false, err
	}

	kept, removed := removeByID(items, id)
	if !removed {
		return false, nil
	}
	if err := s.save(kept); err != nil {
		return false, err
	}

	s.logger.Debug("reflection deleted",
		zap.String("id", id),
		zap.Int("count", len(kept)))
	return true, nil
}

// load reads and parses the backing document.
// A missing or empty document is an empty collection.
func (s *FileStore) load() ([]Reflection, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []Reflection{}, nil
	}
	if err != nil {
		return nil, &PersistenceError{Op: "load", Path: s.path, Err: err}
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return []Reflection{}, nil
	}
	if data[0] != '[' {
		return nil, &PersistenceError{
			Op:   "load",
			Path: s.path,
			Err:  fmt.Errorf("%w: document root is not an array", ErrCorruptDocument),
		}
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, s.corrupt(err)
	}

	items := make([]Reflection, 0, len(raw))
	for i, elem := range raw {
		// Every element must be an object; null would decode to a blank record.
		elem = bytes.TrimSpace(elem)
		if len(elem) == 0 || elem[0] != '{' {
			return nil, s.corrupt(fmt.Errorf("element %d is not an object", i))
		}
		var r Reflection
		if err := json.Unmarshal(elem, &r); err != nil {
			return nil, s.corrupt(fmt.Errorf("element %d: %v", i, err))
		}
		items = append(items, r)
	}

	s.logger.Log(logging.TraceLevel, "backing document loaded",
		zap.String("path", s.path),
		zap.Int("bytes", len(data)),
		zap.Int("count", len(items)))
	return items, nil
}

// corrupt wraps cause as a load failure marked ErrCorruptDocument.
func (s *FileStore) corrupt(cause error) error {
	return &PersistenceError{
		Op:   "load",
		Path: s.path,
		Err:  fmt.Errorf("%w: %v", ErrCorruptDocument, cause),
	}
}

// save replaces the backing document with items.
func (s *FileStore) save(items []Reflection) error {
	if items == nil {
		items = []Reflection{}
	}

	if err := os.MkdirAll(filepath.Dir(s.path), dirMode); err != nil {
		return &PersistenceError{Op: "save", Path: s.path, Err: fmt.Errorf("failed to create data directory: %w", err)}
	}

	data, err := json.MarshalIndent(items, "", indent)
	if err != nil {
		return &PersistenceError{Op: "save", Path: s.path, Err: fmt.Errorf("failed to marshal collection: %w", err)}
	}

	_, statErr := os.Stat(s.path)
	created := errors.Is(statErr, fs.ErrNotExist)

	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		return &PersistenceError{Op: "save", Path: s.path, Err: err}
	}

	// atomic.WriteFile keeps the mode of an existing document; new ones start at 0600.
	if created {
		if err := os.Chmod(s.path, documentMode); err != nil {
			s.logger.Warn("failed to set document permissions", zap.String("path", s.path), zap.Error(err))
		}
	}
	return nil
}
