package reflection

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// MemoryStore keeps the collection in process memory.
// It has the same semantics as FileStore without persistence.
type MemoryStore struct {
	ids    IDGenerator
	now    func() time.Time
	inst   *instruments
	mu     sync.Mutex
	items  []Reflection
	writes int
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
// Nil ids and now select TimestampIDs and time.Now.
func NewMemoryStore(ids IDGenerator, now func() time.Time, logger *zap.Logger) *MemoryStore {
	if ids == nil {
		ids = TimestampIDs{}
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryStore{
		ids:   ids,
		now:   now,
		inst:  newInstruments("memory", logger),
		items: []Reflection{},
	}
}

// List returns a copy of the collection in stored order.
func (m *MemoryStore) List(ctx context.Context) (items []Reflection, err error) {
	ctx, span := m.inst.start(ctx, opList)
	defer func() { m.inst.end(ctx, span, opList, err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	items = make([]Reflection, len(m.items))
	copy(items, m.items)
	span.SetAttributes(attribute.Int("result_count", len(items)))
	return items, nil
}

// Create appends a new reflection.
func (m *MemoryStore) Create(ctx context.Context, name, text string) (_ *Reflection, err error) {
	ctx, span := m.inst.start(ctx, opCreate)
	defer func() { m.inst.end(ctx, span, opCreate, err) }()

	if err := Validate(name, text); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	r := newReflection(m.now(), m.ids, name, text)
	m.items = append(m.items, r)
	m.writes++
	return &r, nil
}

// Delete removes every reflection with the given id.
func (m *MemoryStore) Delete(ctx context.Context, id string) (removed bool, err error) {
	ctx, span := m.inst.start(ctx, opDelete)
	defer func() { m.inst.end(ctx, span, opDelete, err) }()

	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	kept, removed := removeByID(m.items, id)
	if !removed {
		return false, nil
	}
	m.items = kept
	m.writes++
	return true, nil
}

// Writes returns how many times the collection has been replaced.
func (m *MemoryStore) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
