package reflection

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Time layouts used to derive the generated fields of a Reflection.
const (
	// IDLayout formats an instant to whole-second precision.
	IDLayout = "20060102150405"
	// DateLayout is the human-readable calendar date, e.g. "Mon Jan 02 2006".
	DateLayout = "Mon Jan 02 2006"
	// TimestampLayout is the full-precision ISO-8601 instant.
	TimestampLayout = time.RFC3339Nano
)

// Errors for reflection operations.
var (
	// ErrValidation indicates a required field was missing or blank.
	ErrValidation = errors.New("name and reflection are required")

	// ErrNotFound indicates no reflection matched the given id.
	ErrNotFound = errors.New("reflection not found")

	// ErrCorruptDocument indicates the backing document is not a JSON array of objects.
	ErrCorruptDocument = errors.New("backing document corrupted")
)

// PersistenceError reports a failure to read, parse or write the backing document.
type PersistenceError struct {
	Op   string // "load" or "save"
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("reflection %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsPersistenceError reports whether err is or wraps a *PersistenceError.
func IsPersistenceError(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}

// Reflection is one journal entry.
type Reflection struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Date       string `json:"date"`
	Reflection string `json:"reflection"`
	Timestamp  string `json:"timestamp"`
}

// Store provides create/list/delete over a reflection collection.
type Store interface {
	// List returns every reflection in stored (creation) order.
	List(ctx context.Context) ([]Reflection, error)

	// Create appends a new reflection and returns it with generated fields set.
	Create(ctx context.Context, name, text string) (*Reflection, error)

	// Delete removes every reflection with the given id.
	// Returns false, without rewriting the collection, if none matched.
	Delete(ctx context.Context, id string) (bool, error)
}

// Validate checks the author-supplied fields of a new reflection.
func Validate(name, text string) error {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(text) == "" {
		return ErrValidation
	}
	return nil
}

// newReflection builds a reflection from a single clock reading.
func newReflection(now time.Time, ids IDGenerator, name, text string) Reflection {
	return Reflection{
		ID:         ids.NewID(now),
		Name:       name,
		Date:       now.Format(DateLayout),
		Reflection: text,
		Timestamp:  now.Format(TimestampLayout),
	}
}

// removeByID filters out every reflection with the given id.
func removeByID(items []Reflection, id string) ([]Reflection, bool) {
	kept := make([]Reflection, 0, len(items))
	for _, r := range items {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	return kept, len(kept) != len(items)
}
