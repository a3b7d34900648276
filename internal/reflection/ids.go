package reflection

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// IDGenerator derives a reflection id at creation time.
type IDGenerator interface {
	NewID(now time.Time) string
}

// TimestampIDs formats the creation instant to second precision.
// Two creates within the same second share an id.
type TimestampIDs struct{}

// NewID implements IDGenerator.
func (TimestampIDs) NewID(now time.Time) string {
	return now.Format(IDLayout)
}

// UUIDIDs assigns a random UUID to every reflection.
type UUIDIDs struct{}

// NewID implements IDGenerator.
func (UUIDIDs) NewID(time.Time) string {
	return uuid.New().String()
}

// Supported id strategy names.
const (
	IDStrategyTimestamp = "timestamp"
	IDStrategyUUID      = "uuid"
)

// IDGeneratorFor returns the generator for a configured strategy name.
// An empty name selects the timestamp strategy.
func IDGeneratorFor(strategy string) (IDGenerator, error) {
	switch strings.ToLower(strategy) {
	case "", IDStrategyTimestamp:
		return TimestampIDs{}, nil
	case IDStrategyUUID:
		return UUIDIDs{}, nil
	default:
		return nil, fmt.Errorf("unknown id strategy %q (must be %q or %q)", strategy, IDStrategyTimestamp, IDStrategyUUID)
	}
}
