package code

import (
	"time"

	"github.com/GriffinCanCode/coderegistry/internal/shared/types"
)

// Event types
const (
	EventPublished = "published"
	EventRejected  = "rejected"
)

// Event describes one settled publish attempt
type Event struct {
	Type          string        `json:"type"`
	TxID          string        `json:"tx_id"`
	Publisher     types.Address `json:"publisher"`
	Package       string        `json:"package"`
	UpgradeNumber uint64        `json:"upgrade_number,omitempty"`
	Policy        string        `json:"upgrade_policy,omitempty"`
	Kind          string        `json:"kind,omitempty"`
	AbortCode     uint64        `json:"abort_code,omitempty"`
	Error         string        `json:"error,omitempty"`
	Timestamp     int64         `json:"timestamp"`
}

// Observer receives publish events after the transaction settles. It is
// called on the publishing goroutine and must not block.
type Observer interface {
	PublishObserved(Event)
}

// WithObserver registers an observer for publish events
func (m *Manager) WithObserver(o Observer) *Manager {
	m.observers = append(m.observers, o)
	return m
}

func (m *Manager) notify(ev Event) {
	ev.Timestamp = time.Now().Unix()
	for _, o := range m.observers {
		o.PublishObserved(ev)
	}
}
