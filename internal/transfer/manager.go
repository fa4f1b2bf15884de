package transfer

import (
	"fmt"
	"sync"

	"github.com/rescale/pdrive/internal/events"
	"github.com/rescale/pdrive/internal/logging"
)

// Manager hands out one Coordinator per destination folder, so reopening the
// uploader for a folder shows the same queue.
type Manager struct {
	uploader Uploader
	eventBus *events.EventBus
	logger   *logging.Logger

	mu           sync.Mutex
	coordinators map[int64]*Coordinator
	onComplete   func(Summary)
}

// NewManager creates a manager whose coordinators upload through uploader.
func NewManager(uploader Uploader, bus *events.EventBus, logger *logging.Logger) *Manager {
	return &Manager{
		uploader:     uploader,
		eventBus:     bus,
		logger:       logger,
		coordinators: make(map[int64]*Coordinator),
	}
}

// OnComplete sets the callback installed on every coordinator, including
// ones created earlier.
func (m *Manager) OnComplete(fn func(Summary)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onComplete = fn
	for _, c := range m.coordinators {
		c.OnComplete(fn)
	}
}

// ForFolder returns the coordinator for folderID, creating it on first use.
func (m *Manager) ForFolder(folderID int64) *Coordinator {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.coordinators[folderID]; ok {
		return c
	}
	c := NewCoordinator(folderID, m.uploader, m.eventBus, m.logger)
	if m.onComplete != nil {
		c.OnComplete(m.onComplete)
	}
	m.coordinators[folderID] = c
	return c
}

// GetStats returns counts across every coordinator.
func (m *Manager) GetStats() ManagerStats {
	m.mu.Lock()
	coords := make([]*Coordinator, 0, len(m.coordinators))
	for _, c := range m.coordinators {
		coords = append(coords, c)
	}
	m.mu.Unlock()

	var stats ManagerStats
	for _, c := range coords {
		stats.Folders++
		for _, t := range c.Tasks() {
			switch t.Status {
			case StatusPending:
				stats.Pending++
			case StatusUploading:
				stats.Uploading++
			case StatusSuccess:
				stats.Succeeded++
			case StatusError:
				stats.Failed++
			}
		}
	}
	return stats
}

// ManagerStats holds statistics about all upload queues
type ManagerStats struct {
	Folders   int
	Pending   int
	Uploading int
	Succeeded int
	Failed    int
}

// String returns a string representation of the stats
func (s ManagerStats) String() string {
	return fmt.Sprintf("folders=%d pending=%d uploading=%d succeeded=%d failed=%d",
		s.Folders, s.Pending, s.Uploading, s.Succeeded, s.Failed)
}
