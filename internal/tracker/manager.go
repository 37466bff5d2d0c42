package tracker

import (
	"errors"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"adsbtrack/internal/adsb"
	"adsbtrack/internal/registry"
)

// PurgeAgeNs is how long an aircraft is kept after its last message
const PurgeAgeNs = int64(60e9)

// TrajectoryPoint is a position of an aircraft along with its altitude
type TrajectoryPoint struct {
	Position  adsb.GeoPos
	AltitudeM float64
}

// Aircraft is the tracked state of one aircraft
type Aircraft struct {
	adsb.AircraftState

	Info         *registry.AircraftInfo
	Trajectory   []TrajectoryPoint
	MessageCount uint64

	trajectoryTs int64
}

// clone returns a copy that shares no memory with a
func (a *Aircraft) clone() Aircraft {
	c := *a
	if a.Position != nil {
		pos := *a.Position
		c.Position = &pos
	}
	if a.Info != nil {
		info := *a.Info
		c.Info = &info
	}
	c.Trajectory = append([]TrajectoryPoint(nil), a.Trajectory...)
	return c
}

// updateTrajectory appends the position when it changed, or replaces the altitude of the
// last point when the same message changed only the altitude
func (a *Aircraft) updateTrajectory() {
	if a.Position == nil {
		return
	}
	ts := a.LastMessageTs
	n := len(a.Trajectory)

	switch {
	case n == 0 || a.Trajectory[n-1].Position != *a.Position:
		a.Trajectory = append(a.Trajectory, TrajectoryPoint{Position: *a.Position, AltitudeM: a.AltitudeM})
		a.trajectoryTs = ts
	case ts == a.trajectoryTs && a.Trajectory[n-1].AltitudeM != a.AltitudeM:
		a.Trajectory[n-1].AltitudeM = a.AltitudeM
	}
}

// Manager tracks every aircraft heard. It is safe for concurrent use; updates are
// serialised so that each aircraft's state sees its messages in order.
type Manager struct {
	mu       sync.RWMutex
	aircraft map[adsb.IcaoAddress]*Aircraft
	registry registry.Registry
	logger   *logrus.Logger

	lastTimestamp int64
	messages      uint64
}

// NewManager creates a manager. reg may be nil when no registry is available.
func NewManager(reg registry.Registry, logger *logrus.Logger) *Manager {
	return &Manager{
		aircraft: make(map[adsb.IcaoAddress]*Aircraft),
		registry: reg,
		logger:   logger,
	}
}

// Update folds msg into the state of its aircraft, creating it on its first message,
// and returns a copy of the updated state along with whether its position changed
func (m *Manager) Update(msg adsb.Message) (Aircraft, bool) {
	addr := msg.ICAO()

	m.mu.Lock()
	defer m.mu.Unlock()

	a, exists := m.aircraft[addr]
	if !exists {
		a = &Aircraft{AircraftState: *adsb.NewAircraftState(addr), Info: m.lookup(addr)}
		m.aircraft[addr] = a
		m.logger.WithFields(logrus.Fields{
			"icao":     addr,
			"aircraft": len(m.aircraft),
		}).Debug("New aircraft")
	}

	moved := a.Update(msg)
	a.MessageCount++
	a.updateTrajectory()

	m.messages++
	if ts := msg.Timestamp(); ts > m.lastTimestamp {
		m.lastTimestamp = ts
	}

	return a.clone(), moved
}

// lookup returns the registry data of addr, nil when unknown
func (m *Manager) lookup(addr adsb.IcaoAddress) *registry.AircraftInfo {
	if m.registry == nil {
		return nil
	}
	info, err := m.registry.Lookup(addr)
	if err != nil {
		if !errors.Is(err, registry.ErrNotFound) {
			m.logger.WithError(err).WithField("icao", addr).Warn("Registry lookup failed")
		}
		return nil
	}
	return &info
}

// Purge removes every aircraft whose last message is more than a minute older than
// nowNs and returns their addresses
func (m *Manager) Purge(nowNs int64) []adsb.IcaoAddress {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed []adsb.IcaoAddress
	for addr, a := range m.aircraft {
		if nowNs-a.LastMessageTs > PurgeAgeNs {
			delete(m.aircraft, addr)
			removed = append(removed, addr)
		}
	}

	if len(removed) > 0 {
		sort.Slice(removed, func(i, j int) bool { return removed[i] < removed[j] })
		m.logger.WithFields(logrus.Fields{
			"removed":   len(removed),
			"remaining": len(m.aircraft),
		}).Debug("Purged aircraft")
	}
	return removed
}

// Get returns a copy of the state of addr
func (m *Manager) Get(addr adsb.IcaoAddress) (Aircraft, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.aircraft[addr]
	if !ok {
		return Aircraft{}, false
	}
	return a.clone(), true
}

// Snapshot returns a copy of every tracked aircraft sorted by address
func (m *Manager) Snapshot() []Aircraft {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Aircraft, 0, len(m.aircraft))
	for _, a := range m.aircraft {
		out = append(out, a.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

// Stats describes the tracked population
type Stats struct {
	Aircraft     int
	WithPosition int
	Messages     uint64
}

// Stats returns counters over the tracked aircraft
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Stats{Aircraft: len(m.aircraft), Messages: m.messages}
	for _, a := range m.aircraft {
		if a.HasPosition() {
			s.WithPosition++
		}
	}
	return s
}

// LastTimestamp returns the most recent message timestamp seen, the stream's notion of now
func (m *Manager) LastTimestamp() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastTimestamp
}
