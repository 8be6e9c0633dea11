package console

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"

	"github.com/technosupport/ts-console/internal/broadcast"
	"github.com/technosupport/ts-console/internal/incidents"
	"github.com/technosupport/ts-console/internal/metrics"
	"github.com/technosupport/ts-console/internal/playback"
	"github.com/technosupport/ts-console/internal/scenario"
	"github.com/technosupport/ts-console/internal/tracking"
)

// Cameras resolves CCTV metadata. *incidents.Catalog implements it.
type Cameras interface {
	Camera(id string) (*incidents.Camera, error)
	Thumbnail(id string) string
}

type Options struct {
	CacheSize          int
	PlaybackInterval   time.Duration
	PlaybackStep       int
	TrackingDuration   time.Duration
	TrackingTick       time.Duration
	TrackingOverlayTTL time.Duration
	// Seed fixes the jitter source; 0 seeds from the clock.
	Seed int64
}

func (o Options) withDefaults() Options {
	if o.CacheSize <= 0 {
		o.CacheSize = 256
	}
	if o.PlaybackInterval <= 0 {
		o.PlaybackInterval = time.Second
	}
	if o.PlaybackStep <= 0 {
		o.PlaybackStep = playback.DefaultStep
	}
	if o.TrackingDuration <= 0 {
		o.TrackingDuration = tracking.DefaultProgressDuration
	}
	if o.TrackingTick <= 0 {
		o.TrackingTick = tracking.DefaultProgressTick
	}
	if o.TrackingOverlayTTL <= 0 {
		o.TrackingOverlayTTL = tracking.DefaultOverlayTTL
	}
	if o.Seed == 0 {
		o.Seed = time.Now().UnixNano()
	}
	return o
}

// errSkip aborts an update without saving.
var errSkip = errors.New("skip")

// Manager serialises all access to a session: every mutation runs under the
// session's mutex against a private copy, which replaces the cached and
// stored session only if the mutation succeeds.
type Manager struct {
	store       Store
	cache       *lru.Cache[string, *Session]
	incidents   incidents.Repository
	cameras     Cameras
	script      *scenario.Script
	broadcaster *broadcast.Service
	opts        Options
	now         func() time.Time

	bg     context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	locks   map[string]*sessionLock
	players map[string]*playback.Player
	hiders  map[string]*tracking.AutoHide

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewManager(store Store, repo incidents.Repository, cams Cameras, script *scenario.Script, opts Options) *Manager {
	opts = opts.withDefaults()
	cache, _ := lru.NewWithEvict[string, *Session](opts.CacheSize, func(string, *Session) {
		metrics.ActiveSessions.Dec()
	})
	bg, cancel := context.WithCancel(context.Background())
	return &Manager{
		store:     store,
		cache:     cache,
		incidents: repo,
		cameras:   cams,
		script:    script,
		opts:      opts,
		now:       time.Now,
		bg:        bg,
		cancel:    cancel,
		locks:     make(map[string]*sessionLock),
		players:   make(map[string]*playback.Player),
		hiders:    make(map[string]*tracking.AutoHide),
		rng:       rand.New(rand.NewSource(opts.Seed)),
	}
}

// WithBroadcaster enables SendBroadcast.
func (m *Manager) WithBroadcaster(b *broadcast.Service) *Manager {
	m.broadcaster = b
	return m
}

func (m *Manager) Script() *scenario.Script { return m.script }

// Close stops every background clock and tracking run.
func (m *Manager) Close() {
	m.cancel()
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, p := range m.players {
		p.Stop()
		delete(m.players, id)
	}
	for id, h := range m.hiders {
		h.Stop()
		delete(m.hiders, id)
	}
}

// sessionLock is held in m.locks only while someone holds or waits for it.
type sessionLock struct {
	sync.Mutex
	refs int
}

// lock acquires the session's mutex and returns its release func.
func (m *Manager) lock(id string) func() {
	m.mu.Lock()
	l, ok := m.locks[id]
	if !ok {
		l = &sessionLock{}
		m.locks[id] = l
	}
	l.refs++
	m.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		m.mu.Lock()
		if l.refs--; l.refs == 0 {
			delete(m.locks, id)
		}
		m.mu.Unlock()
	}
}

// forget stops and drops the background clocks of a session that is gone.
func (m *Manager) forget(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.players[id]; ok {
		p.Stop()
		delete(m.players, id)
	}
	if h, ok := m.hiders[id]; ok {
		h.Stop()
		delete(m.hiders, id)
	}
}

func (m *Manager) load(ctx context.Context, id string) (*Session, error) {
	if s, ok := m.cache.Get(id); ok {
		return s, nil
	}
	s, err := m.store.Load(ctx, id)
	if errors.Is(err, ErrSessionNotFound) {
		m.forget(id)
	}
	if err != nil {
		return nil, err
	}
	m.remember(s)
	return s, nil
}

func (m *Manager) remember(s *Session) {
	if contains, _ := m.cache.ContainsOrAdd(s.ID, s); contains {
		m.cache.Add(s.ID, s)
		return
	}
	metrics.ActiveSessions.Inc()
}

// update runs fn on a copy of the session and commits it. The returned
// session is a snapshot the caller may keep.
func (m *Manager) update(ctx context.Context, id string, fn func(*Session) error) (*Session, error) {
	defer m.lock(id)()

	cur, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	next := clone(cur)
	if err := fn(next); err != nil {
		return nil, err
	}
	next.UpdatedAt = m.now()
	if err := m.store.Save(ctx, next); err != nil {
		return nil, err
	}
	m.remember(next)
	m.syncPlayer(next)
	return clone(next), nil
}

// Create starts a session. eventID, when set, pre-selects that incident.
func (m *Manager) Create(ctx context.Context, operator, station, eventID string) (*Session, error) {
	s := NewSession(uuid.New().String(), operator, station, m.now())
	if eventID != "" {
		in, err := m.incidents.Get(ctx, eventID)
		if err != nil {
			return nil, err
		}
		s.SelectIncident(in, m.now())
	}
	if err := m.store.Save(ctx, s); err != nil {
		return nil, err
	}
	m.remember(s)
	log.Ctx(ctx).Info().Str("session_id", s.ID).Str("operator", operator).Str("event_id", eventID).Msg("console session created")
	return clone(s), nil
}

func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	defer m.lock(id)()
	s, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return clone(s), nil
}

// Delete ends a session and its background work.
func (m *Manager) Delete(ctx context.Context, id string) error {
	defer m.lock(id)()

	m.forget(id)
	m.cache.Remove(id)
	return m.store.Delete(ctx, id)
}

// syncPlayer starts or stops the session's playback clock to match state.
// Called with the session lock held; Player.Stop does not block.
func (m *Manager) syncPlayer(s *Session) {
	id := s.ID
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.players[id]
	if !s.Playback.IsPlaying {
		if ok {
			p.Stop()
			delete(m.players, id)
		}
		return
	}
	if !ok {
		p = playback.NewPlayer(m.opts.PlaybackInterval)
		m.players[id] = p
	}
	p.Start(m.bg, func() bool { return m.tickPlayback(id) })
}

func (m *Manager) tickPlayback(id string) bool {
	running := false
	_, err := m.update(m.bg, id, func(s *Session) error {
		if !s.Playback.IsPlaying {
			return errSkip
		}
		running = s.Playback.Tick()
		return nil
	})
	if err != nil && !errors.Is(err, errSkip) && !errors.Is(err, context.Canceled) {
		log.Warn().Err(err).Str("session_id", id).Msg("playback tick failed")
	}
	return running
}

// runTracking drives a queued tracking run to completion in the background.
func (m *Manager) runTracking(id string) {
	ctx := m.bg
	if _, err := m.update(ctx, id, func(s *Session) error {
		if !s.StartTracking() {
			return errSkip
		}
		return nil
	}); err != nil {
		return
	}

	progress := tracking.Progress{Duration: m.opts.TrackingDuration, Tick: m.opts.TrackingTick}
	err := progress.Run(ctx, func(p float64) {
		m.update(ctx, id, func(s *Session) error {
			if !s.Tracking.Running {
				return errSkip
			}
			s.Tracking.Progress = p
			return nil
		})
	})
	if err != nil {
		metrics.TrackingRunsTotal.WithLabelValues("cancelled").Inc()
		abortCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		m.update(abortCtx, id, func(s *Session) error {
			s.AbortTracking()
			return nil
		})
		return
	}

	_, err = m.update(ctx, id, func(s *Session) error {
		m.rngMu.Lock()
		defer m.rngMu.Unlock()
		return s.CompleteTracking(m.script, m.rng)
	})
	if err != nil {
		metrics.TrackingRunsTotal.WithLabelValues("failed").Inc()
		log.Warn().Err(err).Str("session_id", id).Msg("tracking completion failed")
		return
	}
	metrics.TrackingRunsTotal.WithLabelValues("completed").Inc()

	h := m.hiderFor(id)
	h.Show(func() {
		m.update(m.bg, id, func(s *Session) error {
			if !s.Tracking.OverlayVisible {
				return errSkip
			}
			s.Tracking.OverlayVisible = false
			return nil
		})
		m.mu.Lock()
		if m.hiders[id] == h && !h.Pending() {
			delete(m.hiders, id)
		}
		m.mu.Unlock()
	})
}

func (m *Manager) hiderFor(id string) *tracking.AutoHide {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hiders[id]
	if !ok {
		h = tracking.NewAutoHide(m.opts.TrackingOverlayTTL)
		m.hiders[id] = h
	}
	return h
}
