package altarpicker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/exilekit/altar-agent/altar"
	"github.com/exilekit/altar-agent/config"
	"github.com/exilekit/altar-agent/locker"
	"github.com/exilekit/altar-agent/weightfile"
)

// Service holds the engine shared by the altar actions.
type Service struct {
	mu         sync.Mutex
	cfg        *config.Config
	catalog    *altar.Catalog
	engine     *altar.Engine
	limiter    *rate.Limiter
	clicked    map[string]bool
	parked     map[string]uint64 // undecided id -> weight revision it was reported at
	stopWatch  context.CancelFunc
	generation atomic.Uint64
}

func NewService() *Service {
	return &Service{clicked: make(map[string]bool), parked: make(map[string]uint64)}
}

// Init loads config, catalog and weights and builds a fresh engine. Calling
// it again replaces the previous engine and weight watcher.
func (s *Service) Init(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	catalog, err := altar.DefaultCatalog()
	if cfg.Paths.CatalogFile != "" {
		catalog, err = altar.LoadCatalog(cfg.Paths.CatalogFile)
	}
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	l := locker.New(cfg.Lock.Enabled)
	store := altar.NewWeightStore(l)
	if err := weightfile.Sync(cfg.Paths.WeightsFile, store, catalog); err != nil {
		return fmt.Errorf("sync weights: %w", err)
	}

	engine := altar.NewEngine(catalog, store,
		altar.WithLocker(l),
		altar.WithEvaluator(altar.NewEvaluator(cfg.Decision.DangerThreshold)),
	)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopWatch != nil {
		s.stopWatch()
	}
	watchCtx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := weightfile.Watch(watchCtx, cfg.Paths.WeightsFile, store, catalog); err != nil {
			log.Error().Err(err).Msg("<Altar> weight watcher stopped")
		}
	}()

	if cfg.App.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	s.cfg = cfg
	s.catalog = catalog
	s.engine = engine
	s.limiter = rate.NewLimiter(rate.Every(cfg.ClickInterval()), 1)
	s.clicked = make(map[string]bool)
	s.parked = make(map[string]uint64)
	s.stopWatch = cancel
	log.Info().Bool("lock", cfg.Lock.Enabled).Int("danger_threshold", cfg.Decision.DangerThreshold).
		Str("weights", cfg.Paths.WeightsFile).Msg("<Altar> service initialized")
	return nil
}

// Close stops the weight watcher and drops all encounters.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopWatch != nil {
		s.stopWatch()
		s.stopWatch = nil
	}
	if s.engine != nil {
		s.engine.Clear()
	}
	s.clicked = make(map[string]bool)
	s.parked = make(map[string]uint64)
}

func (s *Service) Engine() *altar.Engine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine
}

func (s *Service) clickEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg != nil && s.cfg.Click.Enabled
}

// Ingest turns one OCR pass over the altar panel into a registry entry.
// An empty panel invalidates every registered encounter. A new encounter
// becomes the only valid one; a duplicate keeps the registered one.
func (s *Service) Ingest(lines []ocrLine, encType altar.EncounterType, splitY int) (added, visible bool) {
	engine := s.Engine()
	if engine == nil {
		return false, false
	}

	top, bottom, ok := splitPanel(lines, splitY)
	if !ok {
		s.generation.Add(1)
		if n := engine.RemoveInvalid(); n > 0 {
			log.Info().Int("removed", n).Msg("<Altar> altar closed")
		}
		return false, false
	}
	if encType == altar.EncounterUnknown {
		encType = detectEncounterType(lines)
	}

	gen := s.generation.Load() + 1
	handle := func(side scannedSide) *screenHandle {
		return &screenHandle{box: side.Box, gen: gen, current: &s.generation}
	}
	raw := altar.RawEncounter{
		Type:   encType,
		Top:    altar.RawSide{Header: top.Header, Lines: top.Lines, Handle: handle(top)},
		Bottom: altar.RawSide{Header: bottom.Header, Lines: bottom.Lines, Handle: handle(bottom)},
	}
	if !engine.TryAddEncounter(raw) {
		return false, true
	}
	s.generation.Store(gen)
	engine.RemoveInvalid()
	return true, true
}

// pick is a decided encounter waiting to be clicked, or an undecided one
// waiting for the operator.
type pick struct {
	Encounter *altar.Encounter
	Decision  altar.Decision
	Weights   *altar.WeightResult
}

// Pending evaluates every active encounter not handled yet. Undecided
// encounters come back once the weights change. Malformed encounters are
// logged and skipped.
func (s *Service) Pending() []pick {
	engine := s.Engine()
	if engine == nil {
		return nil
	}
	rev := engine.Store().Revision()
	var out []pick
	for _, e := range engine.GetActiveEncounters() {
		if s.handled(e.ID, rev) {
			continue
		}
		d, r, err := engine.Evaluate(e)
		if err != nil {
			log.Error().Err(err).Str("id", e.ID).Msg("<Altar> malformed encounter")
			s.markHandled(e.ID)
			continue
		}
		out = append(out, pick{Encounter: e, Decision: d, Weights: r})
	}
	return out
}

func (s *Service) handled(id string, rev uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clicked[id] {
		return true
	}
	parkedAt, ok := s.parked[id]
	return ok && parkedAt == rev
}

// park marks an undecided encounter as reported for the current weights.
func (s *Service) park(id string, rev uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parked[id] = rev
}

func (s *Service) markHandled(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clicked[id] = true
}

// allowClick reports whether click pacing permits a click now.
func (s *Service) allowClick() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.limiter != nil && s.limiter.Allow()
}

// Consume walks the pending encounters once. Undecided ones are reported and
// parked until the weights change; decided ones are clicked when click pacing allows and
// retried on a later pass otherwise. With clicking disabled the decision is
// only reported.
func (s *Service) Consume(click func(h *screenHandle) bool, report func(p pick)) (clicks int) {
	clickOn := s.clickEnabled()
	var rev uint64
	if engine := s.Engine(); engine != nil {
		rev = engine.Store().Revision()
	}
	for _, p := range s.Pending() {
		if !p.Decision.Decided() {
			report(p)
			s.park(p.Encounter.ID, rev)
			continue
		}
		h, ok := p.Decision.Target.(*screenHandle)
		if !clickOn || !ok {
			report(p)
			s.markHandled(p.Encounter.ID)
			continue
		}
		if !h.Valid() {
			log.Debug().Str("id", p.Encounter.ID).Msg("<Altar> target gone before click")
			s.markHandled(p.Encounter.ID)
			continue
		}
		if !s.allowClick() {
			continue
		}
		report(p)
		if click(h) {
			clicks++
		}
		s.markHandled(p.Encounter.ID)
	}
	return clicks
}
