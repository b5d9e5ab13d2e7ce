package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tripdesk/tripdesk/internal/catalog"
	"github.com/tripdesk/tripdesk/internal/itinerary"
	"github.com/tripdesk/tripdesk/internal/planner"
	"github.com/tripdesk/tripdesk/internal/pricing"
	"github.com/tripdesk/tripdesk/internal/proposals"
	"github.com/tripdesk/tripdesk/internal/shared"
	"github.com/tripdesk/tripdesk/internal/store"
)

// ErrProposalNotFound is returned for an unknown proposal id.
var ErrProposalNotFound = fmt.Errorf("%w: proposal", shared.ErrNotFound)

// SliceStore loads and saves every itinerary-keyed slice.
type SliceStore interface {
	SliceWriter
	Load(ctx context.Context, id int64) (store.Snapshot, error)
	LoadProposals(ctx context.Context, id int64) ([]proposals.Proposal, error)
	SaveProposals(ctx context.Context, id int64, list []proposals.Proposal) error
}

// HotelLookup resolves stored hotels for catalog quick-adds.
type HotelLookup interface {
	Hotel(ctx context.Context, id string) (catalog.Hotel, error)
}

// Options tunes engine behaviour.
type Options struct {
	MaxHotelOptions int
	StalePolicy     pricing.StalePolicy
	ProposalPolicy  proposals.Policy
}

// GenerateResult reports one proposal generation run.
type GenerateResult struct {
	Generated []proposals.Proposal `json:"generated"`
	Stored    int                  `json:"stored"`
	Message   string               `json:"message,omitempty"`
}

// Service keeps one open workspace per itinerary id.
type Service struct {
	source    itinerary.Source
	slices    SliceStore
	hotels    HotelLookup
	opts      Options
	options   *planner.OptionManager
	generator *proposals.Generator
	ids       *shared.IDClock
	logger    *slog.Logger
	metrics   Metrics

	mu      sync.Mutex
	open    map[int64]*Workspace
	loading singleflight.Group
}

// NewService constructs the service. hotels and metrics may be nil.
func NewService(source itinerary.Source, slices SliceStore, hotels HotelLookup, opts Options, logger *slog.Logger, metrics Metrics) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if opts.StalePolicy == "" {
		opts.StalePolicy = pricing.StaleCarry
	}
	if opts.ProposalPolicy == "" {
		opts.ProposalPolicy = proposals.PolicyAppend
	}
	ids := shared.NewIDClock(time.Now)
	return &Service{
		source:    source,
		slices:    slices,
		hotels:    hotels,
		opts:      opts,
		options:   planner.NewOptionManager(opts.MaxHotelOptions),
		generator: proposals.NewGenerator(time.Now, ids),
		ids:       ids,
		logger:    logger,
		metrics:   metrics,
		open:      make(map[int64]*Workspace),
	}
}

// Open returns the workspace of id, loading the itinerary and its slices on
// first use. Concurrent first opens of one id share a single load; loads of
// different ids run in parallel.
func (s *Service) Open(ctx context.Context, id int64) (*Workspace, error) {
	if ws, ok := s.cached(id); ok {
		return ws, nil
	}
	v, err, _ := s.loading.Do(strconv.FormatInt(id, 10), func() (any, error) {
		if ws, ok := s.cached(id); ok {
			return ws, nil
		}
		it, err := s.source.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		snap, err := s.slices.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		ws := New(ctx, Config{
			Itinerary:   it,
			Snapshot:    snap,
			IDs:         s.ids,
			Options:     s.options,
			StalePolicy: s.opts.StalePolicy,
			Slices:      s.slices,
			Logger:      s.logger,
			Metrics:     s.metrics,
		})
		s.mu.Lock()
		defer s.mu.Unlock()
		if existing, ok := s.open[id]; ok {
			return existing, nil
		}
		s.open[id] = ws
		return ws, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Workspace), nil
}

func (s *Service) cached(id int64) (*Workspace, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, ok := s.open[id]
	return ws, ok
}

// Evict drops the cached workspace so the next Open reloads from storage.
func (s *Service) Evict(id int64) {
	s.mu.Lock()
	delete(s.open, id)
	s.mu.Unlock()
}

// UpdateItinerary writes cover photo or terms back to the itinerary backend
// and refreshes the open workspace.
func (s *Service) UpdateItinerary(ctx context.Context, id int64, u itinerary.Update) (itinerary.Itinerary, error) {
	it, err := s.source.Update(ctx, id, u)
	if err != nil {
		return itinerary.Itinerary{}, err
	}
	s.mu.Lock()
	ws, ok := s.open[id]
	s.mu.Unlock()
	if ok {
		ws.SetItinerary(it)
	}
	return it, nil
}

// QuickAddHotel adds a hotel to day. A catalog pick that only names the
// hotel id is completed from the stored hotel record.
func (s *Service) QuickAddHotel(ctx context.Context, id int64, day int, req planner.QuickAdd) (planner.Event, error) {
	ws, err := s.Open(ctx, id)
	if err != nil {
		return planner.Event{}, err
	}
	if (req.Source == planner.SourceCatalog || req.Source == planner.SourceStored) && strings.TrimSpace(req.Hotel.Name) == "" && req.Hotel.ID != "" && s.hotels != nil {
		h, err := s.hotels.Hotel(ctx, req.Hotel.ID)
		if err != nil {
			return planner.Event{}, err
		}
		req.Hotel = planner.HotelPick{
			ID:           h.ID,
			Name:         h.Name,
			StarCategory: h.StarCategory,
			City:         h.City,
			ImageRef:     h.ImageRef,
		}
	}
	return ws.QuickAddHotel(ctx, day, req)
}

// GenerateProposals rolls the ledger up into proposals and merges them into
// the stored list according to the configured policy. An empty ledger is
// not an error: the result carries a message and no proposals.
func (s *Service) GenerateProposals(ctx context.Context, id int64) (GenerateResult, error) {
	ws, err := s.Open(ctx, id)
	if err != nil {
		return GenerateResult{}, err
	}
	generated, err := s.generator.Generate(ws.RollupInput(ctx))
	if errors.Is(err, proposals.ErrNoPricingData) {
		s.logger.Info("proposal generation skipped", slog.Int64("itinerary_id", id), slog.String("reason", err.Error()))
		return GenerateResult{Generated: []proposals.Proposal{}, Message: err.Error()}, nil
	}
	if err != nil {
		return GenerateResult{}, err
	}
	existing, err := s.slices.LoadProposals(ctx, id)
	if err != nil {
		return GenerateResult{}, err
	}
	merged := proposals.Merge(existing, generated, s.opts.ProposalPolicy)
	if err := s.slices.SaveProposals(ctx, id, merged); err != nil {
		s.metrics.PersistenceFailure(string(store.SliceProposals))
		s.logger.Error("write-through failed", slog.Int64("itinerary_id", id), slog.String("slice", string(store.SliceProposals)), slog.Any("error", err))
	}
	s.metrics.ProposalsGenerated(len(generated))
	return GenerateResult{Generated: generated, Stored: len(merged)}, nil
}

// ListProposals returns the stored proposals of id.
func (s *Service) ListProposals(ctx context.Context, id int64) ([]proposals.Proposal, error) {
	return s.slices.LoadProposals(ctx, id)
}

// Proposal returns one stored proposal.
func (s *Service) Proposal(ctx context.Context, id int64, proposalID string) (proposals.Proposal, error) {
	list, err := s.slices.LoadProposals(ctx, id)
	if err != nil {
		return proposals.Proposal{}, err
	}
	p, ok := proposals.Find(list, proposalID)
	if !ok {
		return proposals.Proposal{}, ErrProposalNotFound
	}
	return p, nil
}
