package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/driftbyte/skyvault/internal/clock"
	filefeeddomain "github.com/driftbyte/skyvault/internal/filefeed/domain"
	ledgerdomain "github.com/driftbyte/skyvault/internal/ledger/domain"
	obsmetrics "github.com/driftbyte/skyvault/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config controls query deadlines for the accounting engine.
type Config struct {
	QueryTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		QueryTimeout: 15 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.QueryTimeout <= 0 {
		c.QueryTimeout = defaults.QueryTimeout
	}
	return c
}

type Params struct {
	fx.In

	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     ledgerdomain.Repository
	FileFeed filefeeddomain.Repository
	Metrics  *obsmetrics.Metrics `optional:"true"`
	Config   Config              `optional:"true"`
}

type Service struct {
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     ledgerdomain.Repository
	filefeed filefeeddomain.Repository
	metrics  *obsmetrics.Metrics
	cfg      Config
}

func NewService(p Params) ledgerdomain.Service {
	return &Service{
		log:      p.Log.Named("ledger.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		filefeed: p.FileFeed,
		metrics:  p.Metrics,
		cfg:      p.Config.withDefaults(),
	}
}

// GetUserUsage backfills the ledger, reduces it coarser-wins, and adds the
// live tail past the watermark. The result equals the summed sizes of the
// user's non-deleted files as of now.
func (s *Service) GetUserUsage(ctx context.Context, userID snowflake.ID) (ledgerdomain.Usage, error) {
	if userID == 0 {
		return ledgerdomain.Usage{}, ledgerdomain.ErrInvalidUser
	}

	if err := s.EnsureUpToDate(ctx, userID); err != nil {
		return ledgerdomain.Usage{}, err
	}

	qctx, cancel := context.WithTimeout(ctx, s.cfg.QueryTimeout)
	defer cancel()

	entries, err := s.repo.ListByUser(qctx, userID)
	if err != nil {
		return ledgerdomain.Usage{}, aggregationErr(err)
	}

	total := ledgerdomain.SumCoarserWins(entries)

	if mark, ok := ledgerdomain.Watermark(entries); ok {
		tail, err := s.filefeed.NetSizeChange(qctx, userID, &mark, nil)
		if err != nil {
			return ledgerdomain.Usage{}, aggregationErr(err)
		}
		total += tail
	}

	if s.metrics != nil {
		s.metrics.IncUsageRead()
	}
	return ledgerdomain.Usage{ID: userID, Drive: total}, nil
}

// aggregationErr maps any failure during summation to the retryable
// taxonomy. Callers must treat it as "unknown usage", never as zero.
func aggregationErr(err error) error {
	return fmt.Errorf("%w: %v", ledgerdomain.ErrAggregationUnavailable, err)
}
