package application

import (
	"context"
	"sync"
	"time"

	"github.com/JavierCervilla/BTC-OPENBOOK/internal/core/domain"
	"github.com/JavierCervilla/BTC-OPENBOOK/internal/core/ports"
	"github.com/JavierCervilla/BTC-OPENBOOK/pkg/explorer"
	"github.com/JavierCervilla/BTC-OPENBOOK/pkg/stats"
	"github.com/JavierCervilla/BTC-OPENBOOK/pkg/util"
	log "github.com/sirupsen/logrus"
)

const (
	defaultCheckListingsCron = "*/10 * * * *"
	defaultMonitorAttempts   = 5
	defaultMonitorDelay      = time.Second
)

// MonitorConfig ...
type MonitorConfig struct {
	// Cron is the schedule of the checks, in cron format.
	Cron string
	// RetryAttempts bounds the calls made to the node for every listing.
	RetryAttempts int
	// RetryDelay is the delay before the first retry, doubled at every
	// attempt.
	RetryDelay time.Duration
}

// ListingMonitor periodically deactivates the listings whose coin has been
// spent, either by a buy or by a cancel.
type ListingMonitor interface {
	Start() error
	Stop()
	// CheckListings checks every active listing once and returns the number
	// of deactivated ones.
	CheckListings(ctx context.Context) (int, error)
}

type listingMonitor struct {
	repoManager ports.RepoManager
	node        ports.Node
	scheduler   ports.SchedulerService
	cfg         MonitorConfig

	lock sync.Mutex
}

// NewListingMonitor ...
func NewListingMonitor(
	repoManager ports.RepoManager,
	node ports.Node,
	scheduler ports.SchedulerService,
	cfg MonitorConfig,
) ListingMonitor {
	return newListingMonitor(repoManager, node, scheduler, cfg)
}

func newListingMonitor(
	repoManager ports.RepoManager,
	node ports.Node,
	scheduler ports.SchedulerService,
	cfg MonitorConfig,
) *listingMonitor {
	if cfg.Cron == "" {
		cfg.Cron = defaultCheckListingsCron
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = defaultMonitorAttempts
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultMonitorDelay
	}
	return &listingMonitor{
		repoManager: repoManager,
		node:        node,
		scheduler:   scheduler,
		cfg:         cfg,
	}
}

func (m *listingMonitor) Start() error {
	if err := m.scheduler.ScheduleCron(m.cfg.Cron, func(ctx context.Context) {
		if _, err := m.CheckListings(ctx); err != nil {
			log.WithError(err).Warn("failed to check active listings")
		}
	}); err != nil {
		return err
	}
	m.scheduler.Start()
	log.Infof("listing monitor scheduled with cron %q", m.cfg.Cron)
	return nil
}

func (m *listingMonitor) Stop() {
	m.scheduler.Stop()
}

func (m *listingMonitor) CheckListings(ctx context.Context) (int, error) {
	if !m.lock.TryLock() {
		log.Debug("listings check already in progress, skipping")
		return 0, nil
	}
	defer m.lock.Unlock()

	listings, err := m.repoManager.ListingRepository().GetActiveListings(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, listing := range listings {
		if ctx.Err() != nil {
			return count, ctx.Err()
		}

		spent, err := m.isSpent(ctx, listing.Utxo)
		if err != nil {
			log.WithError(err).Warnf("skipping check of listing %s", listing.Txid)
			continue
		}
		if !spent {
			continue
		}

		deactivated := false
		if err := m.repoManager.ListingRepository().UpdateListing(
			ctx,
			listing.Txid,
			func(l *domain.Listing) (*domain.Listing, error) {
				deactivated = l.Deactivate()
				return l, nil
			},
		); err != nil {
			return count, err
		}
		if deactivated {
			count++
			stats.DeactivatedListings.Inc()
			log.Infof("listing %s deactivated, coin %s spent", listing.Txid, listing.Utxo)
		}
	}

	log.Debugf("checked %d active listings, %d deactivated", len(listings), count)
	return count, nil
}

func (m *listingMonitor) isSpent(ctx context.Context, utxo string) (bool, error) {
	txid, vout, err := explorer.ParseUtxoKey(utxo)
	if err != nil {
		return false, err
	}

	var unspent bool
	err = util.Retry(
		ctx,
		util.RetryOpts{
			Attempts: m.cfg.RetryAttempts,
			Delay:    m.cfg.RetryDelay,
			Backoff:  true,
		},
		nil,
		func(ctx context.Context) error {
			var err error
			unspent, err = m.node.IsUnspent(ctx, txid, vout)
			if err != nil {
				stats.RpcRetries.WithLabelValues("monitor").Inc()
			}
			return err
		},
	)
	return !unspent, err
}
