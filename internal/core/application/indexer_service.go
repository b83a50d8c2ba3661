package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/JavierCervilla/BTC-OPENBOOK/internal/core/domain"
	"github.com/JavierCervilla/BTC-OPENBOOK/internal/core/ports"
	"github.com/JavierCervilla/BTC-OPENBOOK/pkg/stats"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	readOnlyTx = true

	defaultIndexerWorkers = 16
	defaultIdleInterval   = 10 * time.Second
)

// IndexerConfig ...
type IndexerConfig struct {
	// StartBlock is the first height indexed on an empty store.
	StartBlock uint64
	// ListingsStartBlock is the first height whose txs are scanned for
	// listings.
	ListingsStartBlock uint64
	// Workers bounds the concurrent tx fetches of a block.
	Workers int
	// IdleInterval is the time waited at chain tip before polling the node
	// again, unless a tip notification arrives earlier.
	IdleInterval time.Duration
}

// IndexerService replays the chain block by block to store the atomic swaps
// and the listings it contains.
type IndexerService interface {
	// Start runs the indexer in background until Stop is called or ctx is
	// done.
	Start(ctx context.Context) error
	Stop()
	// Sync indexes every block up to the current tip and returns the height
	// of the last indexed one.
	Sync(ctx context.Context) (uint64, error)
	// ProcessBlock indexes a single height.
	ProcessBlock(ctx context.Context, height uint64) (*domain.Block, error)
}

// cursor tracks the next height to index. It is advanced only after the
// block has been committed.
type cursor struct {
	next uint64
}

func (c *cursor) advance(height uint64) {
	if height >= c.next {
		c.next = height + 1
	}
}

type indexerService struct {
	repoManager ports.RepoManager
	node        ports.Node
	ledger      ports.Ledger
	notifier    ports.TipNotifier
	net         *chaincfg.Params
	cfg         IndexerConfig
	swapParser  *swapParser

	cursor *cursor
	cancel context.CancelFunc
	wg     sync.WaitGroup
	lock   sync.Mutex
}

// NewIndexerService returns an IndexerService. notifier is optional: without
// it the indexer only polls the node at chain tip.
func NewIndexerService(
	repoManager ports.RepoManager,
	node ports.Node,
	ledger ports.Ledger,
	notifier ports.TipNotifier,
	net *chaincfg.Params,
	cfg IndexerConfig,
) IndexerService {
	return newIndexerService(repoManager, node, ledger, notifier, net, cfg)
}

func newIndexerService(
	repoManager ports.RepoManager,
	node ports.Node,
	ledger ports.Ledger,
	notifier ports.TipNotifier,
	net *chaincfg.Params,
	cfg IndexerConfig,
) *indexerService {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultIndexerWorkers
	}
	if cfg.IdleInterval <= 0 {
		cfg.IdleInterval = defaultIdleInterval
	}
	return &indexerService{
		repoManager: repoManager,
		node:        node,
		ledger:      ledger,
		notifier:    notifier,
		net:         net,
		cfg:         cfg,
		swapParser:  &swapParser{node, net},
	}
}

func (s *indexerService) Start(ctx context.Context) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.cancel != nil {
		return fmt.Errorf("indexer already started")
	}
	if _, err := s.loadCursor(ctx); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	var tips <-chan uint64
	if s.notifier != nil {
		if err := s.notifier.Start(ctx); err != nil {
			log.WithError(err).Warn("tip notifier unavailable, falling back to polling")
		} else {
			tips = s.notifier.Tips()
		}
	}

	s.wg.Add(1)
	go s.run(ctx, tips)
	return nil
}

func (s *indexerService) Stop() {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.cancel == nil {
		return
	}
	s.cancel()
	s.wg.Wait()
	if s.notifier != nil {
		s.notifier.Close()
	}
	s.cancel = nil
	log.Info("indexer stopped")
}

func (s *indexerService) run(ctx context.Context, tips <-chan uint64) {
	defer s.wg.Done()

	log.Infof("indexer started from block %d", s.cursor.next)
	for {
		if _, err := s.Sync(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			log.WithError(err).Warnf("failed to index block %d", s.cursor.next)
		}

		select {
		case <-ctx.Done():
			return
		case height, ok := <-tips:
			if !ok {
				tips = nil
				continue
			}
			log.Debugf("new chain tip %d", height)
		case <-time.After(s.cfg.IdleInterval):
		}
	}
}

func (s *indexerService) Sync(ctx context.Context) (uint64, error) {
	if _, err := s.loadCursor(ctx); err != nil {
		return 0, err
	}

	tip, err := s.node.GetBlockCount(ctx)
	if err != nil {
		return 0, err
	}

	last := uint64(0)
	if s.cursor.next > 0 {
		last = s.cursor.next - 1
	}
	for height := s.cursor.next; height <= tip; height++ {
		if err := ctx.Err(); err != nil {
			return last, err
		}
		if _, err := s.ProcessBlock(ctx, height); err != nil {
			return last, err
		}
		last = height
	}
	return last, nil
}

// loadCursor initializes the cursor from the store on first use.
func (s *indexerService) loadCursor(ctx context.Context) (*cursor, error) {
	if s.cursor != nil {
		return s.cursor, nil
	}

	c := &cursor{next: s.cfg.StartBlock}
	block, err := s.repoManager.BlockRepository().GetLatestBlock(ctx)
	if err != nil && !errors.Is(err, domain.ErrBlockNotFound) {
		return nil, err
	}
	if block != nil {
		c.next = block.BlockIndex + 1
	}
	s.cursor = c
	return c, nil
}

func (s *indexerService) ProcessBlock(
	ctx context.Context, height uint64,
) (*domain.Block, error) {
	start := time.Now()

	hash, err := s.node.GetBlockHash(ctx, height)
	if err != nil {
		return nil, err
	}
	info, err := s.node.GetBlock(ctx, hash)
	if err != nil {
		return nil, err
	}

	counts, err := s.ledger.GetEventCounts(ctx, height)
	if err != nil {
		return nil, err
	}
	events := domain.NewEventCounts(counts)

	swaps := make([]domain.AtomicSwap, 0)
	if events[domain.UtxoMoveEvent] > 0 {
		moves, err := s.ledger.GetBlockEvents(ctx, height, domain.UtxoMoveEvent)
		if err != nil {
			return nil, err
		}
		if swaps, err = s.swapParser.parse(ctx, info, moves); err != nil {
			return nil, err
		}
	}

	listings := make([]domain.Listing, 0)
	if height >= s.cfg.ListingsStartBlock {
		if listings, err = s.parseListings(ctx, info); err != nil {
			return nil, err
		}
	}

	txids := make([]string, 0, len(swaps)+len(listings))
	for _, swap := range swaps {
		txids = append(txids, swap.Txid)
	}
	for _, listing := range listings {
		txids = append(txids, listing.Txid)
	}
	block := &domain.Block{
		BlockIndex:   height,
		BlockHash:    info.Hash,
		BlockTime:    info.Time,
		Transactions: txids,
		Events:       events,
		NTxs:         len(info.Txids),
	}

	var addedSwaps, addedListings int
	if _, err := s.repoManager.RunTransaction(
		ctx,
		!readOnlyTx,
		func(ctx context.Context) (interface{}, error) {
			if err := s.repoManager.BlockRepository().AddBlock(ctx, block); err != nil {
				return nil, err
			}
			var err error
			if addedSwaps, err = s.repoManager.SwapRepository().AddSwaps(ctx, swaps...); err != nil {
				return nil, err
			}
			addedListings, err = s.repoManager.ListingRepository().AddListings(ctx, listings...)
			return nil, err
		},
	); err != nil {
		return nil, fmt.Errorf("failed to store block %d: %w", height, err)
	}

	s.cursor.advance(height)
	stats.IndexedHeight.Set(float64(height))
	stats.ProcessedBlocks.Inc()
	stats.IndexedSwaps.Add(float64(addedSwaps))
	stats.IndexedListings.Add(float64(addedListings))

	log.Infof(
		"block %d processed in %s: %d swaps, %d listings",
		height, time.Since(start).Round(time.Millisecond), addedSwaps, addedListings,
	)
	return block, nil
}

// parseListings fetches every tx of the block and decodes the listings
// among them, along with the assets attached to the listed coins. Txs that
// look like listings but cannot be decoded are skipped.
func (s *indexerService) parseListings(
	ctx context.Context, info *ports.BlockInfo,
) ([]domain.Listing, error) {
	txs := make([]*wire.MsgTx, len(info.Txids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i, txid := range info.Txids {
		i, txid := i, txid
		g.Go(func() error {
			tx, err := s.node.GetTransaction(gctx, txid)
			if err != nil {
				return fmt.Errorf("failed to fetch tx %s: %w", txid, err)
			}
			txs[i] = tx
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	listings := make([]domain.Listing, 0)
	for _, tx := range txs {
		if !IsListingCandidate(tx) {
			continue
		}

		decoded, err := decodeListingTx(ctx, s.node, s.net, tx)
		if err != nil {
			if errors.Is(err, ports.ErrRpcTransient) {
				return nil, err
			}
			log.Debugf("skipping listing candidate %s: %s", tx.TxHash(), err)
			continue
		}

		balances, err := s.ledger.GetUtxoBalances(ctx, decoded.Utxo)
		if err != nil {
			return nil, err
		}

		listings = append(listings, *domain.NewListing(
			decoded.Txid, decoded.Utxo, decoded.Price, decoded.Seller,
			decoded.Psbt, balances, info.Time, info.Height,
		))
	}
	return listings, nil
}
