// Package websocket implements ports.TipNotifier with the block feed of a
// mempool-like websocket api.
package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/JavierCervilla/BTC-OPENBOOK/internal/core/ports"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const tipsBufferSize = 16

var (
	// ReconnectDelay is the time waited before reopening a dropped
	// connection.
	ReconnectDelay = 5 * time.Second

	subscribeMsg = map[string]interface{}{
		"action": "want",
		"data":   []string{"blocks"},
	}
)

type blockMsg struct {
	Block *struct {
		Height uint64 `json:"height"`
	} `json:"block"`
}

type service struct {
	url  string
	tips chan uint64
	quit chan struct{}

	lock      sync.Mutex
	conn      *websocket.Conn
	started   bool
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewTipNotifier returns a notifier for the websocket endpoint at url.
func NewTipNotifier(url string) (ports.TipNotifier, error) {
	if url == "" {
		return nil, fmt.Errorf("missing websocket url")
	}
	return &service{
		url:  url,
		tips: make(chan uint64, tipsBufferSize),
		quit: make(chan struct{}),
	}, nil
}

// Start opens the connection and listens for new blocks until ctx is done
// or the notifier is closed. Dropped connections are reopened.
func (s *service) Start(ctx context.Context) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.started {
		return fmt.Errorf("tip notifier already started")
	}
	conn, err := connectAndSubscribe(ctx, s.url)
	if err != nil {
		return err
	}
	s.conn = conn
	s.started = true

	s.wg.Add(2)
	go s.listen(ctx)
	go func() {
		defer s.wg.Done()
		select {
		case <-ctx.Done():
		case <-s.quit:
		}
		s.closeConn()
	}()
	return nil
}

func (s *service) Tips() <-chan uint64 {
	return s.tips
}

func (s *service) Close() {
	s.closeOnce.Do(func() {
		close(s.quit)
		s.closeConn()
		s.wg.Wait()
		close(s.tips)
	})
}

func (s *service) listen(ctx context.Context) {
	defer s.wg.Done()

	for {
		conn := s.getConn()
		if conn == nil {
			return
		}
		_, message, err := conn.ReadMessage()
		if err != nil {
			if s.isDone(ctx) {
				return
			}
			log.WithError(err).Warn("tip notifier connection dropped, reconnecting...")
			if !s.reconnect(ctx) {
				return
			}
			continue
		}

		height, ok := parseTip(message)
		if !ok {
			continue
		}
		select {
		case s.tips <- height:
		default:
			log.Debugf("tips buffer full, dropping tip %d", height)
		}
	}
}

// reconnect retries to open the connection until it succeeds or the
// notifier is done, and returns whether it succeeded.
func (s *service) reconnect(ctx context.Context) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case <-s.quit:
			return false
		case <-time.After(ReconnectDelay):
		}

		conn, err := connectAndSubscribe(ctx, s.url)
		if err != nil {
			log.WithError(err).Debug("failed to reconnect tip notifier")
			continue
		}

		s.lock.Lock()
		if s.isDone(ctx) {
			s.lock.Unlock()
			conn.Close()
			return false
		}
		s.conn = conn
		s.lock.Unlock()
		log.Debug("tip notifier connection re-established")
		return true
	}
}

func (s *service) getConn() *websocket.Conn {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.conn
}

func (s *service) closeConn() {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.conn != nil {
		s.conn.Close()
	}
}

func (s *service) isDone(ctx context.Context) bool {
	select {
	case <-s.quit:
		return true
	default:
		return ctx.Err() != nil
	}
}

func parseTip(msg []byte) (uint64, bool) {
	var m blockMsg
	if err := json.Unmarshal(msg, &m); err != nil || m.Block == nil {
		return 0, false
	}
	return m.Block.Height, true
}

func connectAndSubscribe(ctx context.Context, url string) (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}

	buf, _ := json.Marshal(subscribeMsg)
	if err := conn.WriteMessage(websocket.TextMessage, buf); err != nil {
		conn.Close()
		return nil, fmt.Errorf("cannot subscribe to blocks: %s", err)
	}
	return conn, nil
}
