// Package counterparty implements ports.Ledger with the v2 REST api of a
// Counterparty node.
package counterparty

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/JavierCervilla/BTC-OPENBOOK/internal/core/domain"
	"github.com/JavierCervilla/BTC-OPENBOOK/internal/core/ports"
	"github.com/JavierCervilla/BTC-OPENBOOK/pkg/stats"
	"github.com/JavierCervilla/BTC-OPENBOOK/pkg/util"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const (
	eventsPageSize = 5000
	// assetUtxoValue is the value of the coins created by attach and detach.
	assetUtxoValue = 546
)

var (
	// ErrLedger is returned for the failures reported by the ledger api.
	ErrLedger = errors.New("ledger error")

	// DefaultRetry is the retry policy of every call.
	DefaultRetry = util.RetryOpts{Attempts: 3, Delay: 500 * time.Millisecond}
)

type response struct {
	Result     json.RawMessage `json:"result"`
	Error      string          `json:"error"`
	NextCursor json.RawMessage `json:"next_cursor"`
}

type event struct {
	Event  string `json:"event"`
	TxHash string `json:"tx_hash"`
	Params struct {
		Asset              string      `json:"asset"`
		BlockIndex         uint64      `json:"block_index"`
		BlockTime          int64       `json:"block_time"`
		Source             string      `json:"source"`
		Destination        string      `json:"destination"`
		Quantity           json.Number `json:"quantity"`
		QuantityNormalized string      `json:"quantity_normalized"`
	} `json:"params"`
}

type eventCount struct {
	Event      string `json:"event"`
	EventCount uint64 `json:"event_count"`
}

type balance struct {
	Asset              string `json:"asset"`
	QuantityNormalized string `json:"quantity_normalized"`
}

type version struct {
	Version           string `json:"version"`
	Network           string `json:"network"`
	ServerReady       bool   `json:"server_ready"`
	CounterpartyIndex uint64 `json:"counterparty_height"`
	BackendHeight     uint64 `json:"backend_height"`
}

type composeResult struct {
	RawTransaction string `json:"rawtransaction"`
}

type service struct {
	baseURL string
	retry   util.RetryOpts
}

// NewService returns the client of the ledger api at baseURL.
func NewService(baseURL string) (ports.Ledger, error) {
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid ledger url: %w", err)
	}
	return &service{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		retry:   DefaultRetry,
	}, nil
}

func (s *service) GetEventCounts(
	ctx context.Context, height uint64,
) (map[string]uint64, error) {
	var counts []eventCount
	path := fmt.Sprintf("/v2/blocks/%d/events/counts", height)
	if _, err := s.get(ctx, path, url.Values{"verbose": {"true"}}, &counts); err != nil {
		return nil, err
	}

	result := make(map[string]uint64, len(counts))
	for _, c := range counts {
		result[c.Event] = c.EventCount
	}
	return domain.NewEventCounts(result), nil
}

// GetBlockEvents follows the cursor of the api until every event of the
// block is fetched.
func (s *service) GetBlockEvents(
	ctx context.Context, height uint64, eventName string,
) ([]ports.LedgerEvent, error) {
	path := fmt.Sprintf("/v2/blocks/%d/events", height)
	query := url.Values{
		"event_name": {eventName},
		"limit":      {strconv.Itoa(eventsPageSize)},
		"verbose":    {"true"},
	}

	result := make([]ports.LedgerEvent, 0)
	for {
		var events []event
		cursor, err := s.get(ctx, path, query, &events)
		if err != nil {
			return nil, err
		}
		for _, e := range events {
			result = append(result, e.toPort())
		}
		if cursor == "" || len(events) == 0 {
			return result, nil
		}
		query.Set("cursor", cursor)
	}
}

func (s *service) GetTxEvents(
	ctx context.Context, txid string, eventNames ...string,
) ([]ports.LedgerEvent, error) {
	query := url.Values{
		"limit":   {strconv.Itoa(eventsPageSize)},
		"verbose": {"true"},
	}
	if len(eventNames) > 0 {
		query.Set("event_name", strings.Join(eventNames, ","))
	}

	var events []event
	path := fmt.Sprintf("/v2/transactions/%s/events", txid)
	if _, err := s.get(ctx, path, query, &events); err != nil {
		return nil, err
	}
	result := make([]ports.LedgerEvent, 0, len(events))
	for _, e := range events {
		result = append(result, e.toPort())
	}
	return result, nil
}

func (s *service) GetUtxoBalances(
	ctx context.Context, utxo string,
) ([]domain.UtxoBalance, error) {
	var balances []balance
	path := fmt.Sprintf("/v2/utxos/%s/balances", utxo)
	if _, err := s.get(ctx, path, url.Values{"verbose": {"true"}}, &balances); err != nil {
		return nil, err
	}

	result := make([]domain.UtxoBalance, 0, len(balances))
	for _, b := range balances {
		result = append(result, domain.NewUtxoBalance(b.Asset, normalize(b.QuantityNormalized)))
	}
	return result, nil
}

func (s *service) GetUtxosWithBalances(
	ctx context.Context, utxos []string,
) (map[string]bool, error) {
	result := make(map[string]bool, len(utxos))
	if len(utxos) == 0 {
		return result, nil
	}
	query := url.Values{
		"utxos":   {strings.Join(utxos, ",")},
		"verbose": {"true"},
	}
	if _, err := s.get(ctx, "/v2/utxos/withbalances", query, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) GetVersion(ctx context.Context) (*ports.LedgerVersion, error) {
	var v version
	if _, err := s.get(ctx, "/v2", nil, &v); err != nil {
		return nil, err
	}
	return &ports.LedgerVersion{
		Version:          v.Version,
		Network:          v.Network,
		ServerReady:      v.ServerReady,
		LedgerBlockIndex: v.CounterpartyIndex,
		BackendHeight:    v.BackendHeight,
	}, nil
}

func (s *service) ComposeAttach(
	ctx context.Context, req ports.AttachRequest,
) (string, error) {
	query := composeQuery(req.FeeRate)
	query.Set("asset", req.Asset)
	query.Set("quantity", strconv.FormatUint(req.Quantity, 10))
	return s.compose(ctx, req.Address, "attach", query)
}

func (s *service) ComposeDetach(
	ctx context.Context, req ports.DetachRequest,
) (string, error) {
	query := composeQuery(req.FeeRate)
	query.Set("utxo", req.Utxo)
	return s.compose(ctx, req.Address, "detach", query)
}

func composeQuery(feeRate uint64) url.Values {
	return url.Values{
		"exclude_utxos_with_balances": {"true"},
		"utxo_value":                  {strconv.Itoa(assetUtxoValue)},
		"sat_per_vbyte":               {strconv.FormatUint(feeRate, 10)},
		"verbose":                     {"false"},
	}
}

func (s *service) compose(
	ctx context.Context, address, kind string, query url.Values,
) (string, error) {
	var result composeResult
	path := fmt.Sprintf("/v2/addresses/%s/compose/%s", address, kind)
	if _, err := s.get(ctx, path, query, &result); err != nil {
		return "", err
	}
	if result.RawTransaction == "" {
		return "", fmt.Errorf("%w: empty composed tx", ErrLedger)
	}
	return result.RawTransaction, nil
}

// get calls the api, retrying transport failures and 5xx responses, and
// decodes the result into out. It returns the cursor of the next page, if
// any.
func (s *service) get(
	ctx context.Context, path string, query url.Values, out interface{},
) (string, error) {
	endpoint := s.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var (
		status int
		body   string
	)
	attempt := 0
	err := util.Retry(ctx, s.retry, isTransient, func(ctx context.Context) error {
		if attempt > 0 {
			stats.RpcRetries.WithLabelValues("ledger").Inc()
		}
		attempt++

		start := time.Now()
		var err error
		status, body, err = util.NewHTTPRequest(ctx, http.MethodGet, endpoint, "", nil)
		if err != nil {
			return fmt.Errorf("%w: %s", ports.ErrRpcTransient, err)
		}
		log.Debugf("%s [%d] %s", endpoint, status, time.Since(start))
		if status >= http.StatusInternalServerError {
			return fmt.Errorf("%w: %s: HTTP %d", ports.ErrRpcTransient, path, status)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	var resp response
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		return "", fmt.Errorf("%w: %s: invalid response: %s", ErrLedger, path, err)
	}
	if resp.Error != "" {
		return "", fmt.Errorf("%w: %s: %s", ErrLedger, path, resp.Error)
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("%w: %s: HTTP %d", ErrLedger, path, status)
	}
	if out != nil && len(resp.Result) > 0 && string(resp.Result) != "null" {
		if err := json.Unmarshal(resp.Result, out); err != nil {
			return "", fmt.Errorf("%w: %s: invalid result: %s", ErrLedger, path, err)
		}
	}
	return cursor(resp.NextCursor), nil
}

func isTransient(err error) bool {
	return errors.Is(err, ports.ErrRpcTransient)
}

// cursor returns the next_cursor of a response, either a number or a
// string, or empty if null.
func cursor(raw json.RawMessage) string {
	c := strings.Trim(string(raw), `"`)
	if c == "null" {
		return ""
	}
	return c
}

// normalize returns the canonical decimal representation of a quantity,
// without trailing zeros.
func normalize(qty string) string {
	d, err := decimal.NewFromString(qty)
	if err != nil {
		return qty
	}
	return d.String()
}

func (e event) toPort() ports.LedgerEvent {
	quantity, _ := strconv.ParseUint(e.Params.Quantity.String(), 10, 64)
	return ports.LedgerEvent{
		Event:         e.Event,
		Txid:          e.TxHash,
		BlockIndex:    e.Params.BlockIndex,
		BlockTime:     e.Params.BlockTime,
		Source:        e.Params.Source,
		Destination:   e.Params.Destination,
		Asset:         e.Params.Asset,
		Quantity:      quantity,
		QtyNormalized: normalize(e.Params.QuantityNormalized),
	}
}
