package esplora

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/JavierCervilla/BTC-OPENBOOK/pkg/explorer"
	"github.com/JavierCervilla/BTC-OPENBOOK/pkg/util"
)

type esplora struct {
	apiURL string
}

// NewService returns a new esplora service as an explorer.Service interface
func NewService(apiURL string) (explorer.Service, error) {
	if len(apiURL) <= 0 {
		return nil, fmt.Errorf("missing esplora url")
	}
	return &esplora{strings.TrimSuffix(apiURL, "/")}, nil
}

func (e *esplora) GetBlockHeight(ctx context.Context) (uint64, error) {
	url := fmt.Sprintf("%s/blocks/tip/height", e.apiURL)
	status, resp, err := util.NewHTTPRequest(ctx, http.MethodGet, url, "", nil)
	if err != nil {
		return 0, err
	}
	if status != http.StatusOK {
		return 0, fmt.Errorf("esplora: %s", resp)
	}

	var height uint64
	if _, err := fmt.Sscan(strings.TrimSpace(resp), &height); err != nil {
		return 0, fmt.Errorf("esplora: invalid tip height %q", resp)
	}
	return height, nil
}
