package esplora

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/JavierCervilla/BTC-OPENBOOK/pkg/explorer"
	"github.com/JavierCervilla/BTC-OPENBOOK/pkg/util"
)

func (e *esplora) GetTransactionHex(
	ctx context.Context, hash string,
) (string, error) {
	url := fmt.Sprintf("%s/tx/%s/hex", e.apiURL, hash)
	status, resp, err := util.NewHTTPRequest(ctx, http.MethodGet, url, "", nil)
	if err != nil {
		return "", err
	}
	if status == http.StatusNotFound {
		return "", fmt.Errorf("transaction %s: %w", hash, explorer.ErrNotFound)
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("esplora: %s", resp)
	}
	return strings.TrimSpace(resp), nil
}

func (e *esplora) BroadcastTransaction(
	ctx context.Context, txHex string,
) (string, error) {
	url := fmt.Sprintf("%s/tx", e.apiURL)
	headers := map[string]string{
		"Content-Type": "text/plain",
	}

	status, resp, err := util.NewHTTPRequest(
		ctx, http.MethodPost, url, txHex, headers,
	)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("esplora: %s", resp)
	}
	return strings.TrimSpace(resp), nil
}
