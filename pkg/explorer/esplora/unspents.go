package esplora

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/JavierCervilla/BTC-OPENBOOK/pkg/explorer"
	"github.com/JavierCervilla/BTC-OPENBOOK/pkg/util"
)

func (e *esplora) GetUnspents(
	ctx context.Context, addr string,
) ([]explorer.Utxo, error) {
	url := fmt.Sprintf("%s/address/%s/utxo", e.apiURL, addr)
	return e.getUnspents(ctx, url)
}

func (e *esplora) GetUnspentsForScript(
	ctx context.Context, script []byte,
) ([]explorer.Utxo, error) {
	url := fmt.Sprintf(
		"%s/scripthash/%s/utxo", e.apiURL, explorer.ScriptHash(script),
	)
	return e.getUnspents(ctx, url)
}

func (e *esplora) getUnspents(
	ctx context.Context, url string,
) ([]explorer.Utxo, error) {
	status, resp, err := util.NewHTTPRequest(ctx, http.MethodGet, url, "", nil)
	if err != nil {
		return nil, fmt.Errorf("error on retrieving utxos: %w", err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("error on retrieving utxos: %s", resp)
	}

	unspents := make([]explorer.Utxo, 0)
	if err := json.Unmarshal([]byte(resp), &unspents); err != nil {
		return nil, fmt.Errorf("error on retrieving utxos: %w", err)
	}
	return unspents, nil
}
