package dbsqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/JavierCervilla/BTC-OPENBOOK/internal/core/domain"
)

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// assetFilter matches the rows whose utxo_balance json column lists the
// asset bound to the placeholder.
const assetFilter = `EXISTS (
	SELECT 1 FROM json_each(utxo_balance)
	WHERE json_extract(value, '$.assetId') = ?
)`

func toJSON(v interface{}) (string, error) {
	buf, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

func fromJSON(s string, v interface{}) error {
	if s == "" {
		return nil
	}
	return json.Unmarshal([]byte(s), v)
}

// queryAll runs the query and scans every row with scan. Rows are read to
// completion before returning since the pool holds a single connection.
func queryAll[T any](
	ctx context.Context, q querier, scan func(scanner) (T, error),
	query string, args ...interface{},
) ([]T, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]T, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// queryPage returns the page of the rows of table matching where, sorted by
// descending height, along with their total count.
func queryPage[T any](
	ctx context.Context, q querier, scan func(scanner) (T, error),
	columns, table, where string, page domain.Page, args ...interface{},
) ([]T, int, error) {
	if where == "" {
		where = "1 = 1"
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", table, where)
	if err := q.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, domain.StorageError(err)
	}

	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s ORDER BY block_index DESC, txid DESC LIMIT ? OFFSET ?",
		columns, table, where,
	)
	pageArgs := append(append([]interface{}{}, args...), page.Size, page.Offset())
	items, err := queryAll(ctx, q, scan, query, pageArgs...)
	if err != nil {
		return nil, 0, domain.StorageError(err)
	}
	return items, total, nil
}

// insertCount runs the insert statement for every args list and returns the
// number of rows actually inserted.
func insertCount(
	ctx context.Context, q querier, stmt string, argsList [][]interface{},
) (int, error) {
	count := 0
	for _, args := range argsList {
		res, err := q.ExecContext(ctx, stmt, args...)
		if err != nil {
			return 0, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		count += int(n)
	}
	return count, nil
}
