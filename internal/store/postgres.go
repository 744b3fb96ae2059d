package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dinepos/api/internal/model"
)

// Postgres stores every entity as a versioned jsonb record and backs
// sequence reservation with a transactional counter upsert, so two
// concurrent callers can never reserve the same number.
type Postgres struct {
	pool *pgxpool.Pool
}

const schema = `
CREATE TABLE IF NOT EXISTS records (
	kind    text   NOT NULL,
	id      text   NOT NULL,
	version bigint NOT NULL,
	data    jsonb  NOT NULL,
	PRIMARY KEY (kind, id)
);
CREATE TABLE IF NOT EXISTS sequences (
	kind    text    NOT NULL,
	day     date    NOT NULL,
	counter integer NOT NULL,
	PRIMARY KEY (kind, day)
);
`

// NewPostgres connects, verifies the connection and bootstraps the
// schema.
func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close releases the underlying pool.
func (s *Postgres) Close() { s.pool.Close() }

// --- generic record helpers ---

func (s *Postgres) get(ctx context.Context, kind, id string, dst any) error {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM records WHERE kind = $1 AND id = $2`, kind, id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", kind, id, model.ErrNotFound)
	}
	if err != nil {
		return storeErr("get "+kind, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s %s: %w", kind, id, err)
	}
	return nil
}

// put writes a record at newVersion, expecting the stored record to be
// at newVersion-1 (or absent when newVersion is 1). The entity must
// already carry newVersion in its data.
func (s *Postgres) put(ctx context.Context, kind, id string, newVersion int64, entity any) error {
	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("encode %s %s: %w", kind, id, err)
	}
	if newVersion == 1 {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO records (kind, id, version, data) VALUES ($1, $2, $3, $4)`,
			kind, id, newVersion, data)
		if isUniqueViolation(err) {
			return fmt.Errorf("%s %s: %w", kind, id, model.ErrConflict)
		}
		if err != nil {
			return storeErr("insert "+kind, err)
		}
		return nil
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE records SET version = $3, data = $4 WHERE kind = $1 AND id = $2 AND version = $5`,
		kind, id, newVersion, data, newVersion-1)
	if err != nil {
		return storeErr("update "+kind, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, model.ErrConflict)
	}
	return nil
}

func (s *Postgres) list(ctx context.Context, query string, args ...any) ([][]byte, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, storeErr("list", err)
	}
	defer rows.Close()
	var out [][]byte
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, storeErr("scan", err)
		}
		out = append(out, data)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list", err)
	}
	return out, nil
}

// --- tables ---

func (s *Postgres) GetTable(ctx context.Context, number int) (model.Table, error) {
	var t model.Table
	if err := s.get(ctx, KindTable, strconv.Itoa(number), &t); err != nil {
		return model.Table{}, err
	}
	return t, nil
}

func (s *Postgres) PutTable(ctx context.Context, t model.Table) (model.Table, error) {
	t.Version++
	if err := s.put(ctx, KindTable, strconv.Itoa(t.Number), t.Version, t); err != nil {
		return model.Table{}, err
	}
	return t, nil
}

func (s *Postgres) ListTables(ctx context.Context) ([]model.Table, error) {
	raws, err := s.list(ctx,
		`SELECT data FROM records WHERE kind = $1 ORDER BY (data->>'number')::int`, KindTable)
	if err != nil {
		return nil, err
	}
	return decodeAll[model.Table](raws)
}

// --- orders ---

func (s *Postgres) GetOrder(ctx context.Context, id uuid.UUID) (model.Order, error) {
	var o model.Order
	if err := s.get(ctx, KindOrder, id.String(), &o); err != nil {
		return model.Order{}, err
	}
	return o, nil
}

func (s *Postgres) PutOrder(ctx context.Context, o model.Order) (model.Order, error) {
	o.Version++
	if err := s.put(ctx, KindOrder, o.ID.String(), o.Version, o); err != nil {
		return model.Order{}, err
	}
	return o, nil
}

func (s *Postgres) ListOrders(ctx context.Context, f OrderFilter) ([]model.Order, error) {
	query := `SELECT data FROM records WHERE kind = $1`
	args := []any{KindOrder}
	add := func(clause string, v any) {
		args = append(args, v)
		query += fmt.Sprintf(" AND "+clause, len(args))
	}
	if f.Status != "" {
		add(`data->>'status' = $%d`, f.Status)
	}
	if f.ExcludeStatus != "" {
		add(`data->>'status' <> $%d`, f.ExcludeStatus)
	}
	if f.Type != "" {
		add(`data->>'type' = $%d`, f.Type)
	}
	if f.TableNumber != nil {
		add(`(data->>'table_number')::int = $%d`, *f.TableNumber)
	}
	if f.Since != nil {
		add(`(data->>'created_at')::timestamptz >= $%d`, *f.Since)
	}
	if f.Until != nil {
		add(`(data->>'created_at')::timestamptz < $%d`, *f.Until)
	}
	query += ` ORDER BY (data->>'created_at')::timestamptz DESC`
	raws, err := s.list(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return decodeAll[model.Order](raws)
}

func (s *Postgres) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM records WHERE kind = $1 AND id = $2`, KindOrder, id.String())
	if err != nil {
		return storeErr("delete order", err)
	}
	return nil
}

// --- tickets ---

func (s *Postgres) GetTicket(ctx context.Context, id uuid.UUID) (model.Ticket, error) {
	var t model.Ticket
	if err := s.get(ctx, KindTicket, id.String(), &t); err != nil {
		return model.Ticket{}, err
	}
	return t, nil
}

func (s *Postgres) PutTicket(ctx context.Context, t model.Ticket) (model.Ticket, error) {
	t.Version++
	if err := s.put(ctx, KindTicket, t.ID.String(), t.Version, t); err != nil {
		return model.Ticket{}, err
	}
	return t, nil
}

func (s *Postgres) ListTickets(ctx context.Context, f TicketFilter) ([]model.Ticket, error) {
	query := `SELECT data FROM records WHERE kind = $1`
	args := []any{KindTicket}
	if len(f.Statuses) > 0 {
		args = append(args, f.Statuses)
		query += fmt.Sprintf(` AND data->>'status' = ANY($%d)`, len(args))
	}
	query += ` ORDER BY (data->>'created_at')::timestamptz`
	raws, err := s.list(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return decodeAll[model.Ticket](raws)
}

// --- menu ---

func (s *Postgres) GetMenuItem(ctx context.Context, id uuid.UUID) (model.MenuItem, error) {
	var m model.MenuItem
	if err := s.get(ctx, KindMenuItem, id.String(), &m); err != nil {
		return model.MenuItem{}, err
	}
	return m, nil
}

func (s *Postgres) PutMenuItem(ctx context.Context, m model.MenuItem) (model.MenuItem, error) {
	m.Version++
	if err := s.put(ctx, KindMenuItem, m.ID.String(), m.Version, m); err != nil {
		return model.MenuItem{}, err
	}
	return m, nil
}

func (s *Postgres) ListMenuItems(ctx context.Context) ([]model.MenuItem, error) {
	raws, err := s.list(ctx,
		`SELECT data FROM records WHERE kind = $1 ORDER BY data->>'name'`, KindMenuItem)
	if err != nil {
		return nil, err
	}
	return decodeAll[model.MenuItem](raws)
}

// --- sequences ---

func (s *Postgres) NextSequence(ctx context.Context, kind string, asOf time.Time) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `
		INSERT INTO sequences (kind, day, counter) VALUES ($1, $2, 1)
		ON CONFLICT (kind, day) DO UPDATE SET counter = sequences.counter + 1
		RETURNING counter`,
		kind, asOf.Format("2006-01-02")).Scan(&n)
	if err != nil {
		return 0, storeErr("next sequence", err)
	}
	return n, nil
}

// --- helpers ---

func decodeAll[T any](raws [][]byte) ([]T, error) {
	out := make([]T, 0, len(raws))
	for _, raw := range raws {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		out = append(out, v)
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, model.ErrStoreUnavailable, err)
}
