package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-storefront-bot/internal/domain"
	"telegram-storefront-bot/internal/domain/model"
	"telegram-storefront-bot/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*PostgresUserRepo)(nil)

// querier is the subset of *pgxpool.Pool the repo needs.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	Ping(ctx context.Context) error
}

type PostgresUserRepo struct {
	db querier
}

func NewUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{db: pool}
}

// Upsert is a single INSERT .. ON CONFLICT statement. NULL parameters keep the
// stored column and registered is OR-ed so it never reverts.
func (r *PostgresUserRepo) Upsert(ctx context.Context, userID int64, p model.UserPatch) error {
	if err := model.ValidateUserID(userID); err != nil {
		return err
	}
	const q = `
INSERT INTO users (user_id, phone, latitude, longitude, registered)
VALUES ($1, $2, $3, $4, COALESCE($5::boolean, FALSE))
ON CONFLICT (user_id) DO UPDATE SET
  phone      = COALESCE(EXCLUDED.phone, users.phone),
  latitude   = COALESCE(EXCLUDED.latitude, users.latitude),
  longitude  = COALESCE(EXCLUDED.longitude, users.longitude),
  registered = users.registered OR EXCLUDED.registered;
`
	if _, err := r.db.Exec(ctx, q, userID, p.Phone, p.Latitude, p.Longitude, p.Registered); err != nil {
		return fmt.Errorf("upsert user %d: %w", userID, err)
	}
	return nil
}

func (r *PostgresUserRepo) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	const q = `SELECT user_id, phone, latitude, longitude, registered FROM users WHERE user_id=$1;`
	u, err := scanUser(r.db.QueryRow(ctx, q, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find user %d: %w", userID, err)
	}
	return u, nil
}

func (r *PostgresUserRepo) IsRegistered(ctx context.Context, userID int64) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM users WHERE user_id=$1 AND registered);`
	var ok bool
	if err := r.db.QueryRow(ctx, q, userID).Scan(&ok); err != nil {
		return false, fmt.Errorf("is registered %d: %w", userID, err)
	}
	return ok, nil
}

func (r *PostgresUserRepo) ListRegisteredIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT user_id FROM users WHERE registered ORDER BY user_id;`)
	if err != nil {
		return nil, fmt.Errorf("list registered: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan registered id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *PostgresUserRepo) CountRegistered(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE registered;`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count registered: %w", err)
	}
	return n, nil
}

func (r *PostgresUserRepo) ListForExport(ctx context.Context, onlyRegistered bool) ([]*model.User, error) {
	q := `SELECT user_id, phone, latitude, longitude, registered FROM users ORDER BY user_id;`
	if onlyRegistered {
		q = `SELECT user_id, phone, latitude, longitude, registered FROM users WHERE registered ORDER BY user_id;`
	}
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list for export: %w", err)
	}
	defer rows.Close()

	var out []*model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan export row: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *PostgresUserRepo) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.UserID, &u.Phone, &u.Latitude, &u.Longitude, &u.Registered); err != nil {
		return nil, err
	}
	return &u, nil
}
