package persistence

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/khoahotran/talent-forge/internal/config"
	"github.com/khoahotran/talent-forge/internal/domain/jobseeker"
	"github.com/khoahotran/talent-forge/pkg/logger"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// DBTX is the query surface shared by *pgxpool.Pool and pgx.Tx, so a repository
// works the same inside and outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func NewPostgresPool(cfg config.Config, log logger.Logger) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(context.Background(), cfg.DB.DSN)
	if err != nil {
		return nil, fmt.Errorf("do not create connection pool: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database failed: %w", err)
	}

	log.Info("Connect PostgreSQL successfully.")
	return pool, nil
}

type txManager struct {
	pool *pgxpool.Pool
}

// NewTxManager returns a UnitOfWork whose stores share one pgx transaction.
func NewTxManager(pool *pgxpool.Pool) jobseeker.UnitOfWork {
	return &txManager{pool: pool}
}

func (m *txManager) WithinTx(ctx context.Context, fn func(ctx context.Context, s jobseeker.Stores) error) error {
	return pgx.BeginFunc(ctx, m.pool, func(tx pgx.Tx) error {
		return fn(ctx, jobseeker.Stores{
			Profiles: NewPostgresJobSeekerRepo(tx),
			Skills:   NewPostgresSkillRepo(tx),
		})
	})
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
