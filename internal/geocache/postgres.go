package geocache

import (
	"context"
	"database/sql"
	"errors"

	_ "github.com/jackc/pgx/v5/stdlib"

	"walkroute/internal/model"
)

// Postgres persists the cache across restarts. Schema:
//
//	CREATE TABLE IF NOT EXISTS geocode_cache (
//	    cache_key TEXT PRIMARY KEY,
//	    lat DOUBLE PRECISION NOT NULL,
//	    lon DOUBLE PRECISION NOT NULL,
//	    elev DOUBLE PRECISION NOT NULL DEFAULT 0,
//	    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &Postgres{db: db}, nil
}

func (s *Postgres) Get(ctx context.Context, key string) (model.Coordinate, bool, error) {
	var c model.Coordinate
	err := s.db.QueryRowContext(ctx, `SELECT lat, lon, elev FROM geocode_cache WHERE cache_key=$1`, key).
		Scan(&c.Lat, &c.Lon, &c.Elev)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Coordinate{}, false, nil
	}
	if err != nil {
		return model.Coordinate{}, false, err
	}
	return c, true, nil
}

func (s *Postgres) Put(ctx context.Context, key string, c model.Coordinate) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO geocode_cache (cache_key, lat, lon, elev)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (cache_key) DO NOTHING`, key, c.Lat, c.Lon, c.Elev)
	return err
}
