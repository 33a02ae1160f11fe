// Command cmd-export-postgis copies every cat's common places into a PostGIS table.
package main

import (
	"context"
	"database/sql"
	"flag"

	postgis "github.com/cridenour/go-postgis"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/rotblauer/catTrips/config"
	"github.com/rotblauer/catTrips/logging"
	"github.com/rotblauer/catTrips/model"
	"github.com/rotblauer/catTrips/store"
)

const createTable = `CREATE TABLE IF NOT EXISTS common_places (
	id TEXT PRIMARY KEY,
	cat TEXT NOT NULL,
	name TEXT,
	member_count INTEGER NOT NULL,
	centroid GEOMETRY(Point, 4326) NOT NULL
)`

const upsertPlace = `INSERT INTO common_places (id, cat, name, member_count, centroid)
VALUES ($1, $2, $3, $4, ST_GeomFromEWKB($5))
ON CONFLICT (id) DO UPDATE SET
	name = EXCLUDED.name,
	member_count = EXCLUDED.member_count,
	centroid = EXCLUDED.centroid`

type placeRow struct {
	ID          string
	Cat         string
	Name        sql.NullString
	MemberCount int
	Centroid    postgis.PointS
}

func placeRows(tm model.TourModel) []placeRow {
	rows := make([]placeRow, 0, len(tm.CommonPlaces))
	for _, cp := range tm.CommonPlaces {
		rows = append(rows, placeRow{
			ID:          cp.ID,
			Cat:         tm.UserID,
			Name:        sql.NullString{String: cp.Name, Valid: cp.Name != ""},
			MemberCount: cp.MemberCount,
			Centroid:    postgis.PointS{SRID: 4326, X: cp.Centroid.Lng, Y: cp.Centroid.Lat},
		})
	}
	return rows
}

func main() {
	var configPath, dsn string
	flag.StringVar(&configPath, "config", "", "path to yaml config")
	flag.StringVar(&dsn, "dsn", "postgres://localhost/cattracks?sslmode=disable", "postgres connection string")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	logging.Init(cfg.Logging)
	ctx := context.Background()

	src, err := store.OpenBolt(cfg.Store.Path, cfg.Store.Timeout)
	if err != nil {
		log.Fatal().Err(err).Msg("open db")
	}
	defer src.Close()

	pg, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("open postgres")
	}
	defer pg.Close()
	if _, err := pg.ExecContext(ctx, createTable); err != nil {
		log.Fatal().Err(err).Msg("create table")
	}

	users, err := src.Users(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("users")
	}
	for _, u := range users {
		tm, err := store.GetTourModel(ctx, src, u)
		if err != nil {
			log.Error().Err(err).Str("cat", u).Msg("tour model")
			continue
		}
		n, err := export(ctx, pg, placeRows(tm))
		if err != nil {
			log.Error().Err(err).Str("cat", u).Msg("export")
			continue
		}
		log.Info().Str("cat", u).Int("places", n).Msg("exported")
	}
}

func export(ctx context.Context, pg *sql.DB, rows []placeRow) (int, error) {
	tx, err := pg.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	for i, r := range rows {
		if _, err := tx.ExecContext(ctx, upsertPlace, r.ID, r.Cat, r.Name, r.MemberCount, r.Centroid); err != nil {
			tx.Rollback()
			return i, err
		}
	}
	return len(rows), tx.Commit()
}
