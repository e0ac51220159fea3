package main

import (
	"context"
	"time"

	"issuemap_backend/internal/geocode"
	"issuemap_backend/platform/cache"
	"issuemap_backend/platform/config"
	"issuemap_backend/platform/db"
	"issuemap_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

type issuePoint struct {
	id  int64
	lat float64
	lon float64
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting issue address backfill")

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	var store cache.Store
	if cfg.RedisURL != "" {
		redisStore, err := cache.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			log.Error("failed to connect to redis", "error", err)
			panic("failed to connect to redis: " + err.Error())
		}
		defer func() {
			_ = redisStore.Close()
		}()
		store = redisStore
	} else {
		store = cache.NewMemory()
	}

	profile := cfg.GetGeocodeProfile()
	resolver := geocode.NewResolver(profile, geocode.NewClient(profile), store, nil, log)

	const batchSize = 25
	for {
		issues, err := listIssuesMissingAddress(ctx, pool, batchSize)
		if err != nil {
			log.Error("failed to list issues", "error", err)
			return
		}
		if len(issues) == 0 {
			log.Info("no issues left to label")
			return
		}

		progress := false

		for _, issue := range issues {
			label := resolver.ReverseGeocode(ctx, issue.lat, issue.lon)

			if err := updateIssueAddress(ctx, pool, issue.id, label); err != nil {
				log.Error("failed to update issue", "issueId", issue.id, "error", err)
				time.Sleep(time.Second)
				continue
			}

			log.Info("issue labeled", "issueId", issue.id, "address", label)
			progress = true
			time.Sleep(time.Second)
		}

		if !progress {
			log.Info("no backfill progress in batch, stopping")
			return
		}
	}
}

func listIssuesMissingAddress(ctx context.Context, pool *pgxpool.Pool, limit int) ([]issuePoint, error) {
	rows, err := pool.Query(ctx, `
		SELECT id, ST_Y(location::geometry), ST_X(location::geometry)
		FROM issues_issue
		WHERE location IS NOT NULL
		  AND (address_label IS NULL OR address_label = '')
		ORDER BY created_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	issues := make([]issuePoint, 0)
	for rows.Next() {
		var issue issuePoint
		if err := rows.Scan(&issue.id, &issue.lat, &issue.lon); err != nil {
			return nil, err
		}
		issues = append(issues, issue)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return issues, nil
}

func updateIssueAddress(ctx context.Context, pool *pgxpool.Pool, id int64, label string) error {
	_, err := pool.Exec(ctx, `
		UPDATE issues_issue
		SET address_label = $2, updated_at = now()
		WHERE id = $1
	`, id, label)
	return err
}
