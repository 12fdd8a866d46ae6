package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/dailyshot/internal/logger"
	"github.com/vytor/dailyshot/internal/models"
	"github.com/vytor/dailyshot/internal/repository"
)

type catalogRepository struct {
	db *sql.DB
}

// NewCatalogRepository creates a new CatalogRepository implementation
func NewCatalogRepository(db *sql.DB) repository.CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) ListEligibleScreenshots(ctx context.Context, minQuality int) ([]models.ScreenshotRef, error) {
	log := logger.FromContext(ctx).WithPrefix("catalog_repo")
	log.Debug("listing eligible screenshots: min_quality=%d", minQuality)

	rows, err := queryRows(ctx, r.db, sqlBuilder.
		Select("id", "game_id", "quality").
		From("screenshots").
		Where(squirrel.Eq{"is_active": 1}).
		Where(squirrel.GtOrEq{"quality": minQuality}).
		OrderBy("id"))
	if err != nil {
		log.Error("failed to query eligible screenshots: %v", err)
		return nil, err
	}
	defer rows.Close()

	var refs []models.ScreenshotRef
	for rows.Next() {
		var ref models.ScreenshotRef
		if err := rows.Scan(&ref.ID, &ref.GameID, &ref.Quality); err != nil {
			log.Error("failed to scan screenshot ref: %v", err)
			return nil, err
		}
		refs = append(refs, ref)
	}
	log.Debug("found %d eligible screenshots", len(refs))
	return refs, rows.Err()
}

func (r *catalogRepository) IncrementUsage(ctx context.Context, screenshotID int64) error {
	log := logger.FromContext(ctx).WithPrefix("catalog_repo")
	log.Debug("incrementing usage: screenshot_id=%d", screenshotID)

	err := incrementScreenshot(ctx, r.db, screenshotID, "usage_count")
	if err != nil {
		log.Error("failed to increment usage: %v", err)
	}
	return err
}

func (r *catalogRepository) GetScreenshot(ctx context.Context, id int64) (*models.Screenshot, error) {
	log := logger.FromContext(ctx).WithPrefix("catalog_repo")

	row, err := queryRow(ctx, r.db, sqlBuilder.
		Select("id", "game_id", "image_path", "quality", "is_active", "usage_count", "correct_count", "created_at").
		From("screenshots").
		Where(squirrel.Eq{"id": id}))
	if err != nil {
		return nil, err
	}

	var s models.Screenshot
	err = row.Scan(&s.ID, &s.GameID, &s.ImagePath, &s.Quality, &s.IsActive, &s.UsageCount, &s.CorrectCount, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("screenshot not found: id=%d", id)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get screenshot: %v", err)
		return nil, err
	}
	return &s, nil
}

func (r *catalogRepository) GetGame(ctx context.Context, id int64) (*models.Game, error) {
	log := logger.FromContext(ctx).WithPrefix("catalog_repo")

	row, err := queryRow(ctx, r.db, sqlBuilder.
		Select("id", "name", "release_year", "publisher", "developer", "genre", "created_at").
		From("games").
		Where(squirrel.Eq{"id": id}))
	if err != nil {
		return nil, err
	}

	var g models.Game
	err = row.Scan(&g.ID, &g.Name, &g.ReleaseYear, &g.Publisher, &g.Developer, &g.Genre, &g.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("game not found: id=%d", id)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get game: %v", err)
		return nil, err
	}
	return &g, nil
}

func (r *catalogRepository) ListAliases(ctx context.Context, gameID int64) ([]string, error) {
	rows, err := queryRows(ctx, r.db, sqlBuilder.
		Select("alias").
		From("game_aliases").
		Where(squirrel.Eq{"game_id": gameID}).
		OrderBy("alias"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var aliases []string
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, err
		}
		aliases = append(aliases, a)
	}
	return aliases, rows.Err()
}

func (r *catalogRepository) UpsertGame(ctx context.Context, g models.Game, aliases []string) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("catalog_repo")
	log.Debug("upserting game: name=%s, aliases=%d", g.Name, len(aliases))

	var id int64
	err := tx(ctx, r.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
INSERT INTO games (name, release_year, publisher, developer, genre)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(name) DO UPDATE SET
    release_year = excluded.release_year,
    publisher = excluded.publisher,
    developer = excluded.developer,
    genre = excluded.genre
RETURNING id
`, g.Name, g.ReleaseYear, g.Publisher, g.Developer, g.Genre).Scan(&id)
		if err != nil {
			return err
		}
		for _, alias := range aliases {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO game_aliases (game_id, alias) VALUES (?, ?) ON CONFLICT DO NOTHING`, id, alias); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Error("failed to upsert game: %v", err)
		return 0, err
	}
	return id, nil
}

func (r *catalogRepository) UpsertScreenshot(ctx context.Context, s models.Screenshot) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("catalog_repo")
	log.Debug("upserting screenshot: path=%s, game_id=%d", s.ImagePath, s.GameID)

	var id int64
	err := r.db.QueryRowContext(ctx, `
INSERT INTO screenshots (game_id, image_path, quality, is_active)
VALUES (?, ?, ?, ?)
ON CONFLICT(image_path) DO UPDATE SET
    game_id = excluded.game_id,
    quality = excluded.quality,
    is_active = excluded.is_active
RETURNING id
`, s.GameID, s.ImagePath, s.Quality, boolInt(s.IsActive)).Scan(&id)
	if err != nil {
		log.Error("failed to upsert screenshot: %v", err)
		return 0, err
	}
	return id, nil
}
