// Package catalog imports games and screenshots from YAML files.
//
// A catalog file looks like:
//
//	games:
//	  - name: Chrono Trigger
//	    year: 1995
//	    publisher: Square
//	    developer: Square
//	    genre: RPG
//	    aliases: [chrono]
//	    screenshots:
//	      - path: shots/chrono-trigger/1.jpg
//	        quality: 92
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vytor/dailyshot/internal/logger"
	"github.com/vytor/dailyshot/internal/models"
	"github.com/vytor/dailyshot/internal/repository"
)

type File struct {
	Games []GameEntry `yaml:"games"`
}

type GameEntry struct {
	Name        string            `yaml:"name"`
	Year        int               `yaml:"year"`
	Publisher   string            `yaml:"publisher"`
	Developer   string            `yaml:"developer"`
	Genre       string            `yaml:"genre"`
	Aliases     []string          `yaml:"aliases"`
	Screenshots []ScreenshotEntry `yaml:"screenshots"`
}

type ScreenshotEntry struct {
	Path    string `yaml:"path"`
	Quality int    `yaml:"quality"`
	Active  *bool  `yaml:"active"` // defaults to true
}

// LoadReport counts what an import touched.
type LoadReport struct {
	Games       int `json:"games"`
	Aliases     int `json:"aliases"`
	Screenshots int `json:"screenshots"`
}

// Parse decodes and validates a catalog. Unknown keys are rejected.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate reports every problem in the file at once.
func (f *File) Validate() error {
	var problems []string
	names := make(map[string]bool)
	paths := make(map[string]bool)

	for i, g := range f.Games {
		name := strings.TrimSpace(g.Name)
		if name == "" {
			problems = append(problems, fmt.Sprintf("games[%d]: name cannot be empty", i))
		} else if names[name] {
			problems = append(problems, fmt.Sprintf("games[%d]: duplicate name %q", i, name))
		}
		names[name] = true

		for j, s := range g.Screenshots {
			switch {
			case s.Path == "":
				problems = append(problems, fmt.Sprintf("games[%d].screenshots[%d]: path cannot be empty", i, j))
			case paths[s.Path]:
				problems = append(problems, fmt.Sprintf("games[%d].screenshots[%d]: duplicate path %q", i, j, s.Path))
			}
			paths[s.Path] = true
			if s.Quality < 0 || s.Quality > 100 {
				problems = append(problems, fmt.Sprintf("games[%d].screenshots[%d]: quality must be between 0 and 100", i, j))
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid catalog:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

// LoadFile parses path and upserts its contents.
func LoadFile(ctx context.Context, repo repository.CatalogRepository, path string) (*LoadReport, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer fh.Close()

	f, err := Parse(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return Load(ctx, repo, f)
}

// Load upserts every game, alias and screenshot in f. Games are matched by
// name and screenshots by path, so loading the same file twice is harmless.
func Load(ctx context.Context, repo repository.CatalogRepository, f *File) (*LoadReport, error) {
	log := logger.FromContext(ctx).WithPrefix("catalog")
	report := &LoadReport{}

	for _, g := range f.Games {
		gameID, err := repo.UpsertGame(ctx, models.Game{
			Name:        strings.TrimSpace(g.Name),
			ReleaseYear: g.Year,
			Publisher:   g.Publisher,
			Developer:   g.Developer,
			Genre:       g.Genre,
		}, g.Aliases)
		if err != nil {
			return report, fmt.Errorf("failed to import game %q: %w", g.Name, err)
		}
		report.Games++
		report.Aliases += len(g.Aliases)

		for _, s := range g.Screenshots {
			active := true
			if s.Active != nil {
				active = *s.Active
			}
			if _, err := repo.UpsertScreenshot(ctx, models.Screenshot{
				GameID:    gameID,
				ImagePath: s.Path,
				Quality:   s.Quality,
				IsActive:  active,
			}); err != nil {
				return report, fmt.Errorf("failed to import screenshot %q: %w", s.Path, err)
			}
			report.Screenshots++
		}
	}

	log.Info("catalog loaded: games=%d, aliases=%d, screenshots=%d", report.Games, report.Aliases, report.Screenshots)
	return report, nil
}
