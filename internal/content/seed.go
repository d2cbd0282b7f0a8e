package content

import (
	"blogsite/internal/storage"
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
)

const maxSourceSize = 10 * 1024 * 1024

type seedMeta struct {
	Title     string `yaml:"title"`
	Category  string `yaml:"category"`
	Date      string `yaml:"date"`
	Published *bool  `yaml:"published"`
	Image     string `yaml:"image"`
}

// Importer seeds an empty store from markdown files with frontmatter
type Importer struct {
	store    storage.Store
	uploader *Uploader
	logger   *slog.Logger
}

func NewImporter(store storage.Store, uploader *Uploader, logger *slog.Logger) *Importer {
	return &Importer{store: store, uploader: uploader, logger: logger}
}

// ImportIfEmpty walks sourceDir and creates a post per .md file, but only when the store has no posts yet
func (im *Importer) ImportIfEmpty(ctx context.Context, sourceDir string) (int, error) {
	count, err := im.store.CountPosts(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting posts: %w", err)
	}
	if count > 0 {
		im.logger.Info("store already seeded, skipping import", "posts", count)
		return 0, nil
	}

	root, err := os.OpenRoot(sourceDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			im.logger.Info("no sources directory, nothing to import", "dir", sourceDir)
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %s: %v", ErrReadingFile, sourceDir, err)
	}
	defer root.Close()

	im.logger.Info("starting seed import", "dir", sourceDir)

	categories := make(map[string]int64)
	imported := 0

	err = fs.WalkDir(root.FS(), ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.ToLower(path.Ext(p)) != ".md" {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err := im.importFile(ctx, root, p, categories); err != nil {
			// one broken file should not stop the rest
			im.logger.Error("failed to import post", "file", p, "err", err)
			return nil
		}
		imported++
		return nil
	})
	if err != nil {
		return imported, fmt.Errorf("walking %s: %w", sourceDir, err)
	}

	im.logger.Info("seed import complete", "posts", imported, "categories", len(categories))
	return imported, nil
}

func (im *Importer) importFile(ctx context.Context, root *os.Root, name string, categories map[string]int64) error {
	file, err := root.Open(name)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrReadingFile, name, err)
	}
	defer file.Close()

	raw, err := io.ReadAll(io.LimitReader(file, maxSourceSize))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrReadingFile, name, err)
	}

	var meta seedMeta
	body, err := frontmatter.Parse(bytes.NewReader(raw), &meta)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidFrontmatter, name, err)
	}

	if meta.Title == "" {
		meta.Title = fallbackTitleScan(bytes.NewReader(body))
	}

	postDate := storage.NewDate(time.Now().UTC())
	if meta.Date != "" {
		if postDate, err = storage.ParseDate(meta.Date); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	} else if stats, err := file.Stat(); err == nil {
		postDate = storage.NewDate(stats.ModTime().UTC())
	}

	fields := storage.PostFields{
		Title:     meta.Title,
		Body:      strings.TrimSpace(string(body)),
		PostDate:  postDate,
		Published: meta.Published == nil || *meta.Published,
	}

	if meta.Category != "" {
		if fields.CategoryID, err = im.categoryID(ctx, meta.Category, categories); err != nil {
			return err
		}
	}

	if meta.Image != "" {
		if isExternalLink(meta.Image) {
			fields.FeatureImage = meta.Image
		} else {
			media, err := im.importImage(ctx, root, path.Join(path.Dir(name), meta.Image))
			if err != nil {
				return err
			}
			fields.FeatureImage = media.URL
			fields.FeatureImageKey = media.Key
		}
	}

	post, err := im.store.CreatePost(ctx, fields)
	if err != nil {
		return fmt.Errorf("creating post from %s: %w", name, err)
	}

	im.logger.Info("imported post", "file", name, "id", post.ID, "title", post.Title)
	return nil
}

func (im *Importer) categoryID(ctx context.Context, name string, cache map[string]int64) (int64, error) {
	name = strings.TrimSpace(name)
	if id, ok := cache[name]; ok {
		return id, nil
	}

	category, err := im.store.GetCategoryByName(ctx, name)
	if errors.Is(err, storage.ErrNotFound) {
		category, err = im.store.CreateCategory(ctx, name)
	}
	if err != nil {
		return 0, fmt.Errorf("category %q: %w", name, err)
	}

	cache[name] = category.ID
	return category.ID, nil
}

func (im *Importer) importImage(ctx context.Context, root *os.Root, name string) (Media, error) {
	file, err := root.Open(name)
	if err != nil {
		return Media{}, fmt.Errorf("%w: %s: %v", ErrReadingFile, name, err)
	}
	defer file.Close()

	return im.uploader.Import(ctx, file, name)
}

func fallbackTitleScan(r io.Reader) string {
	scanner := bufio.NewScanner(r)
	// if title is not within first 20 lines, it's likely not there at all
	linesScanned := 0
	for scanner.Scan() {
		linesScanned++
		if linesScanned > 20 {
			break
		}
		if title, found := strings.CutPrefix(scanner.Text(), "# "); found {
			return strings.TrimSpace(title)
		}
	}
	return "Untitled Post"
}
