// Package content loads the static practice curriculum: islands, chapters,
// levels and their guided lessons.
package content

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/shawHuaZe/SingMaster/internal/domain"
)

//go:embed curriculum.yaml
var curriculumFS embed.FS

var validate = validator.New()

// Curriculum is the full static content tree.
type Curriculum struct {
	IslandList []domain.Island  `yaml:"islands" validate:"min=1,dive"`
	Chapters   []domain.Chapter `yaml:"chapters" validate:"min=1,dive"`
}

var (
	defaultOnce sync.Once
	defaultCur  *Curriculum
	defaultErr  error
)

// Default returns the embedded curriculum. It panics if the embedded file
// is invalid, which can only happen with a broken build.
func Default() *Curriculum {
	defaultOnce.Do(func() {
		data, err := curriculumFS.ReadFile("curriculum.yaml")
		if err != nil {
			defaultErr = err
			return
		}
		defaultCur, defaultErr = Load(bytes.NewReader(data))
	})
	if defaultErr != nil {
		panic(fmt.Sprintf("content: embedded curriculum: %v", defaultErr))
	}
	return defaultCur
}

// Load parses and validates a curriculum document.
func Load(r io.Reader) (*Curriculum, error) {
	var c Curriculum
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("decode curriculum: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadFile reads a curriculum from disk.
func LoadFile(path string) (*Curriculum, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open curriculum: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Validate checks field constraints and cross references: chapter and
// level ids are unique and every chapter points at a known island.
func (c *Curriculum) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: curriculum: %v", domain.ErrInvalidArgument, err)
	}

	islands := make(map[int]bool, len(c.IslandList))
	for _, is := range c.IslandList {
		if islands[is.ID] {
			return fmt.Errorf("%w: duplicate island %d", domain.ErrInvalidArgument, is.ID)
		}
		islands[is.ID] = true
	}

	chapters := make(map[string]bool, len(c.Chapters))
	levels := make(map[string]bool)
	for _, ch := range c.Chapters {
		if chapters[ch.ID] {
			return fmt.Errorf("%w: duplicate chapter %q", domain.ErrInvalidArgument, ch.ID)
		}
		chapters[ch.ID] = true
		if ch.IslandID != 0 && !islands[ch.IslandID] {
			return fmt.Errorf("%w: chapter %q references unknown island %d", domain.ErrInvalidArgument, ch.ID, ch.IslandID)
		}
		for _, lv := range ch.Levels {
			if levels[lv.ID] {
				return fmt.Errorf("%w: duplicate level %q", domain.ErrInvalidArgument, lv.ID)
			}
			levels[lv.ID] = true
		}
	}
	return nil
}

// ─── Queries ────────────────────────────────────────────────────────────────

// Islands returns the islands with their chapter counts filled in.
func (c *Curriculum) Islands() []domain.Island {
	out := make([]domain.Island, len(c.IslandList))
	copy(out, c.IslandList)
	for i := range out {
		out[i].ChapterCount = 0
		for _, ch := range c.Chapters {
			if ch.IslandID == out[i].ID {
				out[i].ChapterCount++
			}
		}
	}
	return out
}

// ChaptersByIsland returns deep copies of the chapters on one island.
func (c *Curriculum) ChaptersByIsland(islandID int) []domain.Chapter {
	var picked []domain.Chapter
	for _, ch := range c.Chapters {
		if ch.IslandID == islandID {
			picked = append(picked, ch)
		}
	}
	return domain.CloneChapters(picked)
}

// AllChapters returns a deep copy of every chapter in order.
func (c *Curriculum) AllChapters() []domain.Chapter {
	return domain.CloneChapters(c.Chapters)
}

// Level looks up a level by id.
func (c *Curriculum) Level(id string) (domain.Level, string, error) {
	for _, ch := range c.Chapters {
		for _, lv := range ch.Levels {
			if lv.ID == id {
				return lv, ch.ID, nil
			}
		}
	}
	return domain.Level{}, "", &domain.NotFoundError{Kind: "level", ID: id}
}

// LevelCount returns the number of levels across all chapters.
func (c *Curriculum) LevelCount() int {
	n := 0
	for _, ch := range c.Chapters {
		n += len(ch.Levels)
	}
	return n
}
