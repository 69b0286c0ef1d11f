package content_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shawHuaZe/SingMaster/internal/content"
	"github.com/shawHuaZe/SingMaster/internal/domain"
)

// ═══════════════════════════════════════════════════════════════════════════
// Embedded Curriculum
// ═══════════════════════════════════════════════════════════════════════════

func TestDefault_Shape(t *testing.T) {
	c := content.Default()

	if len(c.IslandList) != 4 {
		t.Errorf("islands = %d, want 4", len(c.IslandList))
	}
	if len(c.Chapters) != 3 {
		t.Fatalf("chapters = %d, want 3", len(c.Chapters))
	}
	if c.LevelCount() != 15 {
		t.Errorf("LevelCount() = %d, want 15", c.LevelCount())
	}
	if c.Chapters[0].Levels[0].ID != "level_1_1" {
		t.Errorf("first level = %q", c.Chapters[0].Levels[0].ID)
	}
}

func TestDefault_TargetsAscending(t *testing.T) {
	for _, ch := range content.Default().Chapters {
		for _, lv := range ch.Levels {
			tg := lv.Target
			if !(tg.OneStar <= tg.TwoStar && tg.TwoStar <= tg.ThreeStar) {
				t.Errorf("%s target not ascending: %+v", lv.ID, tg)
			}
		}
	}
}

func TestDefault_GuidedLessons(t *testing.T) {
	c := content.Default()

	lv, chapterID, err := c.Level("level_1_1")
	if err != nil {
		t.Fatalf("Level() error: %v", err)
	}
	if chapterID != "chapter_1" {
		t.Errorf("chapter = %q", chapterID)
	}
	if len(lv.Lesson) != 5 {
		t.Fatalf("lesson steps = %d, want 5", len(lv.Lesson))
	}
	if lv.Lesson[0].Type != domain.StepDemonstrate || lv.Lesson[4].Type != domain.StepComplete {
		t.Errorf("step types = %s..%s", lv.Lesson[0].Type, lv.Lesson[4].Type)
	}
	if lv.Lesson[0].AudioRef != "demo_breathing_1" || lv.Lesson[0].DurationMS != 5000 {
		t.Errorf("first step = %+v", lv.Lesson[0])
	}
	if len(lv.Lesson[2].Suggestions) != 2 {
		t.Errorf("feedback suggestions = %v", lv.Lesson[2].Suggestions)
	}

	lv, _, _ = c.Level("level_2_1")
	if len(lv.Lesson) != 4 || lv.Lesson[1].TargetNote != "C4" {
		t.Errorf("level_2_1 lesson = %+v", lv.Lesson)
	}
}

func TestDefault_MutableFieldsZero(t *testing.T) {
	for _, ch := range content.Default().Chapters {
		for _, lv := range ch.Levels {
			if lv.IsUnlocked || lv.IsCompleted || lv.BestScore != nil || lv.Stars != 0 {
				t.Errorf("%s carries runtime state: %+v", lv.ID, lv)
			}
		}
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Queries
// ═══════════════════════════════════════════════════════════════════════════

func TestIslands_ChapterCount(t *testing.T) {
	islands := content.Default().Islands()
	if islands[0].ChapterCount != 3 {
		t.Errorf("island 1 chapters = %d, want 3", islands[0].ChapterCount)
	}
	if islands[1].ChapterCount != 0 {
		t.Errorf("island 2 chapters = %d, want 0", islands[1].ChapterCount)
	}
}

func TestChaptersByIsland_DeepCopy(t *testing.T) {
	c := content.Default()
	chapters := c.ChaptersByIsland(1)
	if len(chapters) != 3 {
		t.Fatalf("chapters = %d", len(chapters))
	}
	chapters[0].Levels[0].Title = "mutated"
	if c.Chapters[0].Levels[0].Title == "mutated" {
		t.Error("ChaptersByIsland leaked a reference to the source content")
	}
	if got := c.ChaptersByIsland(4); len(got) != 0 {
		t.Errorf("island 4 chapters = %d", len(got))
	}
}

func TestLevel_NotFound(t *testing.T) {
	_, _, err := content.Default().Level("nope")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Loading and Validation
// ═══════════════════════════════════════════════════════════════════════════

const minimal = `
islands:
  - id: 1
    name: Test
chapters:
  - id: c1
    title: One
    island_id: 1
    levels:
      - id: l1
        number: 1
        target: { one_star: 50, two_star: 70, three_star: 90 }
`

func TestLoad_Minimal(t *testing.T) {
	c, err := content.Load(strings.NewReader(minimal))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if c.LevelCount() != 1 {
		t.Errorf("LevelCount() = %d", c.LevelCount())
	}
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"no chapters", "islands:\n  - id: 1\n    name: x\n"},
		{"unknown field", strings.Replace(minimal, "title: One", "titel: One", 1)},
		{"descending target", strings.Replace(minimal, "two_star: 70", "two_star: 95", 1)},
		{"score above 100", strings.Replace(minimal, "three_star: 90", "three_star: 120", 1)},
		{"unknown island", strings.Replace(minimal, "island_id: 1", "island_id: 7", 1)},
		{"bad difficulty", strings.Replace(minimal, "number: 1", "number: 1\n        difficulty: brutal", 1)},
		{"duplicate level", minimal + `      - id: l1
        number: 2
        target: { one_star: 50, two_star: 70, three_star: 90 }
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := content.Load(strings.NewReader(tt.doc))
			if err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoad_ValidationIsInvalidArgument(t *testing.T) {
	_, err := content.Load(strings.NewReader(strings.Replace(minimal, "island_id: 1", "island_id: 7", 1)))
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "curriculum.yaml")
	if err := os.WriteFile(path, []byte(minimal), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := content.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if c.Chapters[0].ID != "c1" {
		t.Errorf("chapter = %q", c.Chapters[0].ID)
	}

	if _, err := content.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
