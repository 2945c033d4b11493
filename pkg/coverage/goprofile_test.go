package coverage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/tools/cover"
)

func TestFromProfiles(t *testing.T) {
	profiles := []*cover.Profile{
		{
			FileName: "github.com/patchcov/patchcov/pkg/foo/foo.go",
			Blocks: []cover.ProfileBlock{
				{StartLine: 1, EndLine: 3, NumStmt: 3, Count: 1},
				{StartLine: 5, EndLine: 6, NumStmt: 2, Count: 0},
			},
		},
	}

	data := FromProfiles(profiles, "github.com/patchcov/patchcov")

	counts, ok := data.Lookup("pkg/foo/foo.go")
	if !ok {
		t.Fatal("should map profile file name to a repository-relative path")
	}
	assert.Equal(t, 6, len(counts))
	assert.True(t, counts.Executed(1))
	assert.True(t, counts.Executed(3))
	assert.False(t, counts.Executable(4))
	assert.True(t, counts.Executable(5))
	assert.False(t, counts.Executed(5))
}

func TestFromProfilesOverlappingBlocks(t *testing.T) {
	profiles := []*cover.Profile{
		{
			FileName: "m/a.go",
			Blocks: []cover.ProfileBlock{
				{StartLine: 1, EndLine: 2, NumStmt: 2, Count: 1},
				{StartLine: 2, EndLine: 3, NumStmt: 2, Count: 2},
			},
		},
	}

	data := FromProfiles(profiles, "m")
	counts := data["a.go"]
	assert.Equal(t, 1, *counts[0])
	assert.Equal(t, 3, *counts[1])
	assert.Equal(t, 2, *counts[2])
}

func TestModulePath(t *testing.T) {
	t.Run("parses module path", func(t *testing.T) {
		dir := t.TempDir()
		err := os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example.com/foo\n\ngo 1.22\n"), 0644)
		if err != nil {
			t.Fatalf("write go.mod: %s", err)
		}

		path, err := ModulePath(dir)
		if err != nil {
			t.Fatalf("module path: %s", err)
		}
		assert.Equal(t, "example.com/foo", path)
	})

	t.Run("missing go.mod", func(t *testing.T) {
		_, err := ModulePath(t.TempDir())
		if err == nil {
			t.Error("should return error")
		}
	})

	t.Run("go.mod without module directive", func(t *testing.T) {
		dir := t.TempDir()
		err := os.WriteFile(filepath.Join(dir, "go.mod"), []byte("go 1.22\n"), 0644)
		if err != nil {
			t.Fatalf("write go.mod: %s", err)
		}

		_, err = ModulePath(dir)
		assert.ErrorIs(t, err, ErrModuleNotFound)
	})
}
