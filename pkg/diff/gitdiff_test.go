package diff

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	formatdiff "github.com/go-git/go-git/v5/plumbing/format/diff"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/sirupsen/logrus"
)

func TestNewGitClient(t *testing.T) {
	t.Run("should fail on a plain directory", func(t *testing.T) {
		path, clean := temporalDir(t)
		defer clean()

		_, err := NewGitClient(path, nil)
		if err == nil {
			t.Error("should fail")
		}
	})

	t.Run("should open a repository", func(t *testing.T) {
		path, _, clean := temporalRepository(t)
		defer clean()

		client, err := NewGitClient(path, logrus.New())
		if err != nil {
			t.Errorf("new git client: %s", err)
		}
		if client == nil {
			t.Error("should get git client")
		}
	})
}

func TestDiffChangesFromCommitted(t *testing.T) {
	t.Run("unknown compare branch fails", func(t *testing.T) {
		path, repo, clean := temporalRepository(t)
		defer clean()

		g := &gitClient{repositoryPath: path, repository: repo, logger: logrus.New()}
		_, err := g.DiffChangesFromCommitted("no-such-branch")
		if err == nil {
			t.Error("should return error")
		}
	})

	t.Run("modified and added files between branches", func(t *testing.T) {
		path, repo, clean := temporalRepository(t)
		defer clean()

		worktree, err := repo.Worktree()
		checkError(err)
		err = worktree.Checkout(&gogit.CheckoutOptions{
			Branch: plumbing.NewBranchReferenceName("feature"),
			Create: true,
		})
		checkError(err)

		// Append two lines to the tracked file and add a new one.
		err = os.WriteFile(filepath.Join(path, "example.txt"), []byte("one\ntwo\nthree\nfour\nfive\n"), 0644)
		checkError(err)
		err = os.WriteFile(filepath.Join(path, "added.txt"), []byte("first\nsecond\n"), 0644)
		checkError(err)
		_, err = worktree.Add("example.txt")
		checkError(err)
		_, err = worktree.Add("added.txt")
		checkError(err)
		commit(t, worktree, "change files")

		g := &gitClient{repositoryPath: path, repository: repo, logger: logrus.New()}
		changes, err := g.DiffChangesFromCommitted("master")
		if err != nil {
			t.Fatalf("diff changes: %s", err)
		}
		if len(changes) != 2 {
			t.Fatalf("should get 2 changes, but get %d", len(changes))
		}

		byPath := map[string]*ChangedFile{}
		for _, c := range changes {
			byPath[c.Path] = c
		}

		added, ok := byPath["added.txt"]
		if !ok {
			t.Fatal("should contain added.txt")
		}
		assertLines(t, added.ChangedLines(), []int{1, 2})

		modified, ok := byPath["example.txt"]
		if !ok {
			t.Fatal("should contain example.txt")
		}
		assertLines(t, modified.ChangedLines(), []int{4, 5})
	})
}

func TestChangedLinesFromChunks(t *testing.T) {
	equalChunk := &mockChunk{content: "line1\nline2\n", op: formatdiff.Equal}
	addChunk := &mockChunk{content: "line3\nline4", op: formatdiff.Add}
	deleteChunk := &mockChunk{content: "line5\n", op: formatdiff.Delete}

	t.Run("add after equal", func(t *testing.T) {
		got := changedLinesFromChunks([]formatdiff.Chunk{equalChunk, addChunk})
		assertLines(t, got, []int{3, 4})
	})

	t.Run("delete does not advance the cursor", func(t *testing.T) {
		got := changedLinesFromChunks([]formatdiff.Chunk{equalChunk, deleteChunk, addChunk})
		assertLines(t, got, []int{3, 4})
	})

	t.Run("no chunks", func(t *testing.T) {
		if got := changedLinesFromChunks(nil); len(got) != 0 {
			t.Errorf("should yield no lines, but get %v", got)
		}
	})
}

func TestBuildChangeFromFilePatch(t *testing.T) {
	g := &gitClient{logger: logrus.New()}

	t.Run("deleted file yields nil", func(t *testing.T) {
		change := g.buildChangeFromFilePatch(&mockFilePatch{
			files: func() (formatdiff.File, formatdiff.File) {
				return &mockFile{path: "gone.go"}, nil
			},
		})
		if change != nil {
			t.Errorf("should be nil, but get %+v", change)
		}
	})

	t.Run("pure rename keeps previous path and no lines", func(t *testing.T) {
		change := g.buildChangeFromFilePatch(&mockFilePatch{
			files: func() (formatdiff.File, formatdiff.File) {
				return &mockFile{path: "old.go"}, &mockFile{path: "new.go"}
			},
		})
		if change == nil {
			t.Fatal("should not be nil")
		}
		if change.Path != "new.go" || change.PreviousPath != "old.go" {
			t.Errorf("unexpected paths: %+v", change)
		}
		if !change.IsRename() {
			t.Error("should be a pure rename")
		}
	})

	t.Run("binary file yields no lines", func(t *testing.T) {
		change := g.buildChangeFromFilePatch(&mockFilePatch{
			binary: true,
			files: func() (formatdiff.File, formatdiff.File) {
				return &mockFile{path: "img.png"}, &mockFile{path: "img.png"}
			},
		})
		if change == nil {
			t.Fatal("should not be nil")
		}
		if len(change.ChangedLines()) != 0 {
			t.Errorf("binary change should yield no lines, but get %v", change.ChangedLines())
		}
	})

	t.Run("modified file records added lines", func(t *testing.T) {
		change := g.buildChangeFromFilePatch(&mockFilePatch{
			files: func() (formatdiff.File, formatdiff.File) {
				return &mockFile{path: "foo.go"}, &mockFile{path: "foo.go"}
			},
			chunks: []formatdiff.Chunk{
				&mockChunk{content: "one\n", op: formatdiff.Equal},
				&mockChunk{content: "two\n", op: formatdiff.Add},
			},
		})
		if change == nil {
			t.Fatal("should not be nil")
		}
		assertLines(t, change.ChangedLines(), []int{2})
	})
}

func assertLines(t *testing.T, got, want []int) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("should get lines %v, but get %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("should get lines %v, but get %v", want, got)
		}
	}
}

// temporalDir creates a temp directory for testing.
func temporalDir(t *testing.T) (string, func()) {
	t.Helper()
	tmpDir, err := os.MkdirTemp("", "patchcov")
	checkError(err)

	return tmpDir, func() {
		os.RemoveAll(tmpDir)
	}
}

// temporalRepository creates a temp git repository with one committed file.
func temporalRepository(t *testing.T) (string, *gogit.Repository, func()) {
	t.Helper()
	tmpDir, err := os.MkdirTemp("", "patchcov")
	checkError(err)

	repo, err := gogit.PlainInit(tmpDir, false)
	checkError(err)

	worktree, err := repo.Worktree()
	checkError(err)

	filename := filepath.Join(tmpDir, "example.txt")
	err = os.WriteFile(filename, []byte("one\ntwo\nthree\n"), 0644)
	checkError(err)

	_, err = worktree.Add("example.txt")
	checkError(err)
	commit(t, worktree, "init commit")

	return tmpDir, repo, func() {
		os.RemoveAll(tmpDir)
	}
}

func commit(t *testing.T, worktree *gogit.Worktree, message string) {
	t.Helper()
	_, err := worktree.Commit(message, &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  "foo",
			Email: "foo@bar.org",
			When:  time.Now(),
		},
	})
	checkError(err)
}

// checkError panics at test environment preparation steps.
func checkError(err error) {
	if err != nil {
		panic(err)
	}
}

// mocks for the go-git plumbing/format/diff interfaces

type mockFilePatch struct {
	binary bool
	files  func() (from, to formatdiff.File)
	chunks []formatdiff.Chunk
}

func (p *mockFilePatch) IsBinary() bool                    { return p.binary }
func (p *mockFilePatch) Files() (from, to formatdiff.File) { return p.files() }
func (p *mockFilePatch) Chunks() []formatdiff.Chunk        { return p.chunks }

type mockFile struct {
	path string
}

func (f *mockFile) Hash() plumbing.Hash     { return plumbing.Hash{} }
func (f *mockFile) Mode() filemode.FileMode { return filemode.Regular }
func (f *mockFile) Path() string            { return f.path }

type mockChunk struct {
	content string
	op      formatdiff.Operation
}

func (c *mockChunk) Content() string            { return c.content }
func (c *mockChunk) Type() formatdiff.Operation { return c.op }
