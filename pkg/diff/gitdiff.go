package diff

import (
	"fmt"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	formatdiff "github.com/go-git/go-git/v5/plumbing/format/diff"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/sirupsen/logrus"
)

// GitClient computes changesets from a local git repository.
type GitClient interface {
	// DiffChangesFromCommitted returns the files changed between the
	// compared branch and the HEAD commit.
	DiffChangesFromCommitted(compareBranch string) ([]*ChangedFile, error)
}

var _ GitClient = (*gitClient)(nil)

type gitClient struct {
	repositoryPath string
	repository     *gogit.Repository
	logger         logrus.FieldLogger
}

// NewGitClient opens the git repository at repositoryPath.
func NewGitClient(repositoryPath string, logger logrus.FieldLogger) (GitClient, error) {
	repository, err := gogit.PlainOpen(repositoryPath)
	if err != nil {
		return nil, fmt.Errorf("open repository %s: %w", repositoryPath, err)
	}

	if logger == nil {
		logger = logrus.New()
	}

	return &gitClient{
		repositoryPath: repositoryPath,
		repository:     repository,
		logger:         logger.WithField("source", "gitdiff"),
	}, nil
}

func (g *gitClient) DiffChangesFromCommitted(compareBranch string) ([]*ChangedFile, error) {
	patch, err := g.diffCommitted(compareBranch)
	if err != nil {
		return nil, err
	}

	var changes []*ChangedFile
	for _, filePatch := range patch.FilePatches() {
		change := g.buildChangeFromFilePatch(filePatch)
		if change == nil {
			continue
		}
		changes = append(changes, change)
	}
	return changes, nil
}

// diffCommitted diffs the compared branch tree against the HEAD tree.
func (g *gitClient) diffCommitted(compareBranch string) (*object.Patch, error) {
	baseHash, err := g.repository.ResolveRevision(plumbing.Revision(compareBranch))
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", compareBranch, err)
	}
	baseCommit, err := g.repository.CommitObject(*baseHash)
	if err != nil {
		return nil, fmt.Errorf("commit %s: %w", baseHash, err)
	}
	baseTree, err := baseCommit.Tree()
	if err != nil {
		return nil, fmt.Errorf("tree %s: %w", baseHash, err)
	}

	headRef, err := g.repository.Head()
	if err != nil {
		return nil, fmt.Errorf("resolve HEAD: %w", err)
	}
	headCommit, err := g.repository.CommitObject(headRef.Hash())
	if err != nil {
		return nil, fmt.Errorf("commit %s: %w", headRef.Hash(), err)
	}
	headTree, err := headCommit.Tree()
	if err != nil {
		return nil, fmt.Errorf("tree %s: %w", headRef.Hash(), err)
	}

	patch, err := baseTree.Patch(headTree)
	if err != nil {
		return nil, fmt.Errorf("diff %s..%s: %w", compareBranch, headRef.Hash(), err)
	}
	return patch, nil
}

// buildChangeFromFilePatch converts a single go-git file patch into a
// ChangedFile, or nil when the file does not exist in the new revision.
func (g *gitClient) buildChangeFromFilePatch(filePatch formatdiff.FilePatch) *ChangedFile {
	from, to := filePatch.Files()

	// Deleted files have no lines in the new revision.
	if to == nil {
		return nil
	}

	change := &ChangedFile{Path: to.Path()}
	if from != nil && from.Path() != to.Path() {
		change.PreviousPath = from.Path()
	}

	if filePatch.IsBinary() {
		g.logger.Debugf("skip binary file %s", to.Path())
		return change
	}

	change.Lines = changedLinesFromChunks(filePatch.Chunks())

	// A rename detected by go-git with no textual chunks stays a pure
	// rename; distinguish it from a modified file with zero additions.
	if change.PreviousPath != "" && len(change.Lines) == 0 && len(filePatch.Chunks()) == 0 {
		return change
	}
	if change.Lines == nil {
		change.Lines = []int{}
	}
	return change
}

// changedLinesFromChunks walks the ordered chunks of a file patch carrying a
// new-file line cursor: equal chunks advance it, added chunks record and
// advance it, deleted chunks leave it alone.
func changedLinesFromChunks(chunks []formatdiff.Chunk) []int {
	var changed []int

	lineNo := 1
	for _, chunk := range chunks {
		count := countLines(chunk.Content())
		switch chunk.Type() {
		case formatdiff.Equal:
			lineNo += count
		case formatdiff.Add:
			for i := 0; i < count; i++ {
				changed = append(changed, lineNo)
				lineNo++
			}
		case formatdiff.Delete:
			// Deletions do not exist in the new file.
		}
	}
	return changed
}

// countLines counts content lines, ignoring a trailing newline so that
// "a\nb\n" and "a\nb" both count two lines.
func countLines(content string) int {
	if content == "" {
		return 0
	}
	content = strings.TrimSuffix(content, "\n")
	return strings.Count(content, "\n") + 1
}
