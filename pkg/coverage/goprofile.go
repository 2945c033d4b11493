package coverage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
	"golang.org/x/tools/cover"
)

var ErrModuleNotFound = errors.New("cannot find module path")

// LoadGoProfile reads a coverage profile produced by `go test -coverprofile`
// and converts it into per-line execution counts. Profile file names carry
// the module path prefix; moduleDir locates the go.mod used to strip it so
// the resulting keys are repository-relative, matching diff paths.
func LoadGoProfile(filename string, moduleDir string) (Data, error) {
	profiles, err := cover.ParseProfiles(filename)
	if err != nil {
		return nil, fmt.Errorf("parse coverage profile: %w", err)
	}

	modulePath, err := ModulePath(moduleDir)
	if err != nil {
		return nil, fmt.Errorf("parse go module path: %w", err)
	}

	return FromProfiles(profiles, modulePath), nil
}

// FromProfiles converts parsed cover profiles into per-line counts. Lines
// inside a profile block take the block's count (summed across blocks that
// overlap, as go tooling does); lines no block claims stay non-executable.
func FromProfiles(profiles []*cover.Profile, modulePath string) Data {
	data := make(Data, len(profiles))

	for _, profile := range profiles {
		path := strings.TrimPrefix(profile.FileName, modulePath+"/")

		lineCount := 0
		for _, block := range profile.Blocks {
			if block.EndLine > lineCount {
				lineCount = block.EndLine
			}
		}

		counts := make(LineCounts, lineCount)
		for _, block := range profile.Blocks {
			for line := block.StartLine; line <= block.EndLine; line++ {
				if counts[line-1] == nil {
					count := 0
					counts[line-1] = &count
				}
				*counts[line-1] += block.Count
			}
		}
		data[path] = counts
	}
	return data
}

// ModulePath parses the module path out of the go.mod in goModDir.
func ModulePath(goModDir string) (string, error) {
	goModFilename := filepath.Join(goModDir, "go.mod")
	contents, err := os.ReadFile(goModFilename)
	if err != nil {
		return "", err
	}

	result := modfile.ModulePath(contents)
	if result == "" {
		return "", fmt.Errorf("%w: %s", ErrModuleNotFound, goModFilename)
	}
	return result, nil
}
