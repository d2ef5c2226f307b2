// Package workspace manages the lifecycle of the build directory.
//
// The build directory is the scratch area where per-function build artifacts
// are assembled. Setup resolves the configured path to an absolute one,
// creates it (with any missing parents) when absent, and optionally clears a
// non-empty directory when a clean build was requested.
package workspace

import (
	"os"

	"github.com/quarry-build/quarry/internal/errors"
	"github.com/quarry-build/quarry/internal/pathutil"
)

// BuildDirPermissions is the mode applied to created build directories.
// Build directories need not be world writable.
const BuildDirPermissions os.FileMode = 0o755

// SetupBuildDir prepares the build directory and returns its absolute path.
//
// If the directory does not exist it is created along with any missing
// parents. If it exists, is non-empty, and clean is true, the directory and
// its entire contents are removed and the directory is recreated empty.
// Otherwise pre-existing contents are left untouched.
//
// Creation and removal failures are fatal; a build cannot proceed without a
// valid workspace, so no recovery is attempted.
func SetupBuildDir(buildDir string, clean bool) (string, error) {
	buildDir, err := pathutil.Resolve(buildDir)
	if err != nil {
		return "", errors.NewRuntimeError("failed to resolve build directory", err)
	}

	if _, err := os.Stat(buildDir); os.IsNotExist(err) {
		if err := os.MkdirAll(buildDir, BuildDirPermissions); err != nil {
			return "", errors.NewRuntimeError("failed to create build directory "+buildDir, err)
		}
	} else if err != nil {
		return "", errors.NewRuntimeError("failed to stat build directory "+buildDir, err)
	}

	empty, err := isEmptyDir(buildDir)
	if err != nil {
		return "", errors.NewRuntimeError("failed to read build directory "+buildDir, err)
	}

	if !empty && clean {
		// Clear everything. Removal takes the directory itself with it,
		// so recreate it afterwards.
		if err := os.RemoveAll(buildDir); err != nil {
			return "", errors.NewRuntimeError("failed to clean build directory "+buildDir, err)
		}
		if err := os.Mkdir(buildDir, BuildDirPermissions); err != nil {
			return "", errors.NewRuntimeError("failed to recreate build directory "+buildDir, err)
		}
	}

	return buildDir, nil
}

func isEmptyDir(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, err
	}
	return len(entries) == 0, nil
}
