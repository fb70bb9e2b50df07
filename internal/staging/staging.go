// Package staging implements the adoption handoff described in the
// filesystem layout: a copy from a worker-written staging path into its
// final library destination, followed by removal of the staging copy.
// Any failure here is a fatal invariant violation, since a stuck or
// half-moved artifact corrupts the library's path-uniqueness guarantee.
package staging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/transcast-io/transcast/internal/core"
)

// Adopt copies the finished artifact at stagingPath into targetPath and
// then deletes the staging copy. It creates targetPath's parent
// directory if needed, matching the library root layout. Any failure
// here — copy or remove — is wrapped as KindFatalInvariant: the spec
// requires the process to abort rather than leave the library in a
// state where an Encode's artifact exists nowhere reliable.
func Adopt(stagingPath, targetPath string) error {
	if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
		return core.Wrap(core.KindFatalInvariant, "staging.Adopt", fmt.Errorf("creating target directory: %w", err))
	}
	if err := copyFile(stagingPath, targetPath); err != nil {
		return core.Wrap(core.KindFatalInvariant, "staging.Adopt", fmt.Errorf("copying artifact: %w", err))
	}
	if err := os.Remove(stagingPath); err != nil {
		return core.Wrap(core.KindFatalInvariant, "staging.Adopt", fmt.Errorf("removing staging copy: %w", err))
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
