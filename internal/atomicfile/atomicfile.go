// Package atomicfile replaces files through a temp file and rename, so
// readers such as the outline watcher never see a half-written file.
package atomicfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/natefinch/atomic"
)

const defaultPerm os.FileMode = 0o644

// Write renders the new contents with fill and swaps them into path. Nothing
// touches the disk when fill fails. If perm is 0 an existing file keeps its
// mode and a new one gets 0644.
func Write(path string, perm os.FileMode, fill func(w io.Writer) error) error {
	var buf bytes.Buffer
	if err := fill(&buf); err != nil {
		return err
	}

	_, statErr := os.Stat(path)
	isNew := errors.Is(statErr, os.ErrNotExist)

	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}

	// atomic.WriteFile copies the old mode but leaves new files at 0600.
	if perm == 0 && isNew {
		perm = defaultPerm
	}
	if perm != 0 {
		if err := os.Chmod(path, perm); err != nil {
			return fmt.Errorf("chmod %s: %w", path, err)
		}
	}
	return nil
}

// WriteFile is Write for contents already in memory.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	return Write(path, perm, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}
