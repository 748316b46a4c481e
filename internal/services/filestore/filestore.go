package filestore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"

	"github.com/lexhold/lexhold/internal/interfaces"
)

// Store moves ingested files into a per-matter processed layout under the
// configured root directory
type Store struct {
	root   string
	logger arbor.ILogger
}

func NewStore(root string, logger arbor.ILogger) *Store {
	return &Store{root: root, logger: logger}
}

var _ interfaces.FileStore = (*Store)(nil)

// MoveToProcessed relocates sourcePath to <root>/<matterID>/<documentID>_<filename>
// and returns the destination path. A rename is attempted first; cross-device
// moves fall back to copy and remove.
func (s *Store) MoveToProcessed(sourcePath, matterID, documentID, filename string) (string, error) {
	if filename == "" {
		filename = filepath.Base(sourcePath)
	}

	destDir := filepath.Join(s.root, matterID)
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create matter directory: %w", err)
	}

	destPath := filepath.Join(destDir, fmt.Sprintf("%s_%s", documentID, filepath.Base(filename)))

	if err := os.Rename(sourcePath, destPath); err != nil {
		if copyErr := copyFile(sourcePath, destPath); copyErr != nil {
			return "", fmt.Errorf("failed to move file to processed store: %w", copyErr)
		}
		if rmErr := os.Remove(sourcePath); rmErr != nil {
			s.logger.Warn().Err(rmErr).Str("path", sourcePath).Msg("Failed to remove source file after copy")
		}
	}

	s.logger.Debug().Str("from", sourcePath).Str("to", destPath).Msg("File moved to processed store")
	return destPath, nil
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
	return out.Sync()
}
