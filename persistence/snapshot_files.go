package persistence

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/wfunc/monopoly/models"
)

const snapshotExt = ".dump.zst"

// SnapshotFiles stores one zstd compressed dump per game under a directory.
// Saving a game again replaces its file.
type SnapshotFiles struct {
	dir string
}

func NewSnapshotFiles(dir string) (*SnapshotFiles, error) {
	if dir == "" {
		return nil, fmt.Errorf("empty snapshot dir")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &SnapshotFiles{dir: dir}, nil
}

func (s *SnapshotFiles) path(gameID string) string {
	return filepath.Join(s.dir, gameID+snapshotExt)
}

func (s *SnapshotFiles) SaveSnapshot(snap *models.Snapshot) error {
	if snap.GameID == "" || strings.ContainsAny(snap.GameID, `/\`) {
		return fmt.Errorf("bad snapshot id %q", snap.GameID)
	}
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	enc, err := zstd.NewWriter(tmp, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		tmp.Close()
		return err
	}
	if _, err := io.WriteString(enc, snap.Dump); err != nil {
		enc.Close()
		tmp.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path(snap.GameID))
}

func (s *SnapshotFiles) LoadSnapshot(gameID string) (*models.Snapshot, error) {
	if isLatest(gameID) {
		id, err := s.newest()
		if err != nil {
			return nil, err
		}
		gameID = id
	}
	path := s.path(gameID)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	data, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &models.Snapshot{GameID: gameID, Dump: string(data), CreatedAt: info.ModTime()}, nil
}

// newest picks the most recently written snapshot.
func (s *SnapshotFiles) newest() (string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return "", err
	}
	var (
		best string
		when int64
	)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, snapshotExt) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if t := info.ModTime().UnixNano(); best == "" || t > when {
			best, when = strings.TrimSuffix(name, snapshotExt), t
		}
	}
	if best == "" {
		return "", ErrRecordNotFound
	}
	return best, nil
}
