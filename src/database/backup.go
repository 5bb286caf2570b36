package database

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/username/weeklygiving/src/logger"
	"github.com/username/weeklygiving/src/models"
	"github.com/username/weeklygiving/src/utils"
)

// CopyTo writes a consistent copy of the whole store to path, replacing any file there.
func (s *RecordStore) CopyTo(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return &models.StorageError{Op: "copy database", Err: err}
	}
	if _, err := s.db.Exec("VACUUM INTO ?", path); err != nil {
		return &models.StorageError{Op: "copy database", Err: fmt.Errorf("%s: %w", path, err)}
	}
	return nil
}

// Backup writes a timestamped copy of the store next to it and prunes older copies so
// that at most keep remain, oldest removed first.
func (s *RecordStore) Backup(keep int, now time.Time) (string, error) {
	if s.path == "" {
		return "", &models.StorageError{Op: "backup", Err: fmt.Errorf("store has no file path")}
	}
	if keep < 1 {
		keep = 1
	}
	if err := pruneBackups(s.path, keep-1); err != nil {
		logger.L.Warn("Failed to prune old backups", "error", err)
	}
	target := backupPath(s.path, now)
	if err := s.CopyTo(target); err != nil {
		return "", err
	}
	logger.L.Info("Backup written", "path", target)
	return target, nil
}

// backupPath names a backup after now, adding a counter when a backup with that
// timestamp already exists.
func backupPath(dbPath string, now time.Time) string {
	base := fmt.Sprintf("%s.backup.%s", dbPath, utils.BackupTimestamp(now))
	target := base
	for i := 1; ; i++ {
		if _, err := os.Stat(target); os.IsNotExist(err) {
			return target
		}
		target = fmt.Sprintf("%s-%d", base, i)
	}
}

// ListBackups returns the backup files of dbPath, oldest first.
func ListBackups(dbPath string) ([]string, error) {
	matches, err := filepath.Glob(dbPath + ".backup.*")
	if err != nil {
		return nil, err
	}
	type backupFile struct {
		path    string
		modTime time.Time
	}
	files := make([]backupFile, 0, len(matches))
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		files = append(files, backupFile{path: m, modTime: info.ModTime()})
	}
	sort.Slice(files, func(i, j int) bool {
		if files[i].modTime.Equal(files[j].modTime) {
			return files[i].path < files[j].path
		}
		return files[i].modTime.Before(files[j].modTime)
	})
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.path
	}
	return out, nil
}

func pruneBackups(dbPath string, keep int) error {
	backups, err := ListBackups(dbPath)
	if err != nil {
		return err
	}
	for len(backups) > keep {
		if err := os.Remove(backups[0]); err != nil {
			return err
		}
		logger.L.Debug("Removed old backup", "path", backups[0])
		backups = backups[1:]
	}
	return nil
}
