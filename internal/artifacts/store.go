// Package artifacts persists rendered switch configuration on disk.
// Each tenant owns a directory under the switch configuration root
// with one file per artifact kind, and a backup directory holding
// timestamped snapshots that are never overwritten or pruned here.
package artifacts

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"call-router/internal/common/errors"
	"call-router/internal/common/logging"
	"call-router/internal/compiler"
	"call-router/internal/models"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644

	// backupStamp orders snapshot directories lexicographically by
	// creation time. Nanoseconds keep rapid successive deploys from
	// colliding.
	backupStamp = "20060102-150405.000000000"
)

// Store writes rendered artifacts and manages tenant backups.
type Store struct {
	configRoot string
	backupRoot string
	logger     logging.Logger
}

// NewStore creates a store rooted at the switch configuration and
// backup directories.
func NewStore(configRoot, backupRoot string, logger logging.Logger) *Store {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Store{
		configRoot: configRoot,
		backupRoot: backupRoot,
		logger:     logger,
	}
}

// TenantDir returns the directory holding a tenant's live
// configuration files.
func (s *Store) TenantDir(tenantID string) string {
	return filepath.Join(s.configRoot, tenantID)
}

// WriteFiles writes one configuration file per artifact kind into the
// tenant's directory. Each file lands via a rename from a temporary
// sibling so a crash mid-write never leaves a truncated file behind.
// Kinds absent from files are removed so stale artifacts cannot
// survive a deploy.
func (s *Store) WriteFiles(tenantID string, files map[models.ArtifactKind][]byte) error {
	if tenantID == "" {
		return errors.ValidationError("tenant id is required")
	}

	dir := s.TenantDir(tenantID)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return errors.InternalError("failed to create tenant config directory", err).
			WithContext("tenant_id", tenantID)
	}

	for kind, data := range files {
		target := filepath.Join(dir, compiler.FileName(kind))
		if err := writeAtomic(target, data); err != nil {
			return errors.InternalError("failed to write artifact file", err).
				WithContext("tenant_id", tenantID).
				WithContext("file", compiler.FileName(kind))
		}
	}

	for _, kind := range allKinds() {
		if _, ok := files[kind]; ok {
			continue
		}
		stale := filepath.Join(dir, compiler.FileName(kind))
		if err := os.Remove(stale); err != nil && !os.IsNotExist(err) {
			return errors.InternalError("failed to remove stale artifact file", err).
				WithContext("tenant_id", tenantID).
				WithContext("file", compiler.FileName(kind))
		}
	}

	s.logger.Info("Artifact files written",
		logging.String("tenant_id", tenantID),
		logging.Int("files", len(files)))
	return nil
}

// Snapshot copies the tenant's live configuration into a new
// timestamped backup directory and returns its record. A tenant with
// no configuration yet gets an empty snapshot, so the first deploy is
// still restorable to "nothing".
func (s *Store) Snapshot(tenantID string) (models.Backup, error) {
	if tenantID == "" {
		return models.Backup{}, errors.ValidationError("tenant id is required")
	}

	now := time.Now().UTC()
	dest := filepath.Join(s.backupRoot, tenantID, now.Format(backupStamp))
	if _, err := os.Stat(dest); err == nil {
		return models.Backup{}, errors.InternalError(
			fmt.Sprintf("backup directory %s already exists", dest), nil)
	}
	if err := os.MkdirAll(dest, dirPerm); err != nil {
		return models.Backup{}, errors.InternalError("failed to create backup directory", err).
			WithContext("tenant_id", tenantID)
	}

	if err := copyDir(s.TenantDir(tenantID), dest); err != nil {
		return models.Backup{}, errors.InternalError("failed to snapshot tenant config", err).
			WithContext("tenant_id", tenantID)
	}

	s.logger.Info("Backup created",
		logging.String("tenant_id", tenantID),
		logging.String("path", dest))
	return models.Backup{TenantID: tenantID, Path: dest, CreatedAt: now}, nil
}

// Restore replaces the tenant's live configuration with the contents
// of a backup directory. The backup must belong to this store's
// backup root for this tenant; arbitrary paths are rejected. The whole
// backup is read into memory before the live directory is touched, so
// an unreadable backup leaves the live configuration intact.
func (s *Store) Restore(tenantID, backupPath string) error {
	if tenantID == "" {
		return errors.ValidationError("tenant id is required")
	}
	if !s.ownsBackup(tenantID, backupPath) {
		return errors.ValidationError("backup path does not belong to tenant").
			WithContext("tenant_id", tenantID).
			WithContext("path", backupPath)
	}
	info, err := os.Stat(backupPath)
	if err != nil || !info.IsDir() {
		return errors.NotFoundError("backup " + backupPath)
	}

	files, err := readDirFiles(backupPath)
	if err != nil {
		return errors.InternalError("failed to read backup in full", err).
			WithContext("tenant_id", tenantID).
			WithContext("path", backupPath)
	}

	dir := s.TenantDir(tenantID)
	if err := os.RemoveAll(dir); err != nil {
		return errors.InternalError("failed to clear tenant config directory", err).
			WithContext("tenant_id", tenantID)
	}
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return errors.InternalError("failed to recreate tenant config directory", err).
			WithContext("tenant_id", tenantID)
	}
	for name, data := range files {
		if err := writeAtomic(filepath.Join(dir, name), data); err != nil {
			return errors.InternalError("failed to restore tenant config", err).
				WithContext("tenant_id", tenantID).
				WithContext("file", name)
		}
	}

	s.logger.Info("Backup restored",
		logging.String("tenant_id", tenantID),
		logging.String("path", backupPath))
	return nil
}

// ListBackups returns the tenant's backups, newest first.
func (s *Store) ListBackups(tenantID string) ([]models.Backup, error) {
	if tenantID == "" {
		return nil, errors.ValidationError("tenant id is required")
	}

	root := filepath.Join(s.backupRoot, tenantID)
	entries, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.InternalError("failed to list backups", err).
			WithContext("tenant_id", tenantID)
	}

	backups := make([]models.Backup, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		createdAt, err := time.Parse(backupStamp, entry.Name())
		if err != nil {
			continue
		}
		backups = append(backups, models.Backup{
			TenantID:  tenantID,
			Path:      filepath.Join(root, entry.Name()),
			CreatedAt: createdAt,
		})
	}
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	return backups, nil
}

func (s *Store) ownsBackup(tenantID, path string) bool {
	root := filepath.Join(s.backupRoot, tenantID)
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !filepath.IsAbs(rel) &&
		rel == filepath.Base(rel)
}

func writeAtomic(target string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(target), filepath.Base(target)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), filePerm); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), target)
}

// copyDir copies the regular files directly under src into dst. A
// missing src is treated as empty. Tenant config directories are
// flat, so no recursion is needed.
func copyDir(src, dst string) error {
	entries, err := os.ReadDir(src)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(src, entry.Name()))
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dst, entry.Name()), data, filePerm); err != nil {
			return err
		}
	}
	return nil
}

// readDirFiles reads every file directly under dir into memory. Any
// entry that cannot be read in full fails the whole read.
func readDirFiles(dir string) (map[string][]byte, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	files := make(map[string][]byte, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		files[entry.Name()] = data
	}
	return files, nil
}

func allKinds() []models.ArtifactKind {
	return []models.ArtifactKind{
		models.ArtifactDialplan,
		models.ArtifactExtensions,
		models.ArtifactGateways,
		models.ArtifactIVR,
		models.ArtifactConference,
	}
}
