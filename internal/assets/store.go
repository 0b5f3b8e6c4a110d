package assets

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"movie-maker/internal/apperr"
	"movie-maker/internal/filesystem"
	"movie-maker/internal/logging"
	"movie-maker/internal/mediatypes"
	"movie-maker/internal/plan"
)

// maxNameLength matches the common filesystem limit for a single path element.
const maxNameLength = 255

// Asset is an uploaded file.
type Asset struct {
	Name string
	// OriginalName is the client-supplied name. It is only known at upload
	// time; listings leave it empty.
	OriginalName string
	Size         int64
	CreatedAt    time.Time
	Kind         mediatypes.Kind
}

// Artifact is a file produced by a completed job.
type Artifact struct {
	Name      string
	Size      int64
	CreatedAt time.Time
	Kind      mediatypes.Kind
	// Operation is recovered from the name's tag prefix. It is empty for
	// files that were not produced by this server.
	Operation plan.Operation
}

// Stats summarises the contents of a store.
type Stats struct {
	Files  int
	Videos int
	Images int
	Other  int
	Bytes  int64
}

// Store is a flat directory of media files. The directory listing is the
// only index: nothing is cached between calls.
type Store struct {
	dir    string
	volume string
	retry  filesystem.RetryConfig
	now    func() time.Time
}

// New opens the store rooted at dir, creating the directory if needed.
// volume labels filesystem metrics ("uploads", "output").
func New(dir, volume string) (*Store, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, apperr.Internal("open store", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, apperr.Internal("open store", err)
	}

	retry := filesystem.DefaultRetryConfig()
	retry.VolumeResolver = filesystem.NewVolumeResolver(map[string]string{volume: abs})

	return &Store{
		dir:    abs,
		volume: volume,
		retry:  retry,
		now:    time.Now,
	}, nil
}

// Dir returns the absolute directory backing the store.
func (s *Store) Dir() string { return s.dir }

// Volume returns the store's metric label.
func (s *Store) Volume() string { return s.volume }

// Path joins name onto the store directory. It does not validate name.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// ValidateName rejects names that are empty, hidden, or could escape the
// store directory. It never touches the filesystem.
func ValidateName(name string) error {
	switch {
	case name == "":
		return apperr.InvalidName("validate name", "name is empty")
	case name == "." || name == "..":
		return apperr.InvalidName("validate name", "invalid name %q", name)
	case len(name) > maxNameLength:
		return apperr.InvalidName("validate name", "name is longer than %d bytes", maxNameLength)
	case strings.ContainsAny(name, "/\\\x00"):
		return apperr.InvalidName("validate name", "invalid name %q", name)
	case strings.Contains(name, ".."):
		return apperr.InvalidName("validate name", "invalid name %q", name)
	case strings.HasPrefix(name, "."):
		return apperr.InvalidName("validate name", "invalid name %q", name)
	}
	return nil
}

// ValidateName validates name for this store.
func (s *Store) ValidateName(name string) error {
	return ValidateName(name)
}

// stat validates name and returns the file's info. Directories and other
// non-regular files are reported as missing.
func (s *Store) stat(op, name string) (string, os.FileInfo, error) {
	if err := ValidateName(name); err != nil {
		return "", nil, err
	}

	path := s.Path(name)
	info, err := filesystem.StatWithRetry(path, s.retry)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil, apperr.NotFound(op, "file not found: %s", name)
		}
		return "", nil, apperr.Internal(op, err)
	}
	if !info.Mode().IsRegular() {
		return "", nil, apperr.NotFound(op, "file not found: %s", name)
	}
	return path, info, nil
}

// Resolve returns the absolute path of an existing file.
func (s *Store) Resolve(name string) (string, error) {
	path, _, err := s.stat("resolve", name)
	return path, err
}

// Stat returns the Asset record for name.
func (s *Store) Stat(name string) (Asset, error) {
	_, info, err := s.stat("stat", name)
	if err != nil {
		return Asset{}, err
	}
	return assetFromInfo(name, info), nil
}

// StatArtifact returns the Artifact record for name.
func (s *Store) StatArtifact(name string) (Artifact, error) {
	_, info, err := s.stat("stat", name)
	if err != nil {
		return Artifact{}, err
	}
	return artifactFromInfo(name, info), nil
}

// Adopt registers a file the engine wrote into the store directory and
// returns its record. It fails with NotFound if the file does not exist.
func (s *Store) Adopt(name string) (Artifact, error) {
	_, info, err := s.stat("adopt", name)
	if err != nil {
		return Artifact{}, err
	}
	logging.Debug("Registered %s/%s (%d bytes)", s.volume, name, info.Size())
	return artifactFromInfo(name, info), nil
}

// Delete removes name from the store.
func (s *Store) Delete(name string) error {
	path, _, err := s.stat("delete", name)
	if err != nil {
		return err
	}

	if err := filesystem.RemoveWithRetry(path, s.retry); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return apperr.NotFound("delete", "file not found: %s", name)
		}
		return apperr.Internal("delete", err)
	}

	logging.Info("Deleted %s/%s", s.volume, name)
	return nil
}

// Register stores the content of r under a freshly generated name and
// returns the new Asset. The file is written under a hidden temporary name
// and linked into place, so listings never observe a partial upload and an
// existing file is never overwritten.
func (s *Store) Register(originalName string, r io.Reader) (Asset, error) {
	name := s.newName(originalName)
	tmp := filepath.Join(s.dir, ".upload-"+uuid.NewString()+".tmp")

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return Asset{}, apperr.Internal("register", err)
	}
	// The temp file is always removed; after a successful link the final
	// name keeps the data.
	defer os.Remove(tmp)

	size, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return Asset{}, apperr.Internal("register", err)
	}

	final := s.Path(name)
	if err := publish(tmp, final); err != nil {
		return Asset{}, apperr.Internal("register", err)
	}

	info, err := filesystem.StatWithRetry(final, s.retry)
	if err != nil {
		return Asset{}, apperr.Internal("register", err)
	}

	asset := assetFromInfo(name, info)
	asset.OriginalName = originalName
	asset.Size = size
	logging.Debug("Stored %s/%s from %q (%d bytes)", s.volume, name, originalName, size)
	return asset, nil
}

// publish moves tmp to final without ever replacing an existing file.
// A hard link fails with EEXIST on collision; filesystems without hard
// link support fall back to rename after an existence check.
func publish(tmp, final string) error {
	err := os.Link(tmp, final)
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("refusing to overwrite %s: %w", filepath.Base(final), err)
	}

	if _, statErr := os.Lstat(final); statErr == nil {
		return fmt.Errorf("refusing to overwrite %s: %w", filepath.Base(final), fs.ErrExist)
	}
	return os.Rename(tmp, final)
}

// newName returns file-{unixMillis}-{32 hex}{ext}.
func (s *Store) newName(originalName string) string {
	id := uuid.New()
	ext := mediatypes.Ext(originalName)
	if ext != "" && ValidateName("x"+ext) != nil {
		ext = ""
	}
	return fmt.Sprintf("file-%d-%s%s", s.now().UnixMilli(), hex.EncodeToString(id[:]), ext)
}

// scan lists the regular, non-hidden files in the store directory.
func (s *Store) scan(ctx context.Context) ([]string, []os.FileInfo, error) {
	entries, err := filesystem.ReadDirWithRetry(s.dir, s.retry)
	if err != nil {
		return nil, nil, apperr.Internal("list", err)
	}

	names := make([]string, 0, len(entries))
	infos := make([]os.FileInfo, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, nil, apperr.Cancelled("list", "listing %s cancelled", s.volume)
		}

		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		info, err := filesystem.StatWithRetry(s.Path(name), s.retry)
		if err != nil {
			// Deleted between readdir and stat
			if !errors.Is(err, fs.ErrNotExist) {
				logging.Warn("Skipping %s/%s: %v", s.volume, name, err)
			}
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}

		names = append(names, name)
		infos = append(infos, info)
	}
	return names, infos, nil
}

// List returns every asset in the store, oldest first.
func (s *Store) List(ctx context.Context) ([]Asset, error) {
	names, infos, err := s.scan(ctx)
	if err != nil {
		return nil, err
	}

	list := make([]Asset, len(names))
	for i := range names {
		list[i] = assetFromInfo(names[i], infos[i])
	}
	sort.SliceStable(list, func(i, j int) bool {
		return before(list[i].CreatedAt, list[i].Name, list[j].CreatedAt, list[j].Name)
	})
	return list, nil
}

// ListArtifacts returns every file in the store as an Artifact, oldest first.
func (s *Store) ListArtifacts(ctx context.Context) ([]Artifact, error) {
	names, infos, err := s.scan(ctx)
	if err != nil {
		return nil, err
	}

	list := make([]Artifact, len(names))
	for i := range names {
		list[i] = artifactFromInfo(names[i], infos[i])
	}
	sort.SliceStable(list, func(i, j int) bool {
		return before(list[i].CreatedAt, list[i].Name, list[j].CreatedAt, list[j].Name)
	})
	return list, nil
}

// Stats counts the files in the store by kind.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	names, infos, err := s.scan(ctx)
	if err != nil {
		return Stats{}, err
	}

	var st Stats
	for i, name := range names {
		st.Files++
		st.Bytes += infos[i].Size()
		switch mediatypes.KindOf(name) {
		case mediatypes.KindVideo:
			st.Videos++
		case mediatypes.KindImage:
			st.Images++
		default:
			st.Other++
		}
	}
	return st, nil
}

func before(ti time.Time, ni string, tj time.Time, nj string) bool {
	if !ti.Equal(tj) {
		return ti.Before(tj)
	}
	return ni < nj
}

// CreatedAt is the modification time: it is the only timestamp every
// platform reports, and files are never modified after they are written.
func assetFromInfo(name string, info os.FileInfo) Asset {
	return Asset{
		Name:      name,
		Size:      info.Size(),
		CreatedAt: info.ModTime(),
		Kind:      mediatypes.KindOf(name),
	}
}

func artifactFromInfo(name string, info os.FileInfo) Artifact {
	op, _ := plan.OperationFromName(name)
	return Artifact{
		Name:      name,
		Size:      info.Size(),
		CreatedAt: info.ModTime(),
		Kind:      mediatypes.KindOf(name),
		Operation: op,
	}
}
