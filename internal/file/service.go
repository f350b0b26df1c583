package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/abduss/filestore/internal/metrics"
	"go.uber.org/zap"
)

const (
	defaultMaxFileSize = 100 * 1024 * 1024 // 100MB
	defaultListLimit   = 100
	maxListLimit       = 1000

	// Declared sizes come from the client, so objects are always streamed
	// to EOF and measured on the way through.
	unknownSize = -1
)

type metadataStore interface {
	Create(ctx context.Context, nf NewFile) (File, error)
	GetByID(ctx context.Context, id int64) (File, error)
	GetByPath(ctx context.Context, key string) (File, error)
	ListByUser(ctx context.Context, userID int64, offset, limit int) ([]File, error)
	Update(ctx context.Context, id int64, patch Patch) (File, error)
	Delete(ctx context.Context, id int64) (File, error)
}

// Options tunes a Service. Zero values fall back to defaults.
type Options struct {
	MaxFileSize      int64
	DefaultListLimit int
	Paths            PathPolicy
	EnforceOwnership bool
}

// Service coordinates file metadata and object storage.
type Service struct {
	repo             metadataStore
	objectStore      ObjectStore
	objectBucket     string
	maxFileSize      int64
	listLimit        int
	paths            PathPolicy
	enforceOwnership bool
	log              *zap.Logger
}

// NewService constructs a file service.
func NewService(repo metadataStore, store ObjectStore, objectBucket string, opts Options, log *zap.Logger) *Service {
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = defaultMaxFileSize
	}
	if opts.DefaultListLimit <= 0 {
		opts.DefaultListLimit = defaultListLimit
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		repo:             repo,
		objectStore:      store,
		objectBucket:     objectBucket,
		maxFileSize:      opts.MaxFileSize,
		listLimit:        opts.DefaultListLimit,
		paths:            opts.Paths,
		enforceOwnership: opts.EnforceOwnership,
		log:              log.Named("file"),
	}
}

// MaxFileSize is the largest upload the service accepts, in bytes.
func (s *Service) MaxFileSize() int64 {
	return s.maxFileSize
}

// Upload records metadata and then writes the object. Metadata is committed
// first so a duplicate key never reaches storage. A failed storage write
// leaves the row in place and reports ErrStorageWriteFailed. The stored size
// is the number of bytes actually written, whatever the client declared.
func (s *Service) Upload(ctx context.Context, owner Owner, in UploadInput) (File, error) {
	if in.Body == nil {
		return File{}, fmt.Errorf("missing file payload")
	}
	if in.Size > s.maxFileSize {
		metrics.ObserveUpload("too_large")
		return File{}, ErrFileTooLarge
	}

	key, name, err := s.paths.Resolve(owner.Email, in.Path, in.Filename)
	if err != nil {
		metrics.ObserveUpload("invalid_path")
		return File{}, err
	}

	declared := in.Size
	if declared < 0 {
		declared = 0
	}
	stored, err := s.repo.Create(ctx, NewFile{
		UserID: owner.ID,
		Name:   name,
		Path:   key,
		Size:   declared,
	})
	if err != nil {
		if errors.Is(err, ErrDuplicatePath) {
			metrics.ObserveUpload("duplicate")
		} else {
			metrics.ObserveUpload("error")
		}
		return File{}, err
	}

	body := &countingReader{r: in.Body}
	_, err = s.objectStore.Put(ctx, s.objectBucket, key, body, unknownSize)
	if err == nil {
		err = ensureDrained(in.Body)
	}
	if err != nil {
		metrics.ObserveUpload("storage_error")
		metrics.ObserveOrphanRecord()
		s.log.Error("object write failed, metadata row left without object",
			zap.Int64("file_id", stored.ID),
			zap.String("path", key),
			zap.String("user", owner.Email),
			zap.Error(err),
		)
		return File{}, fmt.Errorf("%w: %v", ErrStorageWriteFailed, err)
	}

	if written := body.n; written != stored.Size {
		if in.Size >= 0 {
			s.log.Warn("declared size differs from bytes written",
				zap.Int64("file_id", stored.ID),
				zap.Int64("declared", in.Size),
				zap.Int64("written", written),
			)
		}
		stored, err = s.repo.Update(ctx, stored.ID, Patch{Size: &written})
		if err != nil {
			metrics.ObserveUpload("error")
			return File{}, fmt.Errorf("correct file size: %w", err)
		}
	}

	metrics.ObserveUpload("ok")
	s.log.Info("file uploaded", zap.String("path", key), zap.String("user", owner.Email), zap.Int64("size", stored.Size))
	return stored, nil
}

// Download resolves locator, checks the record may be downloaded and copies
// the object to destDir/<email>/<name>. The result holds an open handle on
// the bytes written for this call; a later download of a record with the
// same name may replace the path but not the handle. Callers must Close it.
func (s *Service) Download(ctx context.Context, owner Owner, locator, destDir string) (DownloadResult, error) {
	record, err := s.Resolve(ctx, locator)
	if err != nil {
		if errors.Is(err, ErrFileNotFound) {
			metrics.ObserveDownload("not_found")
		} else {
			metrics.ObserveDownload("error")
		}
		return DownloadResult{}, err
	}

	if !record.IsDownloadable {
		metrics.ObserveDownload("forbidden")
		return DownloadResult{}, ErrForbidden
	}
	if s.enforceOwnership && record.UserID != owner.ID {
		metrics.ObserveDownload("forbidden")
		return DownloadResult{}, ErrForbidden
	}

	dir := filepath.Join(destDir, filepath.Base(owner.Email))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		metrics.ObserveDownload("error")
		return DownloadResult{}, fmt.Errorf("prepare download dir: %w", err)
	}

	body, err := s.objectStore.Get(ctx, s.objectBucket, record.Path)
	if err != nil {
		metrics.ObserveDownload("storage_error")
		s.log.Error("object read failed", zap.Int64("file_id", record.ID), zap.String("path", record.Path), zap.Error(err))
		return DownloadResult{}, fmt.Errorf("%w: %v", ErrStorageReadFailed, err)
	}
	defer body.Close()

	target := filepath.Join(dir, filepath.Base(record.Name))
	local, size, err := writeLocal(dir, target, body)
	if err != nil {
		metrics.ObserveDownload("storage_error")
		s.log.Error("local copy failed", zap.Int64("file_id", record.ID), zap.String("target", target), zap.Error(err))
		return DownloadResult{}, fmt.Errorf("%w: %v", ErrStorageReadFailed, err)
	}

	metrics.ObserveDownload("ok")
	s.log.Info("file downloaded", zap.String("path", record.Path), zap.String("user", owner.Email))
	return DownloadResult{
		File:        record,
		LocalPath:   target,
		Content:     local,
		Size:        size,
		ContentType: OctetStream,
		Filename:    record.Name,
	}, nil
}

// Resolve looks a locator up by id when it is all decimal digits, by path otherwise.
func (s *Service) Resolve(ctx context.Context, locator string) (File, error) {
	if isDecimal(locator) {
		id, err := strconv.ParseInt(locator, 10, 64)
		if err != nil {
			return File{}, ErrFileNotFound
		}
		return s.repo.GetByID(ctx, id)
	}
	return s.repo.GetByPath(ctx, locator)
}

// List returns one page of the owner's files.
func (s *Service) List(ctx context.Context, owner Owner, offset, limit int) (UserFiles, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = s.listLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	files, err := s.repo.ListByUser(ctx, owner.ID, offset, limit)
	if err != nil {
		return UserFiles{}, err
	}
	return UserFiles{AccountID: owner.ID, Files: files}, nil
}

// SetDownloadable flips the download gate of a record.
func (s *Service) SetDownloadable(ctx context.Context, id int64, allowed bool) (File, error) {
	f, err := s.repo.Update(ctx, id, Patch{IsDownloadable: &allowed})
	if err != nil {
		return File{}, err
	}
	s.log.Info("download gate changed", zap.Int64("file_id", id), zap.Bool("downloadable", allowed))
	return f, nil
}

// DropRecord deletes a metadata row without touching the object store.
// Used to clear rows orphaned by failed uploads.
func (s *Service) DropRecord(ctx context.Context, id int64) (File, error) {
	f, err := s.repo.Delete(ctx, id)
	if err != nil {
		return File{}, err
	}
	s.log.Info("file record dropped", zap.Int64("file_id", id), zap.String("path", f.Path))
	return f, nil
}

func isDecimal(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// writeLocal streams r into a temp file in dir and renames it over target.
// The returned handle is rewound and stays valid if target is replaced later.
func writeLocal(dir, target string, r io.Reader) (*os.File, int64, error) {
	tmp, err := os.CreateTemp(dir, ".download-*")
	if err != nil {
		return nil, 0, err
	}
	fail := func(err error) (*os.File, int64, error) {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, 0, err
	}

	n, err := io.Copy(tmp, r)
	if err != nil {
		return fail(err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return fail(err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fail(err)
	}
	return tmp, n, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// ensureDrained fails when a store stopped reading before EOF, which would
// leave a truncated object behind.
func ensureDrained(r io.Reader) error {
	var probe [1]byte
	n, err := io.ReadFull(r, probe[:])
	if n > 0 {
		return errors.New("object store stopped before end of upload")
	}
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("check upload drained: %w", err)
	}
	return nil
}
