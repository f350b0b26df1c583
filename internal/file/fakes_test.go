package file

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"
)

// fakeRepo mimics the unique constraint on path.
type fakeRepo struct {
	mu      sync.Mutex
	records map[int64]File
	nextID  int64

	createCalls int
	byIDCalls   int
	byPathCalls int

	getErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: make(map[int64]File)}
}

func (f *fakeRepo) Create(ctx context.Context, nf NewFile) (File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	for _, r := range f.records {
		if r.Path == nf.Path {
			return File{}, ErrDuplicatePath
		}
	}
	f.nextID++
	rec := File{
		ID:        f.nextID,
		UserID:    nf.UserID,
		Name:      nf.Name,
		Path:      nf.Path,
		Size:      nf.Size,
		CreatedAt: time.Now(),
	}
	f.records[rec.ID] = rec
	return rec, nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id int64) (File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byIDCalls++
	if f.getErr != nil {
		return File{}, f.getErr
	}
	rec, ok := f.records[id]
	if !ok {
		return File{}, ErrFileNotFound
	}
	return rec, nil
}

func (f *fakeRepo) GetByPath(ctx context.Context, key string) (File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byPathCalls++
	if f.getErr != nil {
		return File{}, f.getErr
	}
	for _, r := range f.records {
		if r.Path == key {
			return r, nil
		}
	}
	return File{}, ErrFileNotFound
}

func (f *fakeRepo) ListByUser(ctx context.Context, userID int64, offset, limit int) ([]File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var list []File
	for _, r := range f.records {
		if r.UserID == userID {
			list = append(list, r)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	if offset >= len(list) {
		return []File{}, nil
	}
	list = list[offset:]
	if limit < len(list) {
		list = list[:limit]
	}
	return list, nil
}

func (f *fakeRepo) Update(ctx context.Context, id int64, patch Patch) (File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok {
		return File{}, ErrFileNotFound
	}
	if patch.Name != nil {
		rec.Name = *patch.Name
	}
	if patch.Size != nil {
		rec.Size = *patch.Size
	}
	if patch.IsDownloadable != nil {
		rec.IsDownloadable = *patch.IsDownloadable
	}
	f.records[id] = rec
	return rec, nil
}

func (f *fakeRepo) Delete(ctx context.Context, id int64) (File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok {
		return File{}, ErrFileNotFound
	}
	delete(f.records, id)
	return rec, nil
}

func (f *fakeRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

var errBackend = errors.New("backend unavailable")

// fakeObjectStore keeps objects in memory keyed by bucket/key. Like minio it
// stops reading once a non-negative size has been consumed.
type fakeObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte

	putErr   error
	getErr   error
	putCalls int
	putSizes []int64
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: make(map[string][]byte)}
}

func (f *fakeObjectStore) Put(ctx context.Context, bucket, key string, r io.Reader, size int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.putCalls++
	f.putSizes = append(f.putSizes, size)
	if f.putErr != nil {
		return 0, f.putErr
	}
	if size >= 0 {
		r = io.LimitReader(r, size)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	f.objects[bucket+"/"+key] = data
	return int64(len(data)), nil
}

func (f *fakeObjectStore) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.objects[bucket+"/"+key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeObjectStore) object(bucket, key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[bucket+"/"+key]
	return data, ok
}

// trackingReader records whether anything consumed it.
type trackingReader struct {
	r    io.Reader
	read bool
}

func (t *trackingReader) Read(p []byte) (int, error) {
	t.read = true
	return t.r.Read(p)
}

// truncatingStore accepts only the first limit bytes whatever size it is given.
type truncatingStore struct {
	*fakeObjectStore
	limit int64
}

func (t truncatingStore) Put(ctx context.Context, bucket, key string, r io.Reader, size int64) (int64, error) {
	return t.fakeObjectStore.Put(ctx, bucket, key, r, t.limit)
}
