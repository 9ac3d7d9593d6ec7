package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/amavi/catalogo/internal/model"
)

// FileStore keeps the whole catalog in a single JSON document.
// Every mutation rewrites the file through a temp file and rename. The
// highest ID ever assigned is kept next to it in "<path>.seq" so IDs of
// deleted items are never handed out again.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a store backed by the JSON file at path.
// The file is created on the first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) load() ([]model.Item, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading items file: %w", err)
	}

	var items []model.Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decoding items file: %w", err)
	}
	for i := range items {
		items[i].Size = model.NormalizeSize(items[i].Type, items[i].Size)
	}
	return items, nil
}

func (s *FileStore) save(items []model.Item) error {
	if items == nil {
		items = []model.Item{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding items: %w", err)
	}
	return writeFile(s.path, data)
}

func (s *FileStore) seqPath() string {
	return s.path + ".seq"
}

// lastID returns the highest ID ever assigned, 0 if none was recorded.
func (s *FileStore) lastID() (int64, error) {
	data, err := os.ReadFile(s.seqPath())
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading id sequence: %w", err)
	}
	id, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("decoding id sequence: %w", err)
	}
	return id, nil
}

func (s *FileStore) saveLastID(id int64) error {
	return writeFile(s.seqPath(), []byte(strconv.FormatInt(id, 10)+"\n"))
}

// writeFile replaces path atomically through a temp file in the same
// directory.
func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replacing %s: %w", filepath.Base(path), err)
	}
	return nil
}

func indexOf(items []model.Item, id int64) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}

func nameTaken(items []model.Item, name string, exceptID int64) bool {
	for _, item := range items {
		if item.Name == name && item.ID != exceptID {
			return true
		}
	}
	return false
}

// List returns the items matching filter in insertion order.
func (s *FileStore) List(ctx context.Context, filter model.Filter) ([]model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load()
	if err != nil {
		return nil, err
	}

	var result []model.Item
	for _, item := range items {
		if filter.Match(item) {
			result = append(result, item)
		}
	}
	return result, nil
}

// Get returns an item by ID.
func (s *FileStore) Get(ctx context.Context, id int64) (*model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load()
	if err != nil {
		return nil, err
	}
	i := indexOf(items, id)
	if i < 0 {
		return nil, ErrNotFound
	}
	item := items[i]
	return &item, nil
}

// FindByName returns the item with exactly this name.
func (s *FileStore) FindByName(ctx context.Context, name string) (*model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load()
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if item.Name == name {
			return &item, nil
		}
	}
	return nil, ErrNotFound
}

// Create appends a new item with ID one above the highest ever assigned.
func (s *FileStore) Create(ctx context.Context, item model.Item) (*model.Item, error) {
	if err := checkRequired(item); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load()
	if err != nil {
		return nil, err
	}
	if nameTaken(items, item.Name, 0) {
		return nil, ErrConflict
	}

	maxID, err := s.lastID()
	if err != nil {
		return nil, err
	}
	for _, existing := range items {
		if existing.ID > maxID {
			maxID = existing.ID
		}
	}

	item = prepareNew(item)
	item.ID = maxID + 1
	items = append(items, item)

	// Recorded first: a failed save then only leaves a gap.
	if err := s.saveLastID(item.ID); err != nil {
		return nil, err
	}

	if err := s.save(items); err != nil {
		return nil, err
	}
	return &item, nil
}

// Update applies patch to the item with the given ID.
func (s *FileStore) Update(ctx context.Context, id int64, patch model.ItemPatch) (*model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load()
	if err != nil {
		return nil, err
	}
	i := indexOf(items, id)
	if i < 0 {
		return nil, ErrNotFound
	}

	updated := patch.Apply(items[i])
	if patch.Name != nil && nameTaken(items, updated.Name, id) {
		return nil, ErrConflict
	}
	items[i] = updated

	if err := s.save(items); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes the item with the given ID.
func (s *FileStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load()
	if err != nil {
		return err
	}
	i := indexOf(items, id)
	if i < 0 {
		return ErrNotFound
	}

	items = append(items[:i], items[i+1:]...)
	return s.save(items)
}
