package env

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type fileLayout struct {
	Vars map[string]string `yaml:"vars"`
}

// FileStore is a MapStore persisted to a YAML file. Every change is written
// through before Set returns.
type FileStore struct {
	*MapStore
	path string
}

// OpenFile loads the store at path. A missing file yields an empty store
// that will be created on the first Set.
func OpenFile(path string) (*FileStore, error) {
	fs := &FileStore{MapStore: NewMapStore(nil), path: path}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return fs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading env file: %v", err)
	}
	var layout fileLayout
	if err := yaml.Unmarshal(data, &layout); err != nil {
		return nil, fmt.Errorf("error parsing env file: %v", err)
	}
	fs.MapStore = NewMapStore(layout.Vars)
	log.Debug().Str("op", "env/file").Str("path", path).Int("vars", len(layout.Vars)).Msg("Environment loaded")
	return fs, nil
}

func (fs *FileStore) Path() string { return fs.path }

func (fs *FileStore) Set(name, value string) error {
	if err := fs.MapStore.Set(name, value); err != nil {
		return err
	}
	return fs.save()
}

func (fs *FileStore) SetHex(name string, value uint64) error {
	return fs.Set(name, FormatHex(value))
}

func (fs *FileStore) save() error {
	data, err := yaml.Marshal(fileLayout{Vars: fs.snapshot()})
	if err != nil {
		return fmt.Errorf("error encoding env file: %v", err)
	}
	dir := filepath.Dir(fs.path)
	tmp, err := os.CreateTemp(dir, ".env-*.tmp")
	if err != nil {
		return fmt.Errorf("error creating temp env file: %v", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("error writing env file: %v", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("error writing env file: %v", err)
	}
	if err := os.Rename(tmp.Name(), fs.path); err != nil {
		return fmt.Errorf("error renaming (finalizing) env file: %v", err)
	}
	return nil
}
