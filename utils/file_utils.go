package utils

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// EnsureDir creates a directory if it doesn't exist
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, os.ModePerm)
}

// ReadJSON reads a JSON file and unmarshals it into the provided interface
func ReadJSON(path string, v interface{}) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	return decoder.Decode(v)
}

// WriteJSON writes data to a JSON file, replacing it atomically
func WriteJSON(path string, v interface{}) error {
	dir := filepath.Dir(path)
	if err := EnsureDir(dir); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	encoder := json.NewEncoder(tmp)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// FindFiles returns the files directly inside dir whose name matches one of
// the comma separated patterns, sorted by name
func FindFiles(dir, pattern string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	patterns := strings.Split(pattern, ",")

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		for _, p := range patterns {
			p = strings.ToLower(strings.TrimSpace(p))
			if p == "" {
				continue
			}
			matched, err := filepath.Match(p, strings.ToLower(entry.Name()))
			if err != nil {
				return nil, err
			}
			if matched {
				files = append(files, filepath.Join(dir, entry.Name()))
				break
			}
		}
	}

	sort.Strings(files)
	return files, nil
}

// ListDirs returns the names of the visible sub-directories of dir, sorted
func ListDirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var dirs []string
	for _, entry := range entries {
		if entry.IsDir() && !strings.HasPrefix(entry.Name(), ".") {
			dirs = append(dirs, entry.Name())
		}
	}

	sort.Strings(dirs)
	return dirs, nil
}
