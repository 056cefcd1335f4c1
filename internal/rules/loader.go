package rules

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader returns the rule document for a task.
type Loader interface {
	Load(taskID string) (*Document, error)
}

// extensions are tried in order when looking up a task file.
var extensions = []string{".yaml", ".yml"}

// FileLoader reads rule documents from <Dir>/<taskID>.yaml.
type FileLoader struct {
	Dir string
}

// NewFileLoader returns a loader rooted at dir.
func NewFileLoader(dir string) *FileLoader {
	return &FileLoader{Dir: dir}
}

// Load reads, parses and validates the rule file for taskID.
// It returns an error wrapping ErrNotFound when no file exists and a
// *ParseError when the file is malformed or fails validation.
func (l *FileLoader) Load(taskID string) (*Document, error) {
	if !validTaskID(taskID) {
		return nil, fmt.Errorf("task %q: %w", taskID, ErrNotFound)
	}

	for _, ext := range extensions {
		path := filepath.Join(l.Dir, taskID+ext)
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read rules %s: %w", path, err)
		}
		return Parse(taskID, data)
	}
	return nil, fmt.Errorf("task %q in %s: %w", taskID, l.Dir, ErrNotFound)
}

// List returns the task ids with a rule file in Dir, sorted.
func (l *FileLoader) List() ([]string, error) {
	entries, err := os.ReadDir(l.Dir)
	if err != nil {
		return nil, fmt.Errorf("read rules dir: %w", err)
	}
	seen := make(map[string]bool)
	var ids []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		for _, ext := range extensions {
			if id, ok := strings.CutSuffix(name, ext); ok && validTaskID(id) && !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Parse decodes a YAML rule document and validates it. Unknown fields are
// rejected so a misspelled key is not silently ignored.
func Parse(taskID string, data []byte) (*Document, error) {
	var raw rawDocument
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("document is empty")
		}
		return nil, &ParseError{TaskID: taskID, Err: err}
	}

	doc, err := resolve(taskID, &raw)
	if err != nil {
		return nil, &ParseError{TaskID: taskID, Err: err}
	}
	return doc, nil
}

// validTaskID accepts plain file names only, so a task id can never
// address a file outside the rules directory.
func validTaskID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	return !strings.ContainsAny(id, `/\`) && !strings.ContainsRune(id, 0)
}
