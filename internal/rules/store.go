package rules

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ErrRuleNotFound is returned when no rule matches a control ID.
var ErrRuleNotFound = errors.New("rule not found")

// Store provides read and write access to control rules.
type Store interface {
	// List returns all rules for a meta category, ordered by control
	// ID. A category with no rules yields an empty slice, not an error.
	List(metaCategory string) ([]Rule, error)

	// Get returns the rule with the given control ID.
	Get(controlID string) (Rule, error)

	// Create adds a new rule under its meta category.
	Create(rule Rule) error

	// Update replaces the rule with the matching control ID. The rule
	// keeps its identity even if its category or description change.
	Update(rule Rule) error

	// Delete removes the rule with the given control ID.
	Delete(controlID string) error

	// Categories returns the meta categories that have rules.
	Categories() ([]string, error)
}

// FileStore stores each rule as a JSON file under
// <dir>/<META_CATEGORY>/<control_id>.json.
type FileStore struct {
	mu  sync.RWMutex
	dir string
}

// NewFileStore creates a file-backed rule store rooted at dir.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create rules directory: %v", err)
	}
	return &FileStore{dir: dir}, nil
}

// List returns all rules for a meta category, ordered by control ID.
func (s *FileStore) List(metaCategory string) ([]Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	categoryDir := filepath.Join(s.dir, strings.ToUpper(metaCategory))
	files, err := os.ReadDir(categoryDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Rule{}, nil
		}
		return nil, fmt.Errorf("failed to read rules directory: %v", err)
	}

	result := make([]Rule, 0, len(files))
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
			continue
		}
		rule, err := s.readRule(filepath.Join(categoryDir, file.Name()))
		if err != nil {
			return nil, err
		}
		result = append(result, rule)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ControlID < result[j].ControlID
	})
	return result, nil
}

// Get returns the rule with the given control ID.
func (s *FileStore) Get(controlID string) (Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path, err := s.findRule(controlID)
	if err != nil {
		return Rule{}, err
	}
	return s.readRule(path)
}

// Create adds a new rule under its meta category.
func (s *FileStore) Create(rule Rule) error {
	if err := rule.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, err := s.findRule(rule.ControlID); err == nil {
		return fmt.Errorf("rule %s already exists at %s", rule.ControlID, existing)
	}
	return s.writeRule(rule)
}

// Update replaces the rule with the matching control ID. When the
// rule's meta category changed, the old file is removed first.
func (s *FileStore) Update(rule Rule) error {
	if err := rule.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	oldPath, err := s.findRule(rule.ControlID)
	if err != nil {
		return err
	}
	newPath := s.rulePath(rule)
	if oldPath != newPath {
		if err := os.Remove(oldPath); err != nil {
			return fmt.Errorf("failed to remove old rule file: %v", err)
		}
	}
	return s.writeRule(rule)
}

// Delete removes the rule with the given control ID.
func (s *FileStore) Delete(controlID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.findRule(controlID)
	if err != nil {
		return err
	}
	return os.Remove(path)
}

// Categories returns the meta categories that have rules.
func (s *FileStore) Categories() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	files, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules directory: %v", err)
	}

	var result []string
	for _, file := range files {
		if file.IsDir() {
			result = append(result, file.Name())
		}
	}
	sort.Strings(result)
	return result, nil
}

func (s *FileStore) rulePath(rule Rule) string {
	return filepath.Join(s.dir, strings.ToUpper(rule.MetaCategory), rule.ControlID+".json")
}

// findRule locates a rule file by control ID across all categories.
func (s *FileStore) findRule(controlID string) (string, error) {
	categories, err := os.ReadDir(s.dir)
	if err != nil {
		return "", fmt.Errorf("failed to read rules directory: %v", err)
	}
	for _, category := range categories {
		if !category.IsDir() {
			continue
		}
		path := filepath.Join(s.dir, category.Name(), controlID+".json")
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrRuleNotFound, controlID)
}

func (s *FileStore) readRule(path string) (Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rule{}, fmt.Errorf("failed to read rule file: %v", err)
	}
	var rule Rule
	if err := json.Unmarshal(data, &rule); err != nil {
		return Rule{}, fmt.Errorf("failed to parse rule file %s: %v", filepath.Base(path), err)
	}
	return rule, nil
}

func (s *FileStore) writeRule(rule Rule) error {
	path := s.rulePath(rule)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create category directory: %v", err)
	}
	data, err := json.MarshalIndent(rule, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal rule: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write rule file: %v", err)
	}
	return nil
}
