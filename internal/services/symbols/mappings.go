package symbols

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// CompanyMapping maps an uppercased company name to its ticker symbol
type CompanyMapping struct {
	Name        string `toml:"name"`
	Ticker      string `toml:"ticker"`
	LastUpdated string `toml:"last_updated,omitempty"`
}

// Tables holds the three mapping tables the extractor works from
type Tables struct {
	Version      string           `toml:"version"`
	LastUpdated  string           `toml:"last_updated,omitempty"`
	Companies    []CompanyMapping `toml:"company"`
	KnownTickers []string         `toml:"known_tickers"`
	CommonWords  []string         `toml:"common_words"`
}

// Source loads and updates the mapping tables.
type Source interface {
	Load(ctx context.Context) (*Tables, error)
	AddCompanyMapping(ctx context.Context, companyName, ticker string) error
}

// FileSource persists the mapping tables as a TOML file. A missing file is
// seeded from the built-in defaults on first load.
type FileSource struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// NewFileSource creates a file-backed mapping source
func NewFileSource(path string) *FileSource {
	return &FileSource{
		path: path,
		now:  time.Now,
	}
}

// Load reads the mapping tables from disk, creating the file from defaults
// if it does not exist.
func (s *FileSource) Load(_ context.Context) (*Tables, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		tables := defaultTables()
		tables.LastUpdated = s.now().UTC().Format(time.RFC3339)
		if err := s.write(tables); err != nil {
			return nil, fmt.Errorf("failed to seed mappings file: %w", err)
		}
		return tables, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read mappings file: %w", err)
	}

	var tables Tables
	if err := toml.Unmarshal(data, &tables); err != nil {
		return nil, fmt.Errorf("failed to parse mappings file: %w", err)
	}
	return &tables, nil
}

// AddCompanyMapping upserts a company-name mapping and writes the file back
func (s *FileSource) AddCompanyMapping(ctx context.Context, companyName, ticker string) error {
	companyName = strings.ToUpper(strings.TrimSpace(companyName))
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if companyName == "" || ticker == "" {
		return fmt.Errorf("company name and ticker are required")
	}

	tables, err := s.Load(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stamp := s.now().UTC().Format(time.RFC3339)
	updated := false
	for i := range tables.Companies {
		if tables.Companies[i].Name == companyName {
			tables.Companies[i].Ticker = ticker
			tables.Companies[i].LastUpdated = stamp
			updated = true
			break
		}
	}
	if !updated {
		tables.Companies = append(tables.Companies, CompanyMapping{
			Name:        companyName,
			Ticker:      ticker,
			LastUpdated: stamp,
		})
	}

	// Newly mapped tickers become part of the allow-list.
	known := false
	for _, t := range tables.KnownTickers {
		if t == ticker {
			known = true
			break
		}
	}
	if !known {
		tables.KnownTickers = append(tables.KnownTickers, ticker)
	}

	tables.LastUpdated = stamp
	return s.write(tables)
}

// write serializes the tables to the file path. Caller holds the lock.
func (s *FileSource) write(tables *Tables) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create mappings directory: %w", err)
		}
	}

	data, err := toml.Marshal(tables)
	if err != nil {
		return fmt.Errorf("failed to marshal mappings: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write mappings file: %w", err)
	}
	return nil
}

// StaticSource serves fixed tables, used in tests and as a read-only source
type StaticSource struct {
	Tables *Tables
}

// Load returns the fixed tables
func (s *StaticSource) Load(_ context.Context) (*Tables, error) {
	if s.Tables == nil {
		return defaultTables(), nil
	}
	return s.Tables, nil
}

// AddCompanyMapping is not supported on a static source
func (s *StaticSource) AddCompanyMapping(_ context.Context, _, _ string) error {
	return fmt.Errorf("static mapping source is read-only")
}
