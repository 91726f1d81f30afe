package testsuite

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// SuiteConfig is the config.yaml of a suite source directory.
type SuiteConfig struct {
	Name            string         `yaml:"name"`
	Description     string         `yaml:"description"`
	ScoringMethod   string         `yaml:"scoring_method"`
	ScoringConfig   map[string]any `yaml:"scoring_config"`
	CasesFile       string         `yaml:"cases_file"`
	InputColumn     string         `yaml:"input_column"`
	ReferenceColumn string         `yaml:"reference_column"`
	CreatedBy       string         `yaml:"created_by"`
}

const (
	DefaultCasesFile       = "cases.csv"
	DefaultInputColumn     = "input"
	DefaultReferenceColumn = "reference_output"
)

// LoadSuiteDir reads a suite source directory (config.yaml plus a cases CSV)
// into a create request. The scoring method carries only its name and config;
// callers resolve the remaining metadata from the scorer registry.
func LoadSuiteDir(dir string) (*CreateSuiteRequest, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("suite source %q not found: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("suite source %q is not a directory", dir)
	}
	return loadFromFS(os.DirFS(dir), dir)
}

func loadFromFS(fsys fs.FS, name string) (*CreateSuiteRequest, error) {
	configData, err := fs.ReadFile(fsys, "config.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read config.yaml for suite %q: %w", name, err)
	}

	var cfg SuiteConfig
	if err := yaml.Unmarshal(configData, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config.yaml for suite %q: %w", name, err)
	}
	if cfg.Name == "" {
		return nil, fmt.Errorf("config.yaml for suite %q has no name", name)
	}
	if cfg.ScoringMethod == "" {
		return nil, fmt.Errorf("config.yaml for suite %q has no scoring_method", name)
	}
	if cfg.CasesFile == "" {
		cfg.CasesFile = DefaultCasesFile
	}
	if cfg.InputColumn == "" {
		cfg.InputColumn = DefaultInputColumn
	}
	if cfg.ReferenceColumn == "" {
		cfg.ReferenceColumn = DefaultReferenceColumn
	}

	f, err := fsys.Open(cfg.CasesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s for suite %q: %w", cfg.CasesFile, name, err)
	}
	defer f.Close()

	cases, err := LoadCasesCSV(f, cfg.InputColumn, cfg.ReferenceColumn)
	if err != nil {
		return nil, fmt.Errorf("failed to load cases for suite %q: %w", name, err)
	}

	req := &CreateSuiteRequest{
		Name:          cfg.Name,
		ScoringMethod: ScoringMethod{Name: cfg.ScoringMethod, Config: cfg.ScoringConfig},
		TestCases:     cases,
		CreatedBy:     cfg.CreatedBy,
	}
	if cfg.Description != "" {
		req.Description = &cfg.Description
	}
	return req, nil
}

// LoadCasesCSV reads test cases from CSV. The input column is required; the
// reference column is optional and empty cells read as a missing reference.
func LoadCasesCSV(r io.Reader, inputCol, refCol string) ([]TestCaseRequest, error) {
	rows, colIndex, err := readCSV(r, inputCol)
	if err != nil {
		return nil, err
	}
	refIdx, hasRef := colIndex[refCol]

	cases := make([]TestCaseRequest, 0, len(rows))
	for _, record := range rows {
		tc := TestCaseRequest{Input: record[colIndex[inputCol]]}
		if hasRef && refIdx < len(record) && record[refIdx] != "" {
			ref := record[refIdx]
			tc.ReferenceOutput = &ref
		}
		cases = append(cases, tc)
	}
	return cases, nil
}

// LoadOutputsCSV reads candidate outputs, and optional per-row context, from CSV.
func LoadOutputsCSV(r io.Reader, outputCol, contextCol string) (outputs, contexts []string, err error) {
	rows, colIndex, err := readCSV(r, outputCol)
	if err != nil {
		return nil, nil, err
	}
	ctxIdx, hasCtx := colIndex[contextCol]
	for _, record := range rows {
		outputs = append(outputs, record[colIndex[outputCol]])
		if hasCtx && contextCol != "" {
			if ctxIdx < len(record) {
				contexts = append(contexts, record[ctxIdx])
			} else {
				contexts = append(contexts, "")
			}
		}
	}
	return outputs, contexts, nil
}

// readCSV returns the data rows and a header index, checking that every row
// reaches the required column.
func readCSV(r io.Reader, required string) ([][]string, map[string]int, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[strings.TrimSpace(col)] = i
	}
	reqIdx, ok := colIndex[required]
	if !ok {
		return nil, nil, fmt.Errorf("missing required CSV column: %s", required)
	}

	var rows [][]string
	for lineNum := 2; ; lineNum++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read CSV row %d: %w", lineNum, err)
		}
		if len(record) <= reqIdx {
			return nil, nil, fmt.Errorf("CSV row %d has %d columns, expected at least %d", lineNum, len(record), reqIdx+1)
		}
		rows = append(rows, record)
	}
	return rows, colIndex, nil
}

// LoadSuiteRequestJSON decodes a suite request after validating it against
// the suite request schema.
func LoadSuiteRequestJSON(data []byte) (*CreateSuiteRequest, error) {
	if err := validateDocument(suiteRequestSchemaName, data); err != nil {
		return nil, err
	}
	var req CreateSuiteRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, InvalidArgumentf("failed to decode suite request: %v", err)
	}
	return &req, nil
}

// LoadRunRequestJSON decodes a pre-scored run request after validating it
// against the run request schema.
func LoadRunRequestJSON(data []byte) (*CreateRunRequest, error) {
	if err := validateDocument(runRequestSchemaName, data); err != nil {
		return nil, err
	}
	var req CreateRunRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, InvalidArgumentf("failed to decode run request: %v", err)
	}
	return &req, nil
}
