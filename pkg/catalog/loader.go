package catalog

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"pattern-atlas-service/internal/models"
	"pattern-atlas-service/pkg/config"
	"pattern-atlas-service/pkg/errors"
	"pattern-atlas-service/pkg/logging"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// Loader reads pattern records from catalog files using a pool of workers
type Loader struct {
	schema  *SchemaValidator
	workers int
	logger  *logging.StructuredLogger
}

// Option configures a Loader
type Option func(*Loader)

// WithWorkers fixes the number of parse workers. Zero picks a count from the file count.
func WithWorkers(n int) Option {
	return func(l *Loader) {
		l.workers = n
	}
}

// WithLogger attaches a logger for per-file failures
func WithLogger(logger *logging.StructuredLogger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// Result is the outcome of loading one catalog source
type Result struct {
	Source   string                 `json:"source"`
	Files    int                    `json:"files"`
	Records  []models.PatternRecord `json:"-"`
	Errors   []FileError            `json:"errors,omitempty"`
	Duration time.Duration          `json:"duration"`
}

// FileError is a failure to load one catalog file. Other files still load.
type FileError struct {
	Path string `json:"path"`
	Err  error  `json:"-"`
}

func (fe FileError) Error() string {
	return fmt.Sprintf("%s: %v", fe.Path, fe.Err)
}

func (fe FileError) Unwrap() error {
	return fe.Err
}

// ErrorStrings flattens the file errors for logging
func (r *Result) ErrorStrings() []string {
	out := make([]string, 0, len(r.Errors))
	for _, fe := range r.Errors {
		out = append(out, fe.Error())
	}
	return out
}

// NewLoader creates a loader with the embedded pattern schema
func NewLoader(opts ...Option) (*Loader, error) {
	schema, err := NewSchemaValidator()
	if err != nil {
		return nil, err
	}

	l := &Loader{schema: schema}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// LoadBuiltin loads the catalog compiled into the binary
func (l *Loader) LoadBuiltin(ctx context.Context) (*Result, error) {
	sub, err := fs.Sub(builtinFS, "builtin")
	if err != nil {
		return nil, errors.NewSystemError(errors.ErrCodeInitializationFailed,
			"builtin catalog is not embedded", err)
	}
	return l.Load(ctx, sub, config.BuiltinSourceTag)
}

// LoadDir loads every catalog file below dir
func (l *Loader) LoadDir(ctx context.Context, dir string) (*Result, error) {
	if dir == "" {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidParams,
			"catalog directory cannot be empty", nil)
	}

	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, errors.NewFileSystemError(errors.ErrCodeDirectoryNotFound,
			"catalog directory does not exist", err).
			WithContext("path", dir)
	}
	if err != nil {
		return nil, errors.NewFileSystemError(errors.ErrCodeFileSystemUnavailable,
			"failed to stat catalog directory", err).
			WithContext("path", dir)
	}
	if !info.IsDir() {
		return nil, errors.NewFileSystemError(errors.ErrCodeDirectoryNotFound,
			"catalog path is not a directory", nil).
			WithContext("path", dir)
	}

	return l.Load(ctx, os.DirFS(dir), dir)
}

// Load parses every catalog file in fsys concurrently. Records come back
// in file path order, then document order within a file.
func (l *Loader) Load(ctx context.Context, fsys fs.FS, source string) (*Result, error) {
	start := time.Now()

	var files []string
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // reported per file when it cannot be read
		}
		if d.IsDir() || !config.IsCatalogFile(strings.ToLower(path.Ext(p))) {
			return nil
		}
		files = append(files, p)
		return nil
	})
	if err != nil {
		return nil, errors.NewFileSystemError(errors.ErrCodeFileSystemUnavailable,
			"failed to walk catalog", err).
			WithContext("source", source)
	}
	sort.Strings(files)

	result := &Result{
		Source:  source,
		Files:   len(files),
		Records: []models.PatternRecord{},
	}
	if len(files) == 0 {
		result.Duration = time.Since(start)
		return result, nil
	}

	numWorkers := l.workers
	if numWorkers <= 0 {
		numWorkers = calculateOptimalWorkerCount(len(files))
	}

	jobs := make(chan int, len(files))
	results := make([]parseResult, len(files))

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if ctx.Err() != nil {
					results[idx] = parseResult{err: ctx.Err()}
					continue
				}
				records, err := l.parseFile(fsys, files[idx])
				results[idx] = parseResult{records: records, err: err}
			}
		}()
	}

	for idx := range files {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for idx, res := range results {
		if res.err != nil {
			fe := FileError{Path: files[idx], Err: res.err}
			result.Errors = append(result.Errors, fe)
			if l.logger != nil {
				l.logger.WithError(res.err).WithContext("file", files[idx]).Warn("Skipping catalog file")
			}
			continue
		}
		result.Records = append(result.Records, res.records...)
	}

	result.Duration = time.Since(start)
	return result, nil
}

type parseResult struct {
	records []models.PatternRecord
	err     error
}

// ParseFile parses a single catalog file outside of a full load
func (l *Loader) ParseFile(fsys fs.FS, name string) ([]models.PatternRecord, error) {
	return l.parseFile(fsys, name)
}

func (l *Loader) parseFile(fsys fs.FS, name string) ([]models.PatternRecord, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, errors.NewFileSystemError(errors.ErrCodeFileNotFound,
			"failed to read catalog file", err).
			WithContext("file", name)
	}

	if strings.ToLower(path.Ext(name)) == config.JSONExtension {
		record, err := l.decodeJSON(data)
		if err != nil {
			return nil, err
		}
		return []models.PatternRecord{record}, nil
	}
	return l.decodeYAML(data)
}

func (l *Loader) decodeJSON(data []byte) (models.PatternRecord, error) {
	var record models.PatternRecord
	if err := l.schema.ValidateJSON(data); err != nil {
		return record, err
	}
	if err := json.Unmarshal(data, &record); err != nil {
		return record, errors.NewParsingError(errors.ErrCodeEncodingIssue,
			"failed to decode pattern JSON", err)
	}
	return record, nil
}

// decodeYAML reads every document of a YAML stream as one pattern record
func (l *Loader) decodeYAML(data []byte) ([]models.PatternRecord, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	var records []models.PatternRecord

	for doc := 0; ; doc++ {
		var node yaml.Node
		err := decoder.Decode(&node)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.NewParsingError(errors.ErrCodeMalformedYAML,
				"failed to parse YAML", err).
				WithContext("document", doc)
		}

		var generic interface{}
		if err := node.Decode(&generic); err != nil {
			return nil, errors.NewParsingError(errors.ErrCodeMalformedYAML,
				"failed to decode YAML document", err).
				WithContext("document", doc)
		}
		if generic == nil {
			continue // empty document, e.g. a trailing "---"
		}
		if err := l.schema.ValidateDocument(generic); err != nil {
			if se, ok := err.(*errors.StructuredError); ok {
				se.WithContext("document", doc)
			}
			return nil, err
		}

		var record models.PatternRecord
		if err := node.Decode(&record); err != nil {
			return nil, errors.NewParsingError(errors.ErrCodeMalformedYAML,
				"failed to decode pattern record", err).
				WithContext("document", doc)
		}
		records = append(records, record)
	}

	if len(records) == 0 {
		return nil, errors.NewParsingError(errors.ErrCodeMalformedYAML,
			"file contains no pattern documents", nil)
	}
	return records, nil
}

// calculateOptimalWorkerCount picks a worker count from the file count and CPU count
func calculateOptimalWorkerCount(fileCount int) int {
	numCPU := runtime.NumCPU()

	if fileCount <= 10 {
		return min(2, numCPU)
	}
	if fileCount <= 100 {
		return min(4, numCPU)
	}
	return min(numCPU, 8)
}

// Merge combines records from several sources. A later record replaces an
// earlier one with the same id but keeps the earlier position.
func Merge(results ...*Result) []models.PatternRecord {
	position := make(map[string]int)
	merged := []models.PatternRecord{}

	for _, res := range results {
		if res == nil {
			continue
		}
		for _, record := range res.Records {
			if idx, ok := position[record.ID]; ok {
				merged[idx] = record
				continue
			}
			position[record.ID] = len(merged)
			merged = append(merged, record)
		}
	}
	return merged
}
