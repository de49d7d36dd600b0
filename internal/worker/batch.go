package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/themecheck/internal/model"
)

// Validator validates one destination input file
type Validator interface {
	ValidateFile(ctx context.Context, path string) (*model.DestinationReport, error)
}

// DestinationJob represents one destination file to validate
type DestinationJob struct {
	Index     int
	Path      string
	Validator Validator
}

// Execute executes the validation job
func (j *DestinationJob) Execute(ctx context.Context) Result {
	report, err := j.Validator.ValidateFile(ctx, j.Path)
	return &DestinationResult{
		Index:  j.Index,
		Path:   j.Path,
		Report: report,
		Error:  err,
	}
}

// DestinationResult represents the result of a destination job
type DestinationResult struct {
	Index  int
	Path   string
	Report *model.DestinationReport
	Error  error
}

// GetError returns the error from the destination result
func (r *DestinationResult) GetError() error {
	return r.Error
}

// BatchProcessor validates multiple destination files concurrently
type BatchProcessor struct {
	validator   Validator
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(validator Validator, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		validator:   validator,
		concurrency: concurrency,
	}
}

// ProcessPaths validates the given files concurrently. Results are returned
// in input order regardless of completion order.
func (b *BatchProcessor) ProcessPaths(ctx context.Context, paths []string) []*DestinationResult {
	if len(paths) == 0 {
		return []*DestinationResult{}
	}

	pool := NewPoolWithContext(ctx, b.concurrency)
	pool.Start()

	jobs := make([]Job, len(paths))
	for i, path := range paths {
		jobs[i] = &DestinationJob{
			Index:     i,
			Path:      path,
			Validator: b.validator,
		}
	}

	results := make([]*DestinationResult, len(paths))
	for result := range pool.Process(jobs) {
		r := result.(*DestinationResult)
		results[r.Index] = r
	}

	// Jobs dropped by cancellation still get an entry
	for i, r := range results {
		if r == nil {
			results[i] = &DestinationResult{Index: i, Path: paths[i], Error: ctx.Err()}
		}
	}

	return results
}

// ProcessFile reads input paths from a list file and validates them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, listPath string) ([]*DestinationResult, error) {
	paths, err := ReadPathsFromFile(listPath)
	if err != nil {
		return nil, fmt.Errorf("read paths: %w", err)
	}

	return b.ProcessPaths(ctx, paths), nil
}

// ReadPathsFromFile reads input paths from a file (one per line). Relative
// paths are resolved against the list file's directory.
func ReadPathsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	base := filepath.Dir(filePath)

	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !filepath.IsAbs(line) {
			line = filepath.Join(base, line)
		}

		// Deduplicate paths
		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return paths, nil
}
