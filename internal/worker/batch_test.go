package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/themecheck/internal/model"
)

// mockValidator implements Validator
type mockValidator struct {
	failPaths map[string]bool
	calls     int32
}

func (m *mockValidator) ValidateFile(ctx context.Context, path string) (*model.DestinationReport, error) {
	atomic.AddInt32(&m.calls, 1)
	time.Sleep(5 * time.Millisecond) // Simulate work
	if m.failPaths[path] {
		return nil, errors.New("validation error")
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return &model.DestinationReport{DestinationName: name}, nil
}

func TestBatchProcessor_ProcessPaths(t *testing.T) {
	validator := &mockValidator{}
	processor := NewBatchProcessor(validator, 2)

	paths := []string{"paris.json", "kyoto.yaml", "lima.json", "oslo.json", "cusco.yml"}
	results := processor.ProcessPaths(context.Background(), paths)

	require.Len(t, results, len(paths))
	for i, res := range results {
		require.NoError(t, res.Error)
		assert.Equal(t, paths[i], res.Path, "results keep input order")
		require.NotNil(t, res.Report)
	}
	assert.Equal(t, "paris", results[0].Report.DestinationName)
	assert.Equal(t, int32(len(paths)), atomic.LoadInt32(&validator.calls))
}

func TestBatchProcessor_ProcessPaths_Error(t *testing.T) {
	validator := &mockValidator{failPaths: map[string]bool{"bad.json": true}}
	processor := NewBatchProcessor(validator, 2)

	results := processor.ProcessPaths(context.Background(), []string{"good.json", "bad.json"})

	require.Len(t, results, 2)
	assert.NoError(t, results[0].Error)
	assert.Error(t, results[1].Error)
	assert.Nil(t, results[1].Report)
}

func TestBatchProcessor_ProcessPaths_Empty(t *testing.T) {
	processor := NewBatchProcessor(&mockValidator{}, 2)
	assert.Empty(t, processor.ProcessPaths(context.Background(), nil))
}

func TestBatchProcessor_ProcessPaths_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	processor := NewBatchProcessor(&mockValidator{}, 1)
	results := processor.ProcessPaths(ctx, []string{"a.json", "b.json", "c.json"})

	require.Len(t, results, 3)
	for _, res := range results {
		assert.NotNil(t, res)
	}
}

func TestReadPathsFromFile(t *testing.T) {
	dir := t.TempDir()
	list := filepath.Join(dir, "destinations.txt")

	content := `# destinations for the spring batch
paris.json

kyoto.yaml
paris.json
/abs/lima.json
`
	require.NoError(t, os.WriteFile(list, []byte(content), 0644))

	paths, err := ReadPathsFromFile(list)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "paris.json"),
		filepath.Join(dir, "kyoto.yaml"),
		"/abs/lima.json",
	}, paths)
}

func TestBatchProcessor_ProcessFile(t *testing.T) {
	dir := t.TempDir()
	list := filepath.Join(dir, "list.txt")
	require.NoError(t, os.WriteFile(list, []byte("a.json\nb.json\n"), 0644))

	results, err := NewBatchProcessor(&mockValidator{}, 2).ProcessFile(context.Background(), list)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	_, err = NewBatchProcessor(&mockValidator{}, 2).ProcessFile(context.Background(), filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}
