package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// Suite provides a context and a scratch directory to testify suites.
type Suite struct {
	suite.Suite
	ctx       context.Context
	cancel    context.CancelFunc
	tempDir   string
	startTime time.Time
}

// SetupSuite runs before all tests in the suite
func (s *Suite) SetupSuite() {
	s.ctx, s.cancel = context.WithTimeout(context.Background(), 5*time.Minute)
	s.startTime = time.Now()
	s.tempDir = s.T().TempDir()
}

// TearDownSuite runs after all tests in the suite
func (s *Suite) TearDownSuite() {
	s.cancel()
	s.T().Logf("suite completed in %v", time.Since(s.startTime))
}

// Context returns the suite context
func (s *Suite) Context() context.Context {
	return s.ctx
}

// TempDir returns the scratch directory
func (s *Suite) TempDir() string {
	return s.tempDir
}

// WriteFile creates a file named name in the scratch directory.
func (s *Suite) WriteFile(name string, content []byte) string {
	path := filepath.Join(s.tempDir, name)
	require.NoError(s.T(), os.WriteFile(path, content, 0o644))
	return path
}

// LongTest skips t in short mode.
func LongTest(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping long test in short mode")
	}
}

// PerformanceTest checks a workload against throughput and memory targets.
type PerformanceTest struct {
	t         *testing.T
	name      string
	threshold struct {
		minThroughput float64 // tasks/sec
		maxMemory     int64   // bytes
	}
}

// NewPerformanceTest creates a new performance test
func NewPerformanceTest(t *testing.T, name string) *PerformanceTest {
	return &PerformanceTest{t: t, name: name}
}

// WithThroughputTarget sets the minimum tasks per second.
func (p *PerformanceTest) WithThroughputTarget(tasksPerSec float64) *PerformanceTest {
	p.threshold.minThroughput = tasksPerSec
	return p
}

// WithMemoryTarget sets maximum heap growth in bytes.
func (p *PerformanceTest) WithMemoryTarget(maxBytes int64) *PerformanceTest {
	p.threshold.maxMemory = maxBytes
	return p
}

// Run executes fn and checks its results against the configured targets.
func (p *PerformanceTest) Run(fn func() (tasks int64, duration time.Duration)) {
	p.t.Helper()

	initial := CaptureMemoryProfile()
	tasks, duration := fn()
	final := CaptureMemoryProfile()

	if tasks == 0 || duration <= 0 {
		p.t.Fatalf("%s: workload reported %d tasks in %v", p.name, tasks, duration)
	}

	throughput := float64(tasks) / duration.Seconds()
	memoryUsed := int64(final.HeapAlloc) - int64(initial.HeapAlloc)

	p.t.Logf("Performance Test: %s", p.name)
	p.t.Logf("  Tasks: %d", tasks)
	p.t.Logf("  Duration: %v", duration)
	p.t.Logf("  Throughput: %.0f tasks/sec", throughput)
	p.t.Logf("  Heap Growth: %s", FormatBytes(memoryUsed))

	if p.threshold.minThroughput > 0 && throughput < p.threshold.minThroughput {
		p.t.Errorf("throughput %.0f tasks/sec below target %.0f tasks/sec",
			throughput, p.threshold.minThroughput)
	}
	if p.threshold.maxMemory > 0 && memoryUsed > p.threshold.maxMemory {
		p.t.Errorf("heap growth %s exceeds target %s",
			FormatBytes(memoryUsed), FormatBytes(p.threshold.maxMemory))
	}
}

// MemoryProfile captures memory statistics
type MemoryProfile struct {
	HeapAlloc uint64
	Mallocs   uint64
	Frees     uint64
}

// CaptureMemoryProfile captures current memory profile
func CaptureMemoryProfile() *MemoryProfile {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return &MemoryProfile{
		HeapAlloc: m.HeapAlloc,
		Mallocs:   m.Mallocs,
		Frees:     m.Frees,
	}
}

// FormatBytes formats bytes into a human-readable string.
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < 0 {
		return "-" + FormatBytes(-bytes)
	}
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
