package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/slabpool/internal/workload"
	"github.com/ajitpratap0/slabpool/pkg/config"
	"github.com/ajitpratap0/slabpool/pkg/json"
)

func TestRunBenchWritesReport(t *testing.T) {
	cfg := config.NewDefault()
	cfg.ThreadPool.Name = "cli_bench"
	cfg.ThreadPool.Workers = 2
	cfg.ThreadPool.RecordsPerPool = 16
	cfg.Logging.Level = "error"
	cfg.Observability.ExportMetrics = true

	var out, errOut bytes.Buffer
	err := runBench(context.Background(), cfg, &benchFlags{producers: 3, tasks: 100}, &out, &errOut)
	require.NoError(t, err)

	// Pool gauges reach the stdout metric exporter before the pool closes.
	assert.Contains(t, errOut.String(), "slabpool.pool.records.capacity")
	assert.Contains(t, errOut.String(), "cli_bench")

	var report workload.Report
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, "cli_bench", report.Pool)
	assert.Equal(t, int64(300), report.Completed)
	require.NotNil(t, report.Resources)
	assert.Positive(t, report.Resources.GoroutineCount)
}

func TestConfigInitThenShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slabpool.yaml")

	cmd := newConfigCmd()
	cmd.SetArgs([]string{"init", "--output", path})
	require.NoError(t, cmd.Execute())

	var out bytes.Buffer
	cmd = newConfigCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"show", "--config", path})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "records_per_pool: 1024")
}

func TestApplyBenchFlagsOnlyOverridesChanged(t *testing.T) {
	cmd := newBenchCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--workers", "3"}))

	cfg := config.NewDefault()
	cfg.Memory.LimitBytes = 4096
	f := &benchFlags{workers: 3}
	applyBenchFlags(cmd, cfg, f)

	assert.Equal(t, 3, cfg.ThreadPool.Workers)
	assert.Equal(t, int64(4096), cfg.Memory.LimitBytes)
	assert.False(t, cfg.Observability.ExportMetrics)
}
