package cli

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborline/docsift/internal/core/domain"
)

func TestStatusCmd_Use(t *testing.T) {
	assert.Equal(t, "status", statusCmd.Use)
}

func TestStatusCmd_NoRuns(t *testing.T) {
	setupAppTest(t, &stubPipeline{})

	out, err := execute(t, "status")

	require.NoError(t, err)
	assert.Contains(t, out, "Documents stored: 0")
	assert.Contains(t, out, "No runs recorded yet.")
}

func TestStatusCmd_ShowsHistory(t *testing.T) {
	stub := setupAppTest(t, &stubPipeline{})
	ctx := context.Background()

	require.NoError(t, stub.stateStore.AppendRun(ctx, domain.SyncRunResult{
		ID:         "run-1",
		Started:    time.Now(),
		Status:     domain.RunSuccess,
		ItemsFound: 12,
		Processed:  4,
	}))
	require.NoError(t, stub.stateStore.AppendRun(ctx, domain.SyncRunResult{
		ID:      "run-2",
		Started: time.Now(),
		Status:  domain.RunError,
		Message: "store unreachable",
	}))

	out, err := execute(t, "status")

	require.NoError(t, err)
	assert.Contains(t, out, "Recent runs: 2 (50% successful)")
	assert.Contains(t, out, "store unreachable")
}
