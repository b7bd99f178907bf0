package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supportagent/config"
	"supportagent/internal/domain"
	"supportagent/internal/logger"
)

type staticLLM struct{}

func (staticLLM) Chat(context.Context, string, []domain.Turn) (string, error) {
	return "Use the Forgot Password link.", nil
}
func (staticLLM) ModelName() string { return "static" }

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	data := filepath.Join(dir, "data")
	require.NoError(t, os.MkdirAll(data, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(data, "faq.txt"),
		[]byte("Reset your password by clicking Forgot Password on the login page."), 0o644))

	cfg := config.DefaultConfig()
	cfg.Index.DataFolder = data
	cfg.Store.Path = filepath.Join(dir, "kb", "index.db")
	cfg.Tickets.Backend = "sqlite"
	cfg.Tickets.Path = filepath.Join(dir, "kb", "tickets.db")
	return cfg
}

func TestContainerEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	c, err := NewContainer(ctx, cfg, logger.NewNopLogger(), WithLLM(staticLLM{}))
	require.NoError(t, err)
	defer c.Close()

	res, err := c.Service.InitializeIndex(ctx, false, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.CollectionSize)

	reply := c.Service.ProcessMessage(ctx, "How do I reset my password?", "chat-1", "TICKET-001")
	assert.Equal(t, "Use the Forgot Password link.", reply.Response)
	require.NotNil(t, reply.Ticket)
	require.Len(t, reply.Sources, 1)
	assert.Equal(t, "faq.txt", reply.Sources[0].Source)

	tickets, err := c.Tickets.List(ctx)
	require.NoError(t, err)
	assert.Len(t, tickets, 3)
}

func TestContainerPersistsIndexAndDetectsConfigChange(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	c, err := NewContainer(ctx, cfg, logger.NewNopLogger(), WithLLM(staticLLM{}))
	require.NoError(t, err)
	_, err = c.Service.InitializeIndex(ctx, false, nil)
	require.NoError(t, err)
	require.NoError(t, c.Close())

	c, err = NewContainer(ctx, cfg, logger.NewNopLogger(), WithLLM(staticLLM{}))
	require.NoError(t, err)
	assert.Equal(t, 1, c.Service.CollectionInfo(ctx).DocumentCount)
	require.NoError(t, c.Close())

	cfg.Index.ChunkSize = 500
	cfg.Index.ChunkOverlap = 50
	c, err = NewContainer(ctx, cfg, logger.NewNopLogger(), WithLLM(staticLLM{}))
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, 0, c.Service.CollectionInfo(ctx).DocumentCount)
}

func TestContainerRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Index.ChunkOverlap = cfg.Index.ChunkSize

	_, err := NewContainer(context.Background(), cfg, logger.NewNopLogger())
	assert.Error(t, err)
}

func TestContainerMemoryBackends(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Backend = "memory"
	cfg.Tickets.Backend = "memory"
	cfg.Retrieve.CacheSize = 0

	c, err := NewContainer(context.Background(), cfg, logger.NewNopLogger(), WithLLM(staticLLM{}))
	require.NoError(t, err)
	defer c.Close()

	_, statErr := os.Stat(cfg.Store.Path)
	assert.True(t, os.IsNotExist(statErr))
	assert.Equal(t, "empty", c.Service.CollectionInfo(context.Background()).Status)
}
