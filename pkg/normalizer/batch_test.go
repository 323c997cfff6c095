package normalizer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/normalizer-go/pkg/ir"
	"github.com/lk2023060901/normalizer-go/pkg/util/merr"
)

func TestNormalizeAll(t *testing.T) {
	n := New(WithConfig(testConfig()))
	defer n.Close()

	values := []any{
		&Tag{Label: "a"},
		3,
		[]any{&Tag{Label: "b"}},
		nil,
	}
	for i := 0; i < 20; i++ {
		values = append(values, &Tag{Label: "x"})
	}

	got, err := n.NormalizeAll(context.Background(), values, "")
	require.NoError(t, err)
	require.Len(t, got, len(values))
	assert.Empty(t, cmp.Diff(ir.Of(p("label", "a")), got[0]))
	assert.Equal(t, 3, got[1])
	assert.Empty(t, cmp.Diff([]any{ir.Of(p("label", "b"))}, got[2]))
	assert.Nil(t, got[3])
	for _, v := range got[4:] {
		assert.Empty(t, cmp.Diff(ir.Of(p("label", "x")), v))
	}
}

func TestNormalizeAllError(t *testing.T) {
	n := New(WithConfig(testConfig()))
	defer n.Close()

	_, err := n.NormalizeAll(context.Background(), []any{&Tag{}, &Vault{}, &Tag{}}, "")
	assert.ErrorIs(t, err, merr.ErrNoAccessor)

	got, err := n.NormalizeAll(context.Background(), nil, "")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNormalizeAllPoolConfig(t *testing.T) {
	cfg := testConfig()
	cfg.BatchWorkers = 2
	cfg.BatchPreAlloc = true
	cfg.BatchIdleTimeout = 50 * time.Millisecond
	n := New(WithConfig(cfg))
	defer n.Close()

	got, err := n.NormalizeAll(context.Background(), []any{&Tag{Label: "a"}, &Tag{Label: "b"}, &Tag{Label: "c"}}, "")
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, 2, n.workerPool().Cap())
}

func TestCloseWhileNormalizing(t *testing.T) {
	n := New(WithConfig(testConfig()))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		// 与 Close 并发时可能因协程池已释放而失败，只要求不发生数据竞争
		_, _ = n.NormalizeAll(context.Background(), []any{&Tag{Label: "a"}}, "")
	}()
	go func() {
		defer wg.Done()
		n.Close()
	}()
	wg.Wait()
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	def := DefaultConfig()
	assert.Equal(t, def.DefaultMaxDepth, cfg.DefaultMaxDepth)
	assert.Equal(t, def.DateFormat, cfg.DateFormat)
	assert.Equal(t, def.TagName, cfg.TagName)
	assert.Equal(t, def.Materialize, cfg.Materialize)

	cfg = Config{DefaultMaxDepth: -1, BatchWorkers: 2}.withDefaults()
	assert.Equal(t, 16, cfg.DefaultMaxDepth)
	assert.Equal(t, 2, cfg.BatchWorkers)
}
