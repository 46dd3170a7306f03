package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/phambaophuc/imgbatch/internal/config"
	"github.com/phambaophuc/imgbatch/internal/models"
	"github.com/phambaophuc/imgbatch/internal/services/processor"
	"github.com/phambaophuc/imgbatch/internal/services/scanner"
	"github.com/phambaophuc/imgbatch/internal/services/storage"
	"github.com/phambaophuc/imgbatch/internal/testutil"
	"github.com/phambaophuc/imgbatch/pkg/utils"
)

func feed(items []models.SourceItem) <-chan models.SourceItem {
	ch := make(chan models.SourceItem)
	go func() {
		defer close(ch)
		for _, item := range items {
			ch <- item
		}
	}()
	return ch
}

func makeItems(n int) []models.SourceItem {
	items := make([]models.SourceItem, n)
	for i := range items {
		items[i] = sourceItem("/src", fmt.Sprintf("img-%04d.png", i))
	}
	return items
}

func TestOrchestrator_OneOutcomePerItem(t *testing.T) {
	for _, n := range []int{1, 1000} {
		t.Run(fmt.Sprintf("%d items", n), func(t *testing.T) {
			items := makeItems(n)
			var observed atomic.Int32
			p := NewPipeline(&fakeConverter{}, &fakeUploader{}, Options{}, zaptest.NewLogger(t))
			o := NewOrchestrator(p, ObserverFunc(func(models.ItemOutcome) { observed.Add(1) }), 8, zaptest.NewLogger(t))

			outcomes := o.Run(context.Background(), feed(items))

			require.Len(t, outcomes, n)
			assert.EqualValues(t, n, observed.Load())

			byKey := make(map[string]string, n)
			for _, outcome := range outcomes {
				require.True(t, outcome.Succeeded())
				_, dup := byKey[outcome.Key]
				require.False(t, dup, "duplicate key %s", outcome.Key)
				byKey[outcome.Key] = outcome.Item.Path
				assert.Equal(t, utils.ReplaceExt(filepath.Base(outcome.Item.Path), models.FormatWebP), outcome.Key)
			}
		})
	}
}

type gatedProcessor struct {
	inFlight atomic.Int32
	peak     atomic.Int32
	delay    time.Duration
}

func (p *gatedProcessor) Process(_ context.Context, item models.SourceItem) models.ItemOutcome {
	n := p.inFlight.Add(1)
	for {
		peak := p.peak.Load()
		if n <= peak || p.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	time.Sleep(p.delay)
	p.inFlight.Add(-1)
	return models.Success(item, filepath.Base(item.Path), nil, nil)
}

func TestOrchestrator_BoundedWorkers(t *testing.T) {
	proc := &gatedProcessor{delay: 5 * time.Millisecond}
	o := NewOrchestrator(proc, nil, 3, zaptest.NewLogger(t))

	outcomes := o.Run(context.Background(), feed(makeItems(30)))

	assert.Len(t, outcomes, 30)
	assert.LessOrEqual(t, proc.peak.Load(), int32(3))
	assert.Positive(t, proc.peak.Load())
}

// barrierProcessor only lets units finish once n of them are running at the
// same time, which can only happen without a concurrency cap.
type barrierProcessor struct {
	n       int32
	running atomic.Int32
	all     chan struct{}
	once    sync.Once
}

func (p *barrierProcessor) Process(_ context.Context, item models.SourceItem) models.ItemOutcome {
	if p.running.Add(1) == p.n {
		p.once.Do(func() { close(p.all) })
	}
	select {
	case <-p.all:
		return models.Success(item, filepath.Base(item.Path), nil, nil)
	case <-time.After(5 * time.Second):
		return models.Failure(item, fmt.Errorf("timed out waiting for peers"))
	}
}

func TestOrchestrator_UnboundedFanOut(t *testing.T) {
	proc := &barrierProcessor{n: 64, all: make(chan struct{})}
	o := NewOrchestrator(proc, nil, 0, zaptest.NewLogger(t))

	outcomes := o.Run(context.Background(), feed(makeItems(64)))

	require.Len(t, outcomes, 64)
	for _, outcome := range outcomes {
		assert.True(t, outcome.Succeeded())
	}
}

func TestOrchestrator_ObserverSeesOutcomesBeforeRunReturns(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	p := NewPipeline(&fakeConverter{}, &fakeUploader{}, Options{}, zaptest.NewLogger(t))
	o := NewOrchestrator(p, ObserverFunc(func(outcome models.ItemOutcome) {
		mu.Lock()
		seen = append(seen, outcome.Key)
		mu.Unlock()
	}), 2, zaptest.NewLogger(t))

	outcomes := o.Run(context.Background(), feed(makeItems(10)))

	mu.Lock()
	defer mu.Unlock()
	keys := make([]string, 0, len(outcomes))
	for _, outcome := range outcomes {
		keys = append(keys, outcome.Key)
	}
	assert.Equal(t, keys, seen)
}

func TestOrchestrator_CancelledItemsStillReported(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPipeline(&fakeConverter{}, &fakeUploader{}, Options{}, zaptest.NewLogger(t))
	outcomes := NewOrchestrator(p, nil, 4, zaptest.NewLogger(t)).Run(ctx, feed(makeItems(20)))

	require.Len(t, outcomes, 20)
	for _, outcome := range outcomes {
		assert.Equal(t, models.StageCancelled, outcome.Stage)
	}
}

// newRealPipeline wires the real converter and uploader against a mock store.
func newRealPipeline(t *testing.T, store *testutil.MockStore) *Pipeline {
	logger := zaptest.NewLogger(t)
	return NewPipeline(
		processor.NewImageProcessor(processor.Options{}),
		storage.NewUploader(store, "images", nil, logger),
		Options{KeyFunc: NewKeyFunc(config.KeyModeFlat, "")},
		logger,
	)
}

func TestEndToEnd_MixedTree(t *testing.T) {
	root := t.TempDir()
	testutil.WritePNG(t, filepath.Join(root, "a.png"), 1, 1)
	testutil.WriteRaw(t, filepath.Join(root, "b.txt"), []byte("not an image"))
	testutil.WriteJPEG(t, filepath.Join(root, "c.jpg"), 1, 1)
	testutil.WriteRaw(t, filepath.Join(root, "d.png"), nil)

	logger := zaptest.NewLogger(t)
	store := &testutil.MockStore{}
	items := scanner.NewScanner(config.DefaultExtensions, logger).Scan(context.Background(), root)

	outcomes := NewOrchestrator(newRealPipeline(t, store), nil, 4, logger).Run(context.Background(), items)
	require.Len(t, outcomes, 3)

	results := make(map[string]models.ItemOutcome, len(outcomes))
	for _, outcome := range outcomes {
		results[filepath.Base(outcome.Item.Path)] = outcome
	}
	require.Contains(t, results, "a.png")
	require.Contains(t, results, "c.jpg")
	require.Contains(t, results, "d.png")
	assert.NotContains(t, results, "b.txt")

	assert.True(t, results["a.png"].Succeeded())
	assert.Equal(t, "a.webp", results["a.png"].Key)
	assert.True(t, results["c.jpg"].Succeeded())
	assert.Equal(t, "c.webp", results["c.jpg"].Key)
	assert.Equal(t, models.StageDecode, results["d.png"].Stage)

	keys := store.Keys()
	sort.Strings(keys)
	assert.Equal(t, []string{"a.webp", "c.webp"}, keys, "no upload for the undecodable file")
	for _, call := range store.Calls() {
		assert.Equal(t, "image/webp", call.ContentType)
	}
}

func TestEndToEnd_CorruptedSubsetAndRerun(t *testing.T) {
	root := t.TempDir()
	const valid, corrupt = 6, 3
	for i := 0; i < valid; i++ {
		testutil.WritePNG(t, filepath.Join(root, fmt.Sprintf("sub%d", i%2), fmt.Sprintf("ok-%d.png", i)), 3, 3)
	}
	for i := 0; i < corrupt; i++ {
		testutil.WriteRaw(t, filepath.Join(root, fmt.Sprintf("bad-%d.jpg", i)), []byte("garbage"))
	}

	classify := func() map[string]bool {
		logger := zaptest.NewLogger(t)
		items := scanner.NewScanner(config.DefaultExtensions, logger).Scan(context.Background(), root)
		outcomes := NewOrchestrator(newRealPipeline(t, &testutil.MockStore{}), nil, 0, logger).Run(context.Background(), items)

		result := make(map[string]bool, len(outcomes))
		for _, outcome := range outcomes {
			result[outcome.Item.Path] = outcome.Succeeded()
		}
		return result
	}

	first := classify()
	second := classify()

	succeeded := 0
	for _, ok := range first {
		if ok {
			succeeded++
		}
	}
	assert.Len(t, first, valid+corrupt)
	assert.Equal(t, valid, succeeded)
	assert.Equal(t, first, second)
}
