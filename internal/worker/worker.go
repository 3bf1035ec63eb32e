package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/akolanti/ragchat/internal/metrics"
	"github.com/akolanti/ragchat/internal/rag/embedding"
	"github.com/akolanti/ragchat/pkg/logger_i"
)

// Pool embeds ingestion chunks with a bounded number of workers.
// A failed chunk never fails the batch; its slot is left nil.
type Pool struct {
	embedder embedding.Embedder
	size     int
	logger   *logger_i.Logger
}

type task struct {
	index int
	text  string
}

func NewPool(embedder embedding.Embedder, size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{
		embedder: embedder,
		size:     size,
		logger:   logger_i.NewLogger("WorkerPool"),
	}
}

// EmbedAll returns one vector per input text, in input order, and the number of failures.
func (p *Pool) EmbedAll(ctx context.Context, texts []string) ([][]float32, int) {
	results := make([][]float32, len(texts))
	if len(texts) == 0 {
		return results, 0
	}

	tasks := make(chan task)
	var failed int64
	var wg sync.WaitGroup

	workers := min(p.size, len(texts))
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.work(ctx, tasks, results, &failed)
		}()
	}

	go func() {
		defer close(tasks)
		for i, text := range texts {
			select {
			case tasks <- task{index: i, text: text}:
			case <-ctx.Done():
				return
			}
		}
	}()

	wg.Wait()

	// anything not reached before cancellation also counts as failed
	var missing int64
	if ctx.Err() != nil {
		for _, v := range results {
			if v == nil {
				missing++
			}
		}
		return results, int(missing)
	}
	return results, int(atomic.LoadInt64(&failed))
}

func (p *Pool) work(ctx context.Context, tasks <-chan task, results [][]float32, failed *int64) {
	metrics.IncrementActiveWorkerCount()
	defer metrics.DecrementActiveWorkerCount()

	log := p.logger.WithTrace(ctx)
	for t := range tasks {
		start := time.Now()
		vector, err := p.embedder.GetEmbedding(ctx, t.text)
		metrics.CaptureExecutionMetrics("embedding", time.Since(start))
		if err != nil {
			atomic.AddInt64(failed, 1)
			log.Warn("chunk embedding failed, storing without vector", "chunk", t.index, "error", err)
			continue
		}
		results[t.index] = vector
	}
}
