package embedding

import (
	"context"
	"sync"

	"github.com/gammazero/workerpool"
)

// BatchProcessor embeds large text sets by running grouped requests
// concurrently while preserving input order.
type BatchProcessor struct {
	client      Client
	groupSize   int
	concurrency int
}

// NewBatchProcessor creates a processor over the given client.
// groupSize controls texts per request, concurrency controls
// parallel requests.
func NewBatchProcessor(client Client, groupSize, concurrency int) *BatchProcessor {
	if groupSize <= 0 {
		groupSize = 16
	}
	if concurrency <= 0 {
		concurrency = 4
	}
	return &BatchProcessor{
		client:      client,
		groupSize:   groupSize,
		concurrency: concurrency,
	}
}

// Process embeds all texts and returns one vector per text, in order.
// The first error cancels remaining work.
func (p *BatchProcessor) Process(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type group struct {
		start int
		texts []string
	}
	groups := make([]group, 0, (len(texts)+p.groupSize-1)/p.groupSize)
	for start := 0; start < len(texts); start += p.groupSize {
		end := start + p.groupSize
		if end > len(texts) {
			end = len(texts)
		}
		groups = append(groups, group{start: start, texts: texts[start:end]})
	}

	result := make([][]float32, len(texts))
	var mu sync.Mutex
	var firstErr error

	pool := workerpool.New(p.concurrency)
	for _, g := range groups {
		g := g
		pool.Submit(func() {
			if ctx.Err() != nil {
				return
			}
			vectors, err := p.client.EmbedBatch(ctx, g.texts)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				cancel()
				return
			}
			mu.Lock()
			copy(result[g.start:], vectors)
			mu.Unlock()
		})
	}
	pool.StopWait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
