package support

import (
	"context"
	"sync"

	"github.com/imrishuroy/shopify-support-api/internal/shopify"
)

type fakeOrders struct {
	order   *shopify.Order
	err     error
	queries []shopify.Query
}

func (f *fakeOrders) FindOrder(ctx context.Context, q shopify.Query) (*shopify.Order, error) {
	f.queries = append(f.queries, q)
	return f.order, f.err
}

type fakeTracking struct {
	line  string
	calls []string
}

func (f *fakeTracking) Describe(ctx context.Context, n string) string {
	f.calls = append(f.calls, n)
	return f.line
}

type fakeCompleter struct {
	text   string
	err    error
	system string
	prompt string
}

func (f *fakeCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	f.system, f.prompt = system, prompt
	return f.text, f.err
}

type countingRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{counts: map[string]int{}}
}

func (r *countingRecorder) Count(ctx context.Context, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[name]++
}
