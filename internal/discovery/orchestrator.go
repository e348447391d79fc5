// Package discovery fans a search out across every registered provider,
// waits for all of them to settle, and merges their outcomes into one
// deduplicated result set.
package discovery

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/Adebesin-Cell/dmt-adk-estate/internal/domain"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/provider"
)

// Policy bounds a single orchestrated run. MaxRetries counts attempts after
// the first, so 1 means at most two calls into a failing adapter.
type Policy struct {
	AdapterTimeout time.Duration
	MaxRetries     uint64
	InitialBackoff time.Duration
}

// DefaultPolicy gives each adapter 20 seconds and one retry on transport
// failures.
func DefaultPolicy() Policy {
	return Policy{
		AdapterTimeout: 20 * time.Second,
		MaxRetries:     1,
		InitialBackoff: 500 * time.Millisecond,
	}
}

// Orchestrator runs providers concurrently under a shared policy. Provider
// order is fixed at construction and decides precedence during merging.
type Orchestrator struct {
	providers []provider.Provider
	policy    Policy
}

// NewOrchestrator creates an orchestrator over the given providers.
func NewOrchestrator(policy Policy, providers ...provider.Provider) *Orchestrator {
	return &Orchestrator{providers: providers, policy: policy}
}

// Run executes every provider concurrently and returns one outcome per
// provider, in registration order. It always waits for all of them: a slow
// or failing adapter never hides results from the others.
func (o *Orchestrator) Run(ctx context.Context, query domain.SearchQuery, paging domain.PagingRequest) []provider.Outcome {
	outcomes := make([]provider.Outcome, len(o.providers))

	var wg sync.WaitGroup
	for i, p := range o.providers {
		wg.Add(1)
		go func(i int, p provider.Provider) {
			defer wg.Done()
			outcomes[i] = o.invoke(ctx, p, query, paging)
		}(i, p)
	}
	wg.Wait()

	return outcomes
}

// invoke calls one adapter with the policy's timeout and retries transport
// failures only. Parse failures and empty results are final on the first
// attempt.
func (o *Orchestrator) invoke(ctx context.Context, p provider.Provider, query domain.SearchQuery, paging domain.PagingRequest) provider.Outcome {
	var outcome provider.Outcome

	operation := func() error {
		outcome = o.searchOnce(ctx, p, query, paging)
		if outcome.Status != provider.StatusFailed {
			return nil
		}
		if provider.IsRetryable(outcome.Err) {
			log.Printf("provider %s failed, will retry: %v", p.Source(), outcome.Err)
			return outcome.Err
		}
		return backoff.Permanent(outcome.Err)
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = o.policy.InitialBackoff
	retry := backoff.WithContext(backoff.WithMaxRetries(expo, o.policy.MaxRetries), ctx)

	if err := backoff.Retry(operation, retry); err != nil && outcome.Status != provider.StatusFailed {
		// Context cancelled between attempts; the adapter never produced
		// a terminal outcome for this attempt.
		outcome = provider.Failed(p.Source(), err)
	}
	return outcome
}

// searchOnce runs a single attempt under the adapter timeout. A panicking
// adapter is converted into a failed outcome so one bad provider cannot take
// down the run.
func (o *Orchestrator) searchOnce(ctx context.Context, p provider.Provider, query domain.SearchQuery, paging domain.PagingRequest) (outcome provider.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("provider %s panicked: %v", p.Source(), r)
			outcome = provider.Failed(p.Source(), fmt.Errorf("provider %s panicked: %v", p.Source(), r))
		}
	}()

	if o.policy.AdapterTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.policy.AdapterTimeout)
		defer cancel()
	}
	return p.Search(ctx, query, paging)
}
