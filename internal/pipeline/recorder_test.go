package pipeline

import (
	"sync"
	"time"

	"git.home.luguber.info/inful/docworker/internal/metrics"
)

type countingRecorder struct {
	mu       sync.Mutex
	stages   map[string]map[metrics.ResultLabel]int
	outcomes map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{stages: map[string]map[metrics.ResultLabel]int{}, outcomes: map[string]int{}}
}

func (c *countingRecorder) ObserveStageDuration(string, time.Duration) {}
func (c *countingRecorder) ObservePipelineDuration(time.Duration)      {}
func (c *countingRecorder) IncValidationFailure(string)                {}

func (c *countingRecorder) IncStageResult(stage string, result metrics.ResultLabel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stages[stage] == nil {
		c.stages[stage] = map[metrics.ResultLabel]int{}
	}
	c.stages[stage][result]++
}

func (c *countingRecorder) IncPipelineOutcome(outcome string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes[outcome]++
}
