package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mattsp1290/hystrix-go/pkg/config"
	"github.com/mattsp1290/hystrix-go/pkg/rolling"
)

type countingNotifier struct {
	mu     sync.Mutex
	events int
	execs  int
}

func (c *countingNotifier) MarkEvent(rolling.Kind, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events++
}

func (c *countingNotifier) MarkCommandExecution(string, config.IsolationStrategy, time.Duration, []rolling.Kind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.execs++
}

func TestMultiEventNotifierFansOutToEveryChild(t *testing.T) {
	a := &countingNotifier{}
	b := &countingNotifier{}
	multi := NewMultiEventNotifier(a, b)

	multi.MarkEvent(rolling.Success, "cmd")
	multi.MarkCommandExecution("cmd", config.IsolationThread, time.Millisecond, []rolling.Kind{rolling.Success})

	assert.Eventually(t, func() bool {
		a.mu.Lock()
		b.mu.Lock()
		defer a.mu.Unlock()
		defer b.mu.Unlock()
		return a.events == 1 && a.execs == 1 && b.events == 1 && b.execs == 1
	}, time.Second, time.Millisecond)
}

func TestNoopEventNotifierDoesNothing(t *testing.T) {
	var n NoopEventNotifier
	n.MarkEvent(rolling.Success, "cmd")
	n.MarkCommandExecution("cmd", config.IsolationThread, time.Millisecond, nil)
}
