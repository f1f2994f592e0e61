package worker

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPool_RunsEverySubmittedTask(t *testing.T) {
	p := NewPool(3)
	var n int32
	for i := 0; i < 100; i++ {
		p.Submit(func() { atomic.AddInt32(&n, 1) })
	}
	p.Stop()
	assert.Equal(t, int32(100), atomic.LoadInt32(&n))
}

func TestPool_SurvivesPanics(t *testing.T) {
	p := NewPool(1)
	var n int32
	p.Submit(func() { panic("boom") })
	p.Submit(func() { atomic.AddInt32(&n, 1) })
	p.Stop()
	assert.Equal(t, int32(1), n)
}

func TestPool_SubmitAfterStopRunsInline(t *testing.T) {
	p := NewPool(0)
	p.Stop()
	p.Stop()

	ran := false
	p.Submit(func() { ran = true })
	assert.True(t, ran)
}
