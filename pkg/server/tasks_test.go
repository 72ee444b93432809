package server

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/nicktill/insights/pkg/storage/memory"
)

type fakeCollector struct {
	calls    int
	rewrites int
	err      error
}

func (f *fakeCollector) RunGC(float64) error {
	f.calls++
	if f.calls <= f.rewrites {
		return nil
	}
	if f.err != nil {
		return f.err
	}
	return badgerdb.ErrNoRewrite
}

func TestCollectGarbage_RunsUntilNoRewrite(t *testing.T) {
	fc := &fakeCollector{rewrites: 2}
	collectGarbage(fc, zerolog.Nop())
	assert.Equal(t, 3, fc.calls)
}

func TestCollectGarbage_StopsOnError(t *testing.T) {
	fc := &fakeCollector{err: errors.New("io error")}
	collectGarbage(fc, zerolog.Nop())
	assert.Equal(t, 1, fc.calls)
}

func TestRunBadgerGC_SkipsMemoryStore(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(1)

	done := make(chan struct{})
	go func() {
		RunBadgerGC(context.Background(), memory.New(), time.Millisecond, zerolog.Nop(), &wg)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunBadgerGC did not return for a store without a value log")
	}
	wg.Wait()
}
