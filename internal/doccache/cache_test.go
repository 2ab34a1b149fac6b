package doccache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jcdickinson/docview/internal/model"
)

func classes(names ...string) []*model.ClassRecord {
	out := make([]*model.ClassRecord, len(names))
	for i, n := range names {
		out[i] = &model.ClassRecord{Name: n}
	}
	return out
}

func staticSource(names ...string) Source {
	return SourceFunc(func(ctx context.Context) ([]*model.ClassRecord, []model.ClassFailure, error) {
		return classes(names...), nil, nil
	})
}

func TestGenerate_ConcurrentCallersShareOneBuild(t *testing.T) {
	t.Parallel()
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	src := SourceFunc(func(ctx context.Context) ([]*model.ClassRecord, []model.ClassFailure, error) {
		once.Do(func() { close(started) })
		<-release
		return classes("Node", "Sprite"), nil, nil
	})
	c := New(src)

	const callers = 16
	results := make([]*model.Snapshot, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			snap, err := c.Generate()
			if err != nil {
				t.Errorf("Generate: %v", err)
			}
			results[i] = snap
		}(i)
	}

	<-started
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := c.Builds(); got != 1 {
		t.Fatalf("builds = %d, want 1", got)
	}
	for i, snap := range results {
		if snap == nil || snap != results[0] {
			t.Fatalf("caller %d got a different snapshot", i)
		}
	}
}

func TestGenerate_NoOpWhenPresent(t *testing.T) {
	t.Parallel()
	c := New(staticSource("Node"))
	first, err := c.Generate()
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.Get()
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("expected the same snapshot")
	}
	if c.Builds() != 1 {
		t.Errorf("builds = %d, want 1", c.Builds())
	}
}

func TestGet_FatalIsNotCached(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	boom := errors.New("no docs")
	src := SourceFunc(func(ctx context.Context) ([]*model.ClassRecord, []model.ClassFailure, error) {
		if calls.Add(1) == 1 {
			return nil, nil, boom
		}
		return classes("Node"), nil, nil
	})
	c := New(src)

	snap, err := c.Get()
	if !errors.Is(err, ErrBuildFatal) || !errors.Is(err, boom) {
		t.Fatalf("expected fatal error wrapping cause, got %v", err)
	}
	if snap != nil || c.Peek() != nil {
		t.Fatal("fatal build must leave the cache empty")
	}

	snap, err = c.Get()
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if !snap.Has("Node") {
		t.Error("retry snapshot missing Node")
	}
	if c.Builds() != 2 {
		t.Errorf("builds = %d, want 2", c.Builds())
	}
}

func TestGenerate_PartialFailure(t *testing.T) {
	t.Parallel()
	src := SourceFunc(func(ctx context.Context) ([]*model.ClassRecord, []model.ClassFailure, error) {
		return classes("Node"), []model.ClassFailure{{Name: "Broken", Err: errors.New("bad json")}}, nil
	})
	c := New(src)

	snap, err := c.Generate()
	var partial *PartialError
	if !errors.As(err, &partial) {
		t.Fatalf("expected PartialError, got %v", err)
	}
	if len(partial.Failures) != 1 || partial.Failures[0].Name != "Broken" {
		t.Errorf("failures = %v", partial.Failures)
	}
	if snap == nil || !snap.Has("Node") {
		t.Fatal("partial build must still produce a usable snapshot")
	}
	if len(snap.Diagnostics) != 1 {
		t.Errorf("diagnostics = %v", snap.Diagnostics)
	}

	again, err := c.Get()
	if err != nil || again != snap {
		t.Errorf("later Get = %v, %v; want cached snapshot", again, err)
	}
}

func TestInvalidate_Rebuilds(t *testing.T) {
	t.Parallel()
	c := New(staticSource("Node"))
	first, err := c.Generate()
	if err != nil {
		t.Fatal(err)
	}
	c.Invalidate()
	if c.Peek() != nil {
		t.Fatal("Peek after Invalidate should be nil")
	}
	second, err := c.Get()
	if err != nil {
		t.Fatal(err)
	}
	if second == first {
		t.Fatal("expected a fresh snapshot")
	}
	if second.Version <= first.Version {
		t.Errorf("version %d not after %d", second.Version, first.Version)
	}
	if c.Builds() != 2 {
		t.Errorf("builds = %d, want 2", c.Builds())
	}
}

func TestInvalidate_DuringBuildDiscardsResult(t *testing.T) {
	t.Parallel()
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	var calls atomic.Int32
	src := SourceFunc(func(ctx context.Context) ([]*model.ClassRecord, []model.ClassFailure, error) {
		if calls.Add(1) == 1 {
			started <- struct{}{}
			<-release
		}
		return classes("Node"), nil, nil
	})
	c := New(src)

	done := make(chan *model.Snapshot)
	go func() {
		snap, _ := c.Generate()
		done <- snap
	}()
	<-started
	c.Invalidate()
	close(release)

	stale := <-done
	if stale == nil {
		t.Fatal("waiter of the in-flight build should still get its result")
	}
	if c.Peek() != nil {
		t.Fatal("result of an invalidated build must not be installed")
	}

	fresh, err := c.Get()
	if err != nil {
		t.Fatal(err)
	}
	if fresh == stale {
		t.Error("expected a rebuild after invalidation")
	}
}

func TestStart_BuildsInBackground(t *testing.T) {
	t.Parallel()
	c := New(staticSource("Node"))
	c.Start()
	snap, err := c.Get()
	if err != nil {
		t.Fatal(err)
	}
	if !snap.Has("Node") {
		t.Error("missing Node")
	}
	if c.Builds() != 1 {
		t.Errorf("builds = %d, want 1", c.Builds())
	}
}
