package scenario

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type versionedStore struct {
	*memStore
	mu      sync.Mutex
	version string
	err     error
	reads   int
}

func (v *versionedStore) Version(context.Context) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.reads++
	return v.version, v.err
}

func (v *versionedStore) set(version string, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.version, v.err = version, err
}

func (v *versionedStore) readCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.reads
}

func TestWatcherReloadsOnVersionChange(t *testing.T) {
	e := testEngine(t, nil, nil)
	src := &versionedStore{memStore: testStore(t), version: "v1"}
	src.persons = src.persons[:3]
	src.households = src.households[:2]

	w := NewWatcher(e, src, 5*time.Millisecond, discardLogger())
	w.Start(context.Background())
	defer w.Stop()

	assert.Eventually(t, func() bool { return src.readCount() >= 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 7, e.Stats().Persons, "unchanged version must not reload")

	src.set("v2", nil)
	assert.Eventually(t, func() bool { return e.Stats().Persons == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"US", "Ohio"}, e.Geographies())
}

func TestWatcherKeepsSnapshotOnFailure(t *testing.T) {
	e := testEngine(t, nil, nil)
	src := &versionedStore{memStore: testStore(t), version: "v1"}
	src.households = src.households[:1]

	w := NewWatcher(e, src, 5*time.Millisecond, discardLogger())
	w.Start(context.Background())

	src.set("", errors.New("version unavailable"))
	assert.Eventually(t, func() bool { return src.readCount() >= 3 }, time.Second, 5*time.Millisecond)

	src.set("v2", nil)
	n := src.readCount()
	assert.Eventually(t, func() bool { return src.readCount() >= n+3 }, time.Second, 5*time.Millisecond)
	w.Stop()

	assert.Equal(t, 7, e.Stats().Persons)
}

func TestWatcherStopsWithContext(t *testing.T) {
	e := testEngine(t, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	w := NewWatcher(e, testStore(t), time.Hour, discardLogger())
	w.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		w.Stop()
		w.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}
