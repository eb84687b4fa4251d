package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListIgnoresStaleCommit(t *testing.T) {
	var l List[string]

	slow := l.Begin()
	fast := l.Begin()

	require.True(t, l.Commit(fast, []string{"new"}))
	assert.False(t, l.Commit(slow, []string{"old"}))

	items, loaded := l.Snapshot()
	assert.True(t, loaded)
	assert.Equal(t, []string{"new"}, items)
}

func TestListLocalWritesSupersedeInflightFetch(t *testing.T) {
	var l List[string]
	require.True(t, l.Commit(l.Begin(), []string{"a"}))

	stale := l.Begin()
	l.Append("b")
	assert.False(t, l.Commit(stale, []string{"a"}))

	stale = l.Begin()
	require.True(t, l.Replace(func(s string) bool { return s == "a" }, "a2"))
	assert.False(t, l.Commit(stale, []string{"a"}))

	items, _ := l.Snapshot()
	assert.Equal(t, []string{"a2", "b"}, items)

	// a fetch begun after the writes still lands
	require.True(t, l.Commit(l.Begin(), []string{"a2", "b", "c"}))
	items, _ = l.Snapshot()
	assert.Equal(t, []string{"a2", "b", "c"}, items)
}

func TestListMutations(t *testing.T) {
	var l List[int]
	_, loaded := l.Snapshot()
	assert.False(t, loaded)

	l.Commit(l.Begin(), []int{1, 2, 3})
	l.Append(4)
	assert.True(t, l.Replace(func(i int) bool { return i == 2 }, 20))
	assert.False(t, l.Replace(func(i int) bool { return i == 99 }, 0))

	items, _ := l.Snapshot()
	assert.Equal(t, []int{1, 20, 3, 4}, items)

	found, ok := l.Find(func(i int) bool { return i > 10 })
	assert.True(t, ok)
	assert.Equal(t, 20, found)

	items[0] = 100
	again, _ := l.Snapshot()
	assert.Equal(t, 1, again[0])
}

func TestValue(t *testing.T) {
	var v Value[string]
	_, ok := v.Get()
	assert.False(t, ok)

	v.Set("profile")
	got, ok := v.Get()
	assert.True(t, ok)
	assert.Equal(t, "profile", got)
}

func TestRegistry(t *testing.T) {
	type session struct{ names List[string] }
	created := 0
	r := NewRegistry(time.Hour, func() *session { created++; return &session{} })

	a := r.Get("7")
	b := r.Get("7")
	assert.Same(t, a, b)
	assert.Equal(t, 1, created)

	_, ok := r.Peek("8")
	assert.False(t, ok)

	r.Drop("7")
	_, ok = r.Peek("7")
	assert.False(t, ok)
	assert.NotSame(t, a, r.Get("7"))
	assert.Equal(t, 2, created)
}
