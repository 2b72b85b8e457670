package datasource

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/pharmadex/errors"
)

type closeCounter struct {
	*Memory
	closed int
	err    error
}

func (c *closeCounter) Close() error {
	c.closed++
	return c.err
}

func memoryConstructor(string) (DataSource, error) {
	return NewMemory(), nil
}

func newTestFactory(t *testing.T) *Factory {
	t.Helper()
	f := NewFactory(zaptest.NewLogger(t).Sugar())
	require.True(t, f.RegisterType(TypeMemory, memoryConstructor).Success)
	return f
}

func TestFactoryCreateUnregisteredTypeReportsError(t *testing.T) {
	f := newTestFactory(t)

	res := f.CreateDataSource("unregistered-type", "")
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "not registered")
	assert.Nil(t, res.DataSource)

	ds, key := f.Active()
	assert.Nil(t, ds)
	assert.Empty(t, key)
}

func TestFactoryRegisterTypeTwiceFails(t *testing.T) {
	f := newTestFactory(t)

	res := f.RegisterType(TypeMemory, memoryConstructor)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "already registered")

	assert.False(t, f.RegisterType("", memoryConstructor).Success)
	assert.False(t, f.RegisterType("x", nil).Success)
	assert.Equal(t, []string{TypeMemory}, f.Types())
}

func TestFactoryCachesInstancesByCompositeKey(t *testing.T) {
	f := newTestFactory(t)

	first := f.CreateDataSource(TypeMemory, "")
	require.True(t, first.Success, first.Error)
	assert.Equal(t, "memory:default", first.ID)

	dup := f.CreateDataSource(TypeMemory, DefaultInstance)
	assert.False(t, dup.Success)
	assert.Contains(t, dup.Error, "already exists")

	second := f.CreateDataSource(TypeMemory, "demo")
	require.True(t, second.Success)
	assert.Equal(t, "memory:demo", second.ID)

	got, ok := f.Get("memory:demo")
	require.True(t, ok)
	assert.Same(t, second.DataSource, got)
}

func TestFactoryFirstInstanceBecomesActive(t *testing.T) {
	f := newTestFactory(t)
	a := f.CreateDataSource(TypeMemory, "a")
	f.CreateDataSource(TypeMemory, "b")

	ds, key := f.Active()
	assert.Equal(t, "memory:a", key)
	assert.Same(t, a.DataSource, ds)

	res := f.SetActive("memory:b")
	require.True(t, res.Success)
	_, key = f.Active()
	assert.Equal(t, "memory:b", key)

	missing := f.SetActive("memory:nope")
	assert.False(t, missing.Success)
	assert.Contains(t, missing.Error, "does not exist")
	_, key = f.Active()
	assert.Equal(t, "memory:b", key, "failed activation keeps the previous instance")

	assert.Equal(t, []Info{
		{ID: "memory:a", Type: TypeMemory, Instance: "a"},
		{ID: "memory:b", Type: TypeMemory, Instance: "b", Active: true},
	}, f.List())
}

func TestFactoryConstructorFailureIsReported(t *testing.T) {
	f := newTestFactory(t)
	require.True(t, f.RegisterType("broken", func(string) (DataSource, error) {
		return nil, errors.Configuration(errors.ErrInvalidCredentials, "storage")
	}).Success)

	res := f.CreateDataSource("broken", "x")
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "broken:x")
	assert.Empty(t, f.List())
}

func TestFactoryRemoveAndClose(t *testing.T) {
	f := NewFactory(nil)
	var made []*closeCounter
	require.True(t, f.RegisterType("counted", func(string) (DataSource, error) {
		c := &closeCounter{Memory: NewMemory()}
		made = append(made, c)
		return c, nil
	}).Success)

	f.CreateDataSource("counted", "a")
	f.CreateDataSource("counted", "b")
	f.CreateDataSource("counted", "c")

	res := f.Remove("counted:a")
	require.True(t, res.Success)
	assert.Equal(t, 1, made[0].closed)
	ds, _ := f.Active()
	assert.Nil(t, ds, "removing the active instance leaves none active")

	assert.False(t, f.Remove("counted:a").Success)

	made[2].err = errors.New("flush failed")
	err := f.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "counted:c")
	assert.Equal(t, 1, made[1].closed)
	assert.Equal(t, 1, made[2].closed)
	assert.Empty(t, f.List())
}

func TestFactoryConcurrentCreates(t *testing.T) {
	f := newTestFactory(t)

	var wg sync.WaitGroup
	results := make([]Result, 20)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = f.CreateDataSource(TypeMemory, fmt.Sprintf("i%d", i%10))
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, r := range results {
		if r.Success {
			succeeded++
		}
	}
	assert.Equal(t, 10, succeeded, "each instance id is created exactly once")
	assert.Len(t, f.List(), 10)
}
