package state

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainer_AppliesEventsInOrder(t *testing.T) {
	c := NewContainer([]int{}, func(v []int) []int { return append([]int(nil), v...) })
	defer c.Close()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := c.Apply(context.Background(), func(s State[[]int]) State[[]int] {
				s.Value = append(s.Value, i)
				return s
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Len(t, c.Get().Value, 50)
}

func TestContainer_ApplyReturnsStateAfterReducer(t *testing.T) {
	c := NewContainer(0, nil)
	defer c.Close()

	s, err := c.Apply(context.Background(), func(s State[int]) State[int] {
		s.Value++
		s.Err = "x"
		return s
	})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Value)
	assert.Equal(t, "x", s.Err)
}

func TestContainer_GetReturnsCopy(t *testing.T) {
	c := NewContainer([]int{1, 2}, func(v []int) []int { return append([]int(nil), v...) })
	defer c.Close()

	s := c.Get()
	s.Value[0] = 42

	assert.Equal(t, []int{1, 2}, c.Get().Value)
}

func TestContainer_SubscriberSeesLatestState(t *testing.T) {
	c := NewContainer(0, nil)
	defer c.Close()

	ch, cancel := c.Subscribe()
	defer cancel()

	for i := 1; i <= 3; i++ {
		_, err := c.Apply(context.Background(), func(s State[int]) State[int] {
			s.Value = i
			return s
		})
		require.NoError(t, err)
	}

	select {
	case s := <-ch:
		assert.Equal(t, 3, s.Value)
	case <-time.After(2 * time.Second):
		t.Fatal("no state published")
	}
}

func TestContainer_UnsubscribeClosesChannel(t *testing.T) {
	c := NewContainer(0, nil)
	defer c.Close()

	ch, cancel := c.Subscribe()
	cancel()
	cancel()

	_, open := <-ch
	assert.False(t, open)
}

func TestContainer_Close(t *testing.T) {
	c := NewContainer(0, nil)
	ch, _ := c.Subscribe()

	c.Close()
	c.Close()

	_, open := <-ch
	assert.False(t, open)

	_, err := c.Apply(context.Background(), func(s State[int]) State[int] { return s })
	assert.ErrorIs(t, err, ErrClosed)
}

func TestContainer_ApplyHonoursContext(t *testing.T) {
	c := NewContainer(0, nil)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// either outcome is valid for an already cancelled context, but it
	// must not block
	done := make(chan struct{})
	go func() {
		_, _ = c.Apply(ctx, func(s State[int]) State[int] { return s })
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Apply blocked")
	}
}
