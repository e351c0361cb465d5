package pulse_test

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/pulse/pkg/pulse"
)

func TestSinkUpdateAndEnd(t *testing.T) {
	sink := pulse.NewSink[int]()
	coll := sink.Stream().Collect()

	sink.Update(0)
	sink.Update(1)
	sink.Update(2)
	sink.End()

	assert.Equal(t, []int{0, 1, 2}, coll.Wait())
}

func TestSinkMultipleStreamViews(t *testing.T) {
	sink := pulse.NewSink[int]()

	coll1 := sink.Stream().Collect()
	coll2 := sink.Stream().Collect()

	sink.Update(42)
	sink.End()

	assert.Equal(t, []int{42}, coll1.Wait())
	assert.Equal(t, []int{42}, coll2.Wait())
}

func TestSubscribeObservesItemsThenEnd(t *testing.T) {
	sink := pulse.NewSink[int]()

	var got []string
	sub := sink.Stream().Subscribe(func(ev pulse.Event[int]) {
		if v, ok := ev.Value(); ok {
			got = append(got, strconv.Itoa(v))
		} else {
			got = append(got, "end")
		}
	})
	defer sub.Unsubscribe()

	sink.Update(0)
	sink.Update(1)
	sink.End()

	assert.Equal(t, []string{"0", "1", "end"}, got)
}

func TestSubscriptionUnsubscribe(t *testing.T) {
	sink := pulse.NewSink[int]()

	var got []int
	sub := sink.Stream().Subscribe(func(ev pulse.Event[int]) {
		if v, ok := ev.Value(); ok {
			got = append(got, v)
		}
	})

	sink.Update(0)
	sub.Unsubscribe()
	sink.Update(1)

	assert.Equal(t, []int{0}, got)

	// Unsubscribe is idempotent.
	assert.NotPanics(t, func() {
		sub.Unsubscribe()
		sub.Unsubscribe()
	})
}

func TestSubscribeAfterEndDeliversEndOnce(t *testing.T) {
	sink := pulse.NewSink[int]()
	stream := sink.Stream()
	sink.End()

	ends := 0
	stream.Subscribe(func(ev pulse.Event[int]) {
		require.True(t, ev.IsEnd())
		ends++
	})
	assert.Equal(t, 1, ends)

	// A collector on an ended stream terminates instead of hanging.
	assert.Empty(t, stream.Collect().Wait())
}

func TestUpdateAfterEndPanics(t *testing.T) {
	sink := pulse.NewSink[int]()
	sink.End()

	defer func() {
		r := recover()
		require.NotNil(t, r, "expected update after end to panic")
		ue, ok := r.(*pulse.UsageError)
		require.True(t, ok, "expected *UsageError, got %T", r)
		assert.Contains(t, ue.Error(), "already ended")
	}()
	sink.Update(1)
}

func TestOf(t *testing.T) {
	value := pulse.Of(42)

	// Both collectors receive the value; use Take since the stream never ends.
	coll1 := value.Collect()
	coll2 := value.Collect()

	assert.Equal(t, []int{42}, coll1.Take())
	assert.Equal(t, []int{42}, coll2.Take())
	assert.True(t, value.HasMemory())
}

func TestNever(t *testing.T) {
	never := pulse.Never[int]()
	coll := never.Collect()
	assert.Empty(t, coll.Take())
	assert.False(t, never.HasMemory())
}

func TestFilter(t *testing.T) {
	sink := pulse.NewSink[int]()
	coll := sink.Stream().Filter(func(v int) bool { return v%2 == 0 }).Collect()

	sink.Update(0)
	sink.Update(1)
	sink.Update(2)
	sink.End()

	assert.Equal(t, []int{0, 2}, coll.Wait())
}

func TestRemember(t *testing.T) {
	sink := pulse.NewSink[int]()
	rem := sink.Stream().Remember()

	sink.Update(0)
	sink.Update(1)

	// A late subscriber receives the last remembered value.
	coll := rem.Collect()

	sink.Update(2)
	sink.End()

	assert.Equal(t, []int{1, 2}, coll.Wait())
	assert.True(t, rem.HasMemory())
}

func TestMemoryNotInherited(t *testing.T) {
	sink := pulse.NewSink[int]()
	sink.Update(0)

	rem := sink.Stream().Remember()
	filt := rem.Filter(func(v int) bool { return v > 10 })

	assert.True(t, rem.HasMemory())
	assert.False(t, filt.HasMemory())
}

func TestStartWith(t *testing.T) {
	sink := pulse.NewSink[int]()

	sink.Update(0) // lost

	started := sink.Stream().StartWith(1)
	coll := started.Collect()

	sink.Update(2)
	sink.End()

	assert.Equal(t, []int{1, 2}, coll.Wait())
}

func TestDrop(t *testing.T) {
	sink := pulse.NewSink[int]()
	coll := sink.Stream().Drop(2).Collect()

	sink.Update(0)
	sink.Update(1)
	sink.Update(2)
	sink.Update(3)
	sink.End()

	assert.Equal(t, []int{2, 3}, coll.Wait())
}

func TestDropWhile(t *testing.T) {
	sink := pulse.NewSink[int]()
	coll := sink.Stream().DropWhile(func(v int) bool { return v%2 == 1 }).Collect()

	sink.Update(1)
	sink.Update(3)
	sink.Update(4)
	sink.Update(5) // not dropped: the condition already broke
	sink.End()

	assert.Equal(t, []int{4, 5}, coll.Wait())
}

func TestTake(t *testing.T) {
	sink := pulse.NewSink[int]()
	coll := sink.Stream().Take(2).Collect()

	sink.Update(0)
	sink.Update(1)
	sink.Update(2) // ends the taken stream; never delivered

	assert.Equal(t, []int{0, 1}, coll.Wait())
}

func TestTakeWhile(t *testing.T) {
	sink := pulse.NewSink[int]()
	coll := sink.Stream().TakeWhile(func(v int) bool { return v%2 == 0 }).Collect()

	sink.Update(0)
	sink.Update(2)
	sink.Update(3) // ends the taken stream
	sink.Update(4)

	assert.Equal(t, []int{0, 2}, coll.Wait())
}

func TestLast(t *testing.T) {
	sink := pulse.NewSink[int]()
	coll := sink.Stream().Last().Collect()

	sink.Update(0)
	sink.Update(1)
	sink.Update(2)
	sink.End()

	assert.Equal(t, []int{2}, coll.Wait())
}

func TestLastOnEmptyStream(t *testing.T) {
	sink := pulse.NewSink[int]()
	coll := sink.Stream().Last().Collect()

	sink.End()

	assert.Empty(t, coll.Wait())
}

func TestChainedMaps(t *testing.T) {
	sink := pulse.NewSink[int]()
	// The risk is that an intermediary map drops its registration and the
	// chain stalls.
	mapped := pulse.Map(pulse.Map(sink.Stream(), func(v int) int { return v + 1 }), func(v int) int { return v * 2 })
	coll := mapped.Collect()

	sink.Update(0)
	sink.Update(1)
	sink.Update(2)
	sink.End()

	assert.Equal(t, []int{2, 4, 6}, coll.Wait())
}

func TestEventString(t *testing.T) {
	assert.Equal(t, "Item(7)", pulse.Item(7).String())
	assert.Equal(t, "End", pulse.End[int]().String())
}
