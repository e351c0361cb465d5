package benchmarks

import (
	"testing"

	"github.com/randalmurphal/pulse/pkg/pulse"
)

// BenchmarkUpdate_Chain_5 pushes through a 5-map chain.
func BenchmarkUpdate_Chain_5(b *testing.B) {
	sink := pulse.NewSink[int]()
	subscribeTail(buildChain(sink.Stream(), 5))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sink.Update(i)
	}
}

// BenchmarkUpdate_Chain_10 pushes through a 10-map chain.
func BenchmarkUpdate_Chain_10(b *testing.B) {
	sink := pulse.NewSink[int]()
	subscribeTail(buildChain(sink.Stream(), 10))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sink.Update(i)
	}
}

// BenchmarkUpdate_Chain_50 pushes through a 50-map chain.
func BenchmarkUpdate_Chain_50(b *testing.B) {
	sink := pulse.NewSink[int]()
	subscribeTail(buildChain(sink.Stream(), 50))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sink.Update(i)
	}
}

// BenchmarkUpdate_Fanout_10 pushes into 10 direct subscribers.
func BenchmarkUpdate_Fanout_10(b *testing.B) {
	sink := pulse.NewSink[int]()
	buildFanout(sink.Stream(), 10)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sink.Update(i)
	}
}

// BenchmarkUpdate_Fanout_100 pushes into 100 direct subscribers.
func BenchmarkUpdate_Fanout_100(b *testing.B) {
	sink := pulse.NewSink[int]()
	buildFanout(sink.Stream(), 100)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sink.Update(i)
	}
}

// BenchmarkUpdate_NoSubscribers measures the bare dispatch path.
func BenchmarkUpdate_NoSubscribers(b *testing.B) {
	sink := pulse.NewSink[int]()
	for i := 0; i < b.N; i++ {
		sink.Update(i)
	}
}

// BenchmarkUpdate_Fold measures a memory-writing chain.
func BenchmarkUpdate_Fold(b *testing.B) {
	sink := pulse.NewSink[int]()
	subscribeTail(pulse.Fold(sink.Stream(), 0, func(acc, v int) int { return acc + v }))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sink.Update(i)
	}
}

// BenchmarkUpdate_Feedback measures one feedback generation per update.
func BenchmarkUpdate_Feedback(b *testing.B) {
	imit := pulse.NewImitator[int]()
	// Each echoed value dies in the filter after one generation.
	echo := imit.Stream().Filter(func(v int) bool { return false })

	sink := pulse.NewSink[int]()
	merged := pulse.Merge(echo, sink.Stream())
	imit.Imitate(merged)
	subscribeTail(merged)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sink.Update(i)
	}
}

// BenchmarkSubscribe measures registration cost.
func BenchmarkSubscribe(b *testing.B) {
	sink := pulse.NewSink[int]()
	stream := sink.Stream()
	for i := 0; i < b.N; i++ {
		stream.Subscribe(func(pulse.Event[int]) {})
	}
}

// BenchmarkNewSink measures producer creation overhead.
func BenchmarkNewSink(b *testing.B) {
	for i := 0; i < b.N; i++ {
		pulse.NewSink[int]()
	}
}

// Helper functions

func buildChain(s *pulse.Stream[int], depth int) *pulse.Stream[int] {
	for i := 0; i < depth; i++ {
		s = pulse.Map(s, func(v int) int { return v + 1 })
	}
	return s
}

func buildFanout(s *pulse.Stream[int], width int) {
	for i := 0; i < width; i++ {
		s.Subscribe(func(pulse.Event[int]) {})
	}
}

func subscribeTail(s *pulse.Stream[int]) {
	s.Subscribe(func(pulse.Event[int]) {})
}
