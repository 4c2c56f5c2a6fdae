package pcm

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func ones(n int) *Buffer {
	s := make([]float32, n)
	for i := range s {
		s[i] = 0.25
	}
	return &Buffer{Format: L16Mono16K, Samples: s}
}

func TestTimelinePlaysAtOffset(t *testing.T) {
	tl := NewTimeline(L16Mono16K)

	// 10 samples at 16kHz start at sample 5.
	at := L16Mono16K.SampleDuration(5)
	if _, err := tl.Schedule(ones(10), at, nil); err != nil {
		t.Fatal(err)
	}

	out := make([]float32, 20)
	tl.Read(out)
	for i, s := range out {
		want := float32(0)
		if i >= 5 && i < 15 {
			want = 0.25
		}
		if s != want {
			t.Fatalf("out[%d] = %v, want %v", i, s, want)
		}
	}
	if tl.Active() != 0 {
		t.Errorf("Active = %d after voice ended", tl.Active())
	}
	if got := tl.Position(); got != 20 {
		t.Errorf("Position = %d, want 20", got)
	}
}

func TestTimelineMixesAndClamps(t *testing.T) {
	tl := NewTimeline(L16Mono16K)
	loud := &Buffer{Format: L16Mono16K, Samples: []float32{0.8, 0.8, -0.8}}
	tl.Schedule(loud, 0, nil)
	tl.Schedule(loud, 0, nil)

	out := make([]float32, 3)
	tl.Read(out)
	want := []float32{1, 1, -1}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %v, want %v", i, out[i], want[i])
		}
	}
}

func TestTimelinePastStartIsClamped(t *testing.T) {
	tl := NewTimeline(L16Mono16K)
	tl.Read(make([]float32, 100))

	v, err := tl.Schedule(ones(4), 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := v.Start(), L16Mono16K.SampleDuration(100); got != want {
		t.Errorf("Start = %v, want %v", got, want)
	}
}

func TestTimelineOnEndAndStop(t *testing.T) {
	tl := NewTimeline(L16Mono16K)

	var ended atomic.Int32
	natural, _ := tl.Schedule(ones(8), 0, func() { ended.Add(1) })
	stopped, _ := tl.Schedule(ones(8), 0, func() { ended.Add(100) })

	stopped.Stop()
	stopped.Stop()
	select {
	case <-stopped.Done():
	default:
		t.Fatal("stopped voice should be done")
	}

	tl.Read(make([]float32, 8))
	select {
	case <-natural.Done():
	case <-time.After(time.Second):
		t.Fatal("natural voice not done")
	}
	if got := ended.Load(); got != 1 {
		t.Errorf("onEnd calls = %d, want 1 (natural only)", got)
	}
}

func TestTimelineStopAllAndClose(t *testing.T) {
	tl := NewTimeline(L16Mono16K)
	a, _ := tl.Schedule(ones(100), 0, nil)
	b, _ := tl.Schedule(ones(100), time.Second, nil)

	tl.StopAll()
	if tl.Active() != 0 {
		t.Fatalf("Active = %d after StopAll", tl.Active())
	}
	for _, v := range []*Voice{a, b} {
		select {
		case <-v.Done():
		default:
			t.Fatal("voice not done after StopAll")
		}
	}

	out := make([]float32, 10)
	tl.Read(out)
	for _, s := range out {
		if s != 0 {
			t.Fatal("stopped voices must not render")
		}
	}

	tl.Close()
	if _, err := tl.Schedule(ones(1), 0, nil); !errors.Is(err, ErrTimelineClosed) {
		t.Errorf("Schedule after Close err = %v", err)
	}
}

func TestTimelineFormatMismatch(t *testing.T) {
	tl := NewTimeline(L16Mono24K)
	if _, err := tl.Schedule(ones(1), 0, nil); err == nil {
		t.Error("expected format mismatch error")
	}
}

func TestTimelineAdjacentVoicesDoNotOverlap(t *testing.T) {
	tl := NewTimeline(L16Mono24K)
	voice := func(n int) *Buffer {
		return &Buffer{Format: L16Mono24K, Samples: make([]float32, n)}
	}
	// 1000 samples at 24 kHz is not a whole number of nanoseconds.
	var start int64
	for _, n := range []int{1000, 1000, 1001} {
		buf := voice(n)
		for i := range buf.Samples {
			buf.Samples[i] = 0.25
		}
		v, err := tl.Schedule(buf, L16Mono24K.SampleDuration(start), nil)
		if err != nil {
			t.Fatal(err)
		}
		if got := L16Mono24K.SamplesInDuration(v.Start()); got != start {
			t.Errorf("voice starts at sample %d, want %d", got, start)
		}
		start += int64(n)
	}

	out := make([]float32, start+1)
	tl.Read(out)
	for i, s := range out[:start] {
		if s != 0.25 {
			t.Fatalf("out[%d] = %v, want 0.25", i, s)
		}
	}
	if out[start] != 0 {
		t.Errorf("out[%d] = %v, want silence", start, out[start])
	}
}
