package tonequeue

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/n1cw/gocw/cwerrors"
	"github.com/n1cw/gocw/tone"
)

func Test_EnqueueDequeue_RoundTrip(t *testing.T) {
	q := New()

	in := tone.New(800, 20000, tone.ModeStandard)
	require.NoError(t, q.Enqueue(in))

	out, ok := q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, in.FrequencyHz, out.FrequencyHz)
	assert.Equal(t, in.DurationUs, out.DurationUs)
	assert.Equal(t, in.Slope, out.Slope)
}

func Test_Dequeue_OnEmpty_ReturnsFalse(t *testing.T) {
	q := New()
	_, ok := q.Dequeue()
	assert.False(t, ok)
}

func Test_Enqueue_ZeroDuration_Succeeds_NoMutation(t *testing.T) {
	q := New()
	require.NoError(t, q.Enqueue(tone.New(800, 0, tone.ModeStandard)))
	assert.Equal(t, 0, q.Length())
	assert.False(t, q.IsFull())
}

func Test_Enqueue_BadFrequency_InvalidArgument(t *testing.T) {
	q := New()
	err := q.Enqueue(tone.New(-1, 1000, tone.ModeStandard))
	assert.ErrorIs(t, err, cwerrors.ErrInvalidArgument)
	assert.Equal(t, 0, q.Length())

	err = q.Enqueue(tone.New(MaxFrequencyHz+1, 1000, tone.ModeStandard))
	assert.ErrorIs(t, err, cwerrors.ErrInvalidArgument)
}

func Test_Enqueue_NegativeDuration_InvalidArgument(t *testing.T) {
	q := New()
	err := q.Enqueue(tone.New(800, -1, tone.ModeStandard))
	assert.ErrorIs(t, err, cwerrors.ErrInvalidArgument)
}

func Test_Enqueue_Full_WouldBlock_NoMutation(t *testing.T) {
	q, err := NewCapacity(2)
	require.NoError(t, err)

	require.NoError(t, q.Enqueue(tone.New(800, 1000, tone.ModeStandard)))
	require.NoError(t, q.Enqueue(tone.New(800, 1000, tone.ModeStandard)))

	err = q.Enqueue(tone.New(800, 1000, tone.ModeStandard))
	assert.ErrorIs(t, err, cwerrors.ErrWouldBlock)
	assert.Equal(t, 2, q.Length())
	assert.True(t, q.IsFull())
}

func Test_Flush_EmptiesQueue(t *testing.T) {
	q := New()
	require.NoError(t, q.Enqueue(tone.New(800, 1000, tone.ModeStandard)))
	require.NoError(t, q.Enqueue(tone.New(800, 1000, tone.ModeStandard)))

	q.Flush()

	assert.Equal(t, 0, q.Length())
	_, ok := q.Dequeue()
	assert.False(t, ok)
}

func Test_LowWaterCallback_FiresAfterCrossing_NotHoldingLock(t *testing.T) {
	q := New()
	var fired atomic.Int32
	var calledWithQueueUnlocked atomic.Bool

	require.NoError(t, q.RegisterLowWaterCallback(func(arg any) {
		fired.Add(1)
		// If the queue's mutex were still held by Dequeue, this would
		// deadlock; proving it doesn't is the point of the test.
		q.Length()
		calledWithQueueUnlocked.Store(true)
	}, nil, 1))

	require.NoError(t, q.Enqueue(tone.New(800, 1000, tone.ModeStandard)))
	require.NoError(t, q.Enqueue(tone.New(800, 1000, tone.ModeStandard)))

	_, ok := q.Dequeue() // 2 -> 1, crosses mark of 1
	require.True(t, ok)
	assert.Equal(t, int32(1), fired.Load())

	_, ok = q.Dequeue() // 1 -> 0, already at or below the mark: no second fire
	require.True(t, ok)
	assert.Equal(t, int32(1), fired.Load())
	assert.True(t, calledWithQueueUnlocked.Load())
}

func Test_LowWaterCallback_NeverFiresForForeverTone(t *testing.T) {
	q := New()
	var fired atomic.Int32
	require.NoError(t, q.RegisterLowWaterCallback(func(any) { fired.Add(1) }, nil, 1))

	require.NoError(t, q.Enqueue(tone.New(800, 1000, tone.ModeStandard)))
	require.NoError(t, q.Enqueue(tone.Forever(1000)))

	_, ok := q.Dequeue() // removes the real tone, count 2->1, crosses mark of 1
	require.True(t, ok)
	// Now only the forever tone remains; it is redelivered without
	// advancing, so length never drops further and the callback must not
	// fire again from this point.
	for i := 0; i < 5; i++ {
		out, ok := q.Dequeue()
		require.True(t, ok)
		assert.True(t, out.IsForever)
	}
	assert.Equal(t, int32(1), fired.Load())
}

func Test_RegisterLowWaterCallback_LevelAtOrAboveCapacity_InvalidArgument(t *testing.T) {
	q, err := NewCapacity(10)
	require.NoError(t, err)
	err = q.RegisterLowWaterCallback(func(any) {}, nil, 10)
	assert.ErrorIs(t, err, cwerrors.ErrInvalidArgument)
}

func Test_ForeverTone_RedeliveredUntilSuccessor(t *testing.T) {
	q := New()
	require.NoError(t, q.Enqueue(tone.Forever(500)))

	for i := 0; i < 3; i++ {
		out, ok := q.Dequeue()
		require.True(t, ok)
		assert.True(t, out.IsForever)
		assert.Equal(t, 1, q.Length())
	}

	require.NoError(t, q.Enqueue(tone.New(800, 1000, tone.ModeStandard)))

	out, ok := q.Dequeue()
	require.True(t, ok)
	assert.True(t, out.IsForever, "forever tone is dequeued once more, then removed")
	assert.Equal(t, 1, q.Length())

	out, ok = q.Dequeue()
	require.True(t, ok)
	assert.False(t, out.IsForever)
	assert.Equal(t, 0, q.Length())
}

func Test_Backspace_RemovesLastCharacter_IfNotYetDequeued(t *testing.T) {
	q := New()

	// Character 1: two tones, first carries IsFirst.
	first1 := tone.New(800, 20000, tone.ModeStandard)
	first1.IsFirst = true
	require.NoError(t, q.Enqueue(first1))
	require.NoError(t, q.Enqueue(tone.New(0, 20000, tone.ModeNoSlopes)))

	// Character 2: two tones, first carries IsFirst.
	first2 := tone.New(800, 60000, tone.ModeStandard)
	first2.IsFirst = true
	require.NoError(t, q.Enqueue(first2))
	require.NoError(t, q.Enqueue(tone.New(0, 20000, tone.ModeNoSlopes)))

	require.Equal(t, 4, q.Length())

	q.Backspace()

	assert.Equal(t, 2, q.Length())
	out, ok := q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, first1.DurationUs, out.DurationUs)
}

func Test_Backspace_NoFirstFlag_DoesNothing(t *testing.T) {
	q := New()
	require.NoError(t, q.Enqueue(tone.New(800, 1000, tone.ModeStandard)))
	require.NoError(t, q.Enqueue(tone.New(0, 1000, tone.ModeNoSlopes)))

	q.Backspace()
	assert.Equal(t, 2, q.Length())
}

func Test_Backspace_AfterDequeue_LeavesDequeuedTonesAlone(t *testing.T) {
	q := New()
	first := tone.New(800, 20000, tone.ModeStandard)
	first.IsFirst = true
	require.NoError(t, q.Enqueue(first))
	require.NoError(t, q.Enqueue(tone.New(0, 20000, tone.ModeNoSlopes)))

	_, ok := q.Dequeue()
	require.True(t, ok)

	// The only IsFirst tone has already left the queue; backspace over
	// the remaining tail tone (no IsFirst) must do nothing.
	q.Backspace()
	assert.Equal(t, 1, q.Length())
}

func Test_WaitForLevel_UnblocksOnDequeue(t *testing.T) {
	q := New()
	require.NoError(t, q.Enqueue(tone.New(800, 1000, tone.ModeStandard)))
	require.NoError(t, q.Enqueue(tone.New(800, 1000, tone.ModeStandard)))

	done := make(chan struct{})
	go func() {
		q.WaitForLevel(1)
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("WaitForLevel returned before level was reached")
	case <-time.After(50 * time.Millisecond):
	}

	_, ok := q.Dequeue()
	require.True(t, ok)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("WaitForLevel did not unblock after dequeue")
	}
}

func Test_WaitForDequeueSignal_WakesOnEnqueue(t *testing.T) {
	q := New()
	woke := make(chan struct{})
	go func() {
		q.WaitForDequeueSignal()
		close(woke)
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, q.Enqueue(tone.New(800, 1000, tone.ModeStandard)))

	select {
	case <-woke:
	case <-time.After(time.Second):
		t.Fatal("dequeue waiter was not signalled")
	}
}

// Property: every enqueued non-forever, positive-duration tone is
// eventually observed by a dequeue with the same value, in FIFO order.
func Test_Property_EnqueueDequeue_PreservesOrderAndValue(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		q := New()
		n := rapid.IntRange(1, 50).Draw(t, "n")

		var sent []tone.Tone
		for i := 0; i < n; i++ {
			tn := tone.New(
				rapid.IntRange(MinFrequencyHz, MaxFrequencyHz).Draw(t, "freq"),
				rapid.Int64Range(1, 1_000_000).Draw(t, "dur"),
				tone.Mode(rapid.IntRange(0, 3).Draw(t, "mode")),
			)
			require.NoError(t, q.Enqueue(tn))
			sent = append(sent, tn)
		}

		for _, want := range sent {
			got, ok := q.Dequeue()
			require.True(t, ok)
			assert.Equal(t, want.FrequencyHz, got.FrequencyHz)
			assert.Equal(t, want.DurationUs, got.DurationUs)
			assert.Equal(t, want.Slope, got.Slope)
		}
		assert.Equal(t, 0, q.Length())
	})
}

// Property: length never exceeds capacity, regardless of interleaving.
func Test_Property_LengthNeverExceedsCapacity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cap_ := rapid.IntRange(1, 32).Draw(t, "cap")
		q, err := NewCapacity(cap_)
		require.NoError(t, err)

		ops := rapid.IntRange(0, 200).Draw(t, "ops")
		for i := 0; i < ops; i++ {
			if rapid.Bool().Draw(t, "enqueue") {
				_ = q.Enqueue(tone.New(800, 1000, tone.ModeStandard))
			} else {
				q.Dequeue()
			}
			assert.LessOrEqual(t, q.Length(), q.Capacity())
		}
	})
}

func Test_ConcurrentProducerConsumer_NoRace(t *testing.T) {
	q := New()
	const total = 500

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < total; i++ {
			for q.Enqueue(tone.New(800, 1000, tone.ModeStandard)) != nil {
				time.Sleep(time.Millisecond)
			}
		}
	}()

	received := 0
	go func() {
		defer wg.Done()
		for received < total {
			if _, ok := q.Dequeue(); ok {
				received++
			} else {
				q.WaitForDequeueSignal()
			}
		}
	}()

	wg.Wait()
	assert.Equal(t, total, received)
}
