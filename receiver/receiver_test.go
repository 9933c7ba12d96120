package receiver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/n1cw/gocw/cwerrors"
)

var epoch = time.Unix(0, 0)

func at(us int64) time.Time {
	return epoch.Add(time.Duration(us) * time.Microsecond)
}

func Test_New_HasDocumentedInitialValues(t *testing.T) {
	r := New()
	assert.Equal(t, float64(SpeedInitWPM), r.Speed())
	assert.Equal(t, ToleranceInitPercent, r.Tolerance())
	assert.Equal(t, GapInit, r.Gap())
	assert.False(t, r.AdaptiveMode())
	assert.Equal(t, Idle, r.State())
}

func Test_DotDash_FixedSpeed_ClassifiedCorrectly(t *testing.T) {
	r := New()
	require.NoError(t, r.SetSpeed(60)) // dot = 20000us, dash = 60000us at 60 WPM.

	r.MarkBegin(at(0))
	r.MarkEnd(at(20000))
	rep, _, err := r.PollRepresentation(at(20000 + 5000))
	assert.ErrorIs(t, err, cwerrors.ErrWouldBlock) // still inside inter-mark space.
	assert.Empty(t, rep)

	c, _, err := r.PollCharacter(at(20000 + 60001))
	require.NoError(t, err)
	assert.Equal(t, 'E', c)
}

func Test_Dash_FixedSpeed_ClassifiedCorrectly(t *testing.T) {
	r := New()
	require.NoError(t, r.SetSpeed(60))

	r.MarkBegin(at(0))
	r.MarkEnd(at(60000))
	c, _, err := r.PollCharacter(at(60000 + 60001))
	require.NoError(t, err)
	assert.Equal(t, 'T', c)
}

func Test_NoiseRejection_BelowThreshold_DoesNotClassify(t *testing.T) {
	r := New()
	require.NoError(t, r.SetNoiseThreshold(10000))

	r.MarkBegin(at(0))
	r.MarkEnd(at(5000))

	assert.Equal(t, Idle, r.State())
	_, _, err := r.PollRepresentation(at(100000))
	assert.ErrorIs(t, err, cwerrors.ErrInvalidState)
}

func Test_NoiseRejection_MidCharacter_RollsBackToInterMarkSpace(t *testing.T) {
	r := New()
	require.NoError(t, r.SetSpeed(60))
	require.NoError(t, r.SetNoiseThreshold(10000))

	r.MarkBegin(at(0))
	r.MarkEnd(at(20000)) // a dot: representation now "."

	r.MarkBegin(at(40000))
	r.MarkEnd(at(40000 + 2000)) // noise spike

	assert.Equal(t, InterMarkSpace, r.State())
}

func Test_BufferOverflow_SetsErrorState(t *testing.T) {
	r := New()
	require.NoError(t, r.SetSpeed(60))

	ts := int64(0)
	var lastErr error
	for i := 0; i < MaxRepresentationLength+1; i++ {
		r.MarkBegin(at(ts))
		ts += 20000
		r.MarkEnd(at(ts))
		ts += 40000 // stay well inside the inter-mark space window before the next mark.
		lastErr = nil
		if r.State() == EOCGapErr {
			break
		}
	}
	_ = lastErr
	assert.Equal(t, EOCGapErr, r.State())

	rep, _, err := r.PollRepresentation(at(ts + 1_000_000))
	assert.True(t, len(rep) > 0)
	assert.ErrorIs(t, err, cwerrors.ErrBufferFull)
}

func Test_AdaptiveMode_TracksSpeedFromObservedMarks(t *testing.T) {
	r := New()
	require.NoError(t, r.SetSpeed(20))
	r.EnableAdaptiveMode()

	r.MarkBegin(at(0))
	r.MarkEnd(at(20000)) // a dot, well inside the wide adaptive dot window.

	r.MarkBegin(at(60000))
	r.MarkEnd(at(60000 + 180000)) // a dash.

	speed := r.Speed()
	assert.True(t, speed > 0 && speed <= SpeedMaxWPM)
	assert.True(t, speed >= SpeedMinWPM)
}

func Test_ResetParameters_RestoresDefaultsIncludingGap(t *testing.T) {
	r := New()
	require.NoError(t, r.SetGap(10))
	require.NoError(t, r.SetSpeed(40))
	r.EnableAdaptiveMode()

	r.ResetParameters()

	assert.Equal(t, GapInit, r.Gap())
	assert.Equal(t, float64(SpeedInitWPM), r.Speed())
	assert.False(t, r.AdaptiveMode())
}

func Test_ResetState_ClearsRepresentationAndState(t *testing.T) {
	r := New()
	require.NoError(t, r.SetSpeed(60))

	r.MarkBegin(at(0))
	r.MarkEnd(at(20000))

	r.ResetState()

	assert.Equal(t, Idle, r.State())
	_, _, err := r.PollRepresentation(at(1_000_000))
	assert.ErrorIs(t, err, cwerrors.ErrInvalidState)
}

func Test_PollRepresentation_GrowsIntoEndOfWordGap(t *testing.T) {
	r := New()
	require.NoError(t, r.SetSpeed(60)) // eoc window max = dash max 60000 + 50% = 90000us at gap 0.

	r.MarkBegin(at(0))
	r.MarkEnd(at(20000))

	rep, eow, err := r.PollRepresentation(at(20000 + 200000))
	require.NoError(t, err)
	assert.Equal(t, ".", rep)
	assert.True(t, eow)
}

func Test_AddMark_InjectsIdealLengthMarks(t *testing.T) {
	r := New()
	require.NoError(t, r.SetSpeed(60))

	require.NoError(t, r.AddMark(at(0), '.'))
	c, _, err := r.PollCharacter(at(200000))
	require.NoError(t, err)
	assert.Equal(t, 'E', c)
}

func Test_StatisticsReport_FormatsWithoutError(t *testing.T) {
	r := New()
	require.NoError(t, r.SetSpeed(60))
	r.MarkBegin(at(0))
	r.MarkEnd(at(20000))

	report, err := r.StatisticsReport("%Y-%m-%d")
	require.NoError(t, err)
	assert.NotEmpty(t, report)
}
