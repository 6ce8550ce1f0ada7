package steps

import (
	"math/rand"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinearSchedules(t *testing.T) {
	for _, tc := range []struct {
		name     string
		duration int64
		want     Schedule
	}{
		{"one_day_on_12s_blocks", 7200, Schedule{{1388, 800}, {1389, 6400}}},
		{"one_unit_per_block", 10_000_000, Schedule{{1, 10_000_000}}},
		{"exact_divisor", 50_000, Schedule{{200, 50_000}}},
		{"three_blocks", 3, Schedule{{3_333_333, 2}, {3_333_334, 1}}},
		{"single_block", 1, Schedule{{10_000_000, 1}}},
		{"two_blocks", 2, Schedule{{5_000_000, 2}}},
		{"longer_than_total", 20_000_000, Schedule{{0, 10_000_000}, {1, 10_000_000}}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			require := require.New(t)

			got, err := Build(tc.duration)
			require.NoError(err)
			require.Equal(tc.want, got)
			require.Equal(TotalMPS, got.TotalMPS().Uint64())
			require.Equal(uint64(tc.duration), got.TotalBlocks().Uint64())
		})
	}
}

func TestMaxDuration(t *testing.T) {
	require := require.New(t)

	s, err := Build(int64(MaxBlockDelta))
	require.NoError(err)
	require.Equal(Schedule{
		{MPS: 0, BlockDelta: MaxBlockDelta - TotalMPS},
		{MPS: 1, BlockDelta: TotalMPS},
	}, s)

	enc, err := s.Encode()
	require.NoError(err)
	require.Equal("0x000000ffff67697f0000010000989680", enc.Hex())
}

func TestInvalidDurations(t *testing.T) {
	for _, d := range []int64{0, -1, -5, -1 << 62} {
		_, err := Encode(d)
		assert.ErrorIs(t, err, ErrInvalidDuration, "duration %d", d)
	}

	_, err := Encode(int64(MaxBlockDelta) + 1)
	assert.ErrorIs(t, err, ErrDurationTooLarge)

	_, err = Encode(1 << 62)
	assert.ErrorIs(t, err, ErrDurationTooLarge)
}

// TestRateOverflow needs a total larger than a single record can carry,
// which TotalMPS never is.
func TestRateOverflow(t *testing.T) {
	e := NewEncoder(MaxMPS + 1)

	_, err := e.Schedule(1)
	assert.ErrorIs(t, err, ErrRateOverflow)

	// Spread over two blocks the rate fits again.
	s, err := e.Schedule(2)
	require.NoError(t, err)
	assert.Equal(t, Schedule{{8_388_608, 2}}, s)
}

func TestCustomTotal(t *testing.T) {
	s, err := NewEncoder(5).Schedule(10)
	require.NoError(t, err)
	assert.Equal(t, Schedule{{0, 5}, {1, 5}}, s)
	assert.NoError(t, s.Validate(5, 10))
}

func TestGoldenEncodings(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	for name, d := range map[string]int64{
		"linear_7200":     7200,
		"linear_10000000": 10_000_000,
		"linear_50000":    50_000,
		"linear_3":        3,
		"linear_1":        1,
	} {
		enc, err := Encode(d)
		require.NoError(t, err, name)
		g.Assert(t, name, []byte(enc.Hex()+"\n"))
	}
}

func TestEncodeLayout(t *testing.T) {
	enc, err := Encode(7200)
	require.NoError(t, err)
	assert.Equal(t, Encoded{
		0x00, 0x05, 0x6c, 0x00, 0x00, 0x00, 0x03, 0x20,
		0x00, 0x05, 0x6d, 0x00, 0x00, 0x00, 0x19, 0x00,
	}, enc)
}

func TestEncodeRejectsWideFields(t *testing.T) {
	_, err := Schedule{{MPS: 1 << 24, BlockDelta: 1}}.Encode()
	assert.ErrorIs(t, err, ErrRateOverflow)

	_, err = Schedule{{MPS: 1, BlockDelta: MaxBlockDelta + 1}}.Encode()
	assert.ErrorIs(t, err, ErrDurationTooLarge)
}

// TestEncodeRejectsZeroBlocks makes sure Encode never emits a record that
// Decode refuses.
func TestEncodeRejectsZeroBlocks(t *testing.T) {
	_, err := Schedule{{MPS: 1388, BlockDelta: 800}, {MPS: 1389, BlockDelta: 0}}.Encode()
	assert.ErrorIs(t, err, ErrInvariantViolation)

	_, err = Decode(Encoded{0x00, 0x05, 0x6d, 0x00, 0x00, 0x00, 0x00, 0x00})
	assert.ErrorIs(t, err, ErrMalformedSteps)
}

func TestValidate(t *testing.T) {
	good := Schedule{{1388, 800}, {1389, 6400}}
	assert.NoError(t, good.Validate(TotalMPS, 7200))

	assert.ErrorIs(t, good.Validate(TotalMPS, 7201), ErrInvariantViolation)
	assert.ErrorIs(t, good.Validate(TotalMPS+1, 7200), ErrInvariantViolation)
	assert.ErrorIs(t, Schedule{}.Validate(TotalMPS, 0), ErrInvariantViolation)
	assert.ErrorIs(t, Schedule{{1, 0}, {1388, 800}}.Validate(TotalMPS, 800), ErrInvariantViolation)
	assert.ErrorIs(t, Schedule{{1 << 24, 1}}.Validate(1<<24, 1), ErrRateOverflow)
}

func TestDecode(t *testing.T) {
	require := require.New(t)

	enc, err := ParseHex("0x00056c000000032000056d0000001900")
	require.NoError(err)

	s, err := Decode(enc)
	require.NoError(err)
	require.Equal(Schedule{{1388, 800}, {1389, 6400}}, s)
	require.NoError(s.Validate(TotalMPS, 7200))

	// Prefix is optional.
	enc2, err := ParseHex("00056c000000032000056d0000001900")
	require.NoError(err)
	require.Equal(enc, enc2)
}

func TestDecodeMalformed(t *testing.T) {
	for name, data := range map[string]Encoded{
		"empty":       {},
		"short":       {0x00, 0x05, 0x6c},
		"trailing":    {0x00, 0x05, 0x6c, 0x00, 0x00, 0x00, 0x03, 0x20, 0x01},
		"zero_blocks": {0x00, 0x05, 0x6c, 0x00, 0x00, 0x00, 0x00, 0x00},
	} {
		_, err := Decode(data)
		assert.ErrorIs(t, err, ErrMalformedSteps, name)
	}

	_, err := ParseHex("0xzz")
	assert.ErrorIs(t, err, ErrMalformedSteps)
	_, err = ParseHex("0x123")
	assert.ErrorIs(t, err, ErrMalformedSteps)
}

// TestScheduleProperties checks, over random durations, that schedules are
// deterministic, round-trip through the packed form, add up exactly and have
// non-decreasing rates differing by at most one.
func TestScheduleProperties(t *testing.T) {
	r := rand.New(rand.NewSource(0))

	durations := []int64{1, 2, 3, 7, 9_999_999, 10_000_001, int64(MaxBlockDelta)}
	for i := 0; i < 500; i++ {
		durations = append(durations, 1+r.Int63n(int64(MaxBlockDelta)))
		durations = append(durations, 1+r.Int63n(100_000))
	}

	for _, d := range durations {
		s, err := Build(d)
		require.NoError(t, err, d)
		require.True(t, len(s) == 1 || len(s) == 2, d)

		again, err := Build(d)
		require.NoError(t, err)
		require.Equal(t, s, again, "non-deterministic for %d", d)

		require.NoError(t, s.Validate(TotalMPS, uint64(d)))
		if len(s) == 2 {
			require.Equal(t, s[0].MPS+1, s[1].MPS, d)
		}

		enc, err := s.Encode()
		require.NoError(t, err)
		require.Len(t, enc, len(s)*RecordSize)

		dec, err := Decode(enc)
		require.NoError(t, err)
		require.Equal(t, s, dec, d)
	}
}

// TestBaseRateNonIncreasing sweeps consecutive durations, plus a few large
// ones, and checks that a longer auction never gets a higher base rate.
func TestBaseRateNonIncreasing(t *testing.T) {
	durations := make([]int64, 0, 200_010)
	for d := int64(1); d < 200_000; d++ {
		durations = append(durations, d)
	}
	durations = append(durations, 9_999_999, 10_000_000, 10_000_001, 20_000_000, int64(MaxBlockDelta))

	prev := uint32(MaxMPS)
	for _, d := range durations {
		s, err := Build(d)
		require.NoError(t, err, d)
		if s[0].MPS > prev {
			t.Fatalf("base rate rose from %d to %d at %d blocks", prev, s[0].MPS, d)
		}
		prev = s[0].MPS
	}
}

func TestString(t *testing.T) {
	assert.Equal(t, "[1388×800, 1389×6400]", Schedule{{1388, 800}, {1389, 6400}}.String())
}

func BenchmarkEncode(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = Encode(7200)
	}
}
