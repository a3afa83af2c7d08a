package history

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeTurns builds n turns with sequence numbers 1..n.
func makeTurns(n int) []Turn {
	turns := make([]Turn, n)
	for i := range turns {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		turns[i] = Turn{Role: role, Text: fmt.Sprintf("turn %d", i+1), Seq: i + 1}
	}
	return turns
}

func seqs(turns []Turn) []int {
	out := make([]int, len(turns))
	for i, t := range turns {
		out[i] = t.Seq
	}
	return out
}

func TestCompactInvalidLimit(t *testing.T) {
	for _, limit := range []int{0, -1, -50} {
		t.Run(fmt.Sprintf("limit %d", limit), func(t *testing.T) {
			_, err := Compact(makeTurns(5), limit, StrategyRecent)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidLimit)
		})
	}
}

func TestCompactNoOp(t *testing.T) {
	turns := makeTurns(8)

	for _, strategy := range []Strategy{StrategyRecent, StrategyFirst, StrategyMiddle} {
		t.Run(string(strategy), func(t *testing.T) {
			got, err := Compact(turns, 8, strategy)
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(turns, got), "input at the limit must be returned unchanged")

			got, err = Compact(turns, 20, strategy)
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(turns, got))
		})
	}
}

func TestCompactRecent(t *testing.T) {
	t.Run("keeps the last limit turns", func(t *testing.T) {
		got, err := Compact(makeTurns(25), 10, StrategyRecent)
		require.NoError(t, err)
		assert.Equal(t, []int{16, 17, 18, 19, 20, 21, 22, 23, 24, 25}, seqs(got))
	})

	t.Run("bound holds for any sizes", func(t *testing.T) {
		for _, total := range []int{1, 9, 10, 11, 100} {
			got, err := Compact(makeTurns(total), 10, StrategyRecent)
			require.NoError(t, err)
			want := total
			if want > 10 {
				want = 10
			}
			assert.Len(t, got, want, "total=%d", total)
		}
	})

	t.Run("does not mutate the input", func(t *testing.T) {
		turns := makeTurns(25)
		original := make([]Turn, len(turns))
		copy(original, turns)

		_, err := Compact(turns, 10, StrategyRecent)
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(original, turns))
	})
}

func TestCompactFirst(t *testing.T) {
	t.Run("bookend retention", func(t *testing.T) {
		got, err := Compact(makeTurns(25), 10, StrategyFirst)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3, 4, 5, 21, 22, 23, 24, 25}, seqs(got))
	})

	t.Run("odd limit keeps the extra turn at the head", func(t *testing.T) {
		got, err := Compact(makeTurns(25), 5, StrategyFirst)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3, 24, 25}, seqs(got))
	})

	t.Run("limit one keeps only the opening turn", func(t *testing.T) {
		got, err := Compact(makeTurns(25), 1, StrategyFirst)
		require.NoError(t, err)
		assert.Equal(t, []int{1}, seqs(got))
	})
}

func TestCompactMiddle(t *testing.T) {
	t.Run("always includes the last turn", func(t *testing.T) {
		for _, total := range []int{11, 13, 25, 99, 100} {
			for _, limit := range []int{1, 3, 10} {
				got, err := Compact(makeTurns(total), limit, StrategyMiddle)
				require.NoError(t, err)
				require.NotEmpty(t, got)
				assert.Equal(t, total, got[len(got)-1].Seq,
					"total=%d limit=%d: last turn must survive", total, limit)
				assert.LessOrEqual(t, len(got), limit)
			}
		}
	})

	t.Run("samples evenly", func(t *testing.T) {
		got, err := Compact(makeTurns(25), 5, StrategyMiddle)
		require.NoError(t, err)
		// stride = ceil(25/5) = 5 -> seqs 1, 6, 11, 16, 21; then the last
		// turn replaces the final slot.
		assert.Equal(t, []int{1, 6, 11, 16, 25}, seqs(got))
	})

	t.Run("ordered by sequence", func(t *testing.T) {
		got, err := Compact(makeTurns(50), 7, StrategyMiddle)
		require.NoError(t, err)
		for i := 1; i < len(got); i++ {
			assert.Less(t, got[i-1].Seq, got[i].Seq)
		}
	})
}

func TestParseStrategy(t *testing.T) {
	assert.Equal(t, StrategyRecent, ParseStrategy("recent"))
	assert.Equal(t, StrategyFirst, ParseStrategy("first"))
	assert.Equal(t, StrategyMiddle, ParseStrategy("middle"))
	assert.Equal(t, StrategyRecent, ParseStrategy(""))
	assert.Equal(t, StrategyRecent, ParseStrategy("bogus"))
}
