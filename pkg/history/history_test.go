package history

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tapelabs/deskcalc/pkg/types"
)

func TestRecordSuccess(t *testing.T) {
	h := New(0)

	e := h.Record("2+3*4", 14, nil)

	assert.Equal(t, "eval-1", e.ID)
	assert.Equal(t, "2+3*4", e.Expression)
	assert.Equal(t, EntrySucceeded, e.State)
	assert.Equal(t, "14", e.Result)
	assert.Equal(t, float64(14), e.Value)
	assert.Nil(t, e.Error)
	assert.False(t, e.CreateTime.IsZero(), "CreateTime should be set")
}

func TestRecordFailure(t *testing.T) {
	h := New(0)

	e := h.Record("1/0", 0, types.NewDivisionByZeroError())

	assert.Equal(t, EntryFailed, e.State)
	assert.Empty(t, e.Result, "failed entries carry no result")
	require.NotNil(t, e.Error)
	assert.Equal(t, "DivisionByZero", e.Error.Kind)
	assert.Equal(t, "division by zero", e.Error.Message)
}

// TestRecordPlainError verifies that non-CalcError failures are folded into
// the EvaluationError kind when recorded.
func TestRecordPlainError(t *testing.T) {
	h := New(0)

	e := h.Record("2+2", 0, fmt.Errorf("broken pipe"))

	require.NotNil(t, e.Error)
	assert.Equal(t, "EvaluationError", e.Error.Kind)
	assert.Equal(t, "broken pipe", e.Error.Message)
}

func TestListNewestFirst(t *testing.T) {
	h := New(0)

	h.Record("1+1", 2, nil)
	h.Record("2+2", 4, nil)
	h.Record("3+3", 6, nil)

	entries := h.List()
	require.Len(t, entries, 3)
	assert.Equal(t, "3+3", entries[0].Expression)
	assert.Equal(t, "2+2", entries[1].Expression)
	assert.Equal(t, "1+1", entries[2].Expression)
}

// TestListRepeatedExpressions verifies that identical expressions are not
// de-duplicated.
func TestListRepeatedExpressions(t *testing.T) {
	h := New(0)

	h.Record("5*5", 25, nil)
	h.Record("5*5", 25, nil)

	assert.Equal(t, 2, h.Len())
}

func TestLimitDropsOldest(t *testing.T) {
	h := New(3)

	for i := 1; i <= 5; i++ {
		h.Record(fmt.Sprintf("%d+0", i), float64(i), nil)
	}

	entries := h.List()
	require.Len(t, entries, 3)
	assert.Equal(t, "5+0", entries[0].Expression)
	assert.Equal(t, "3+0", entries[2].Expression, "oldest surviving entry")
}

func TestGet(t *testing.T) {
	h := New(0)

	e := h.Record("7%4", 3, nil)

	got, err := h.Get(e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.Expression, got.Expression)

	_, err = h.Get("eval-999")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestClear(t *testing.T) {
	h := New(0)

	h.Record("1+1", 2, nil)
	h.Record("2+2", 4, nil)

	assert.Equal(t, 2, h.Clear())
	assert.Equal(t, 0, h.Len())
	assert.Equal(t, 0, h.Clear(), "clearing an empty history drops nothing")
}

// TestIDsRemainUniqueAfterClear verifies that the ID counter survives Clear,
// so old and new entries never share an ID.
func TestIDsRemainUniqueAfterClear(t *testing.T) {
	h := New(0)

	first := h.Record("1+1", 2, nil)
	h.Clear()
	second := h.Record("2+2", 4, nil)

	assert.NotEqual(t, first.ID, second.ID)
}

func TestConcurrentRecord(t *testing.T) {
	h := New(0)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			h.Record(fmt.Sprintf("%d+1", n), float64(n+1), nil)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, h.Len())

	seen := make(map[string]bool)
	for _, e := range h.List() {
		assert.False(t, seen[e.ID], "duplicate ID %s", e.ID)
		seen[e.ID] = true
	}
}
