package refsearch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/standardbeagle/refscope/internal/types"
)

func TestModeClassifierExplicitKinds(t *testing.T) {
	m := NewModeClassifier(time.Second)
	m.RecordVisibleRange(100)
	m.RecordVisibleRange(40) // shrink right now

	assert.Equal(t, types.SearchKindRename, m.Classify(types.SearchKindRename))
	assert.Equal(t, types.SearchKindCallHierarchy, m.Classify(types.SearchKindCallHierarchy))
}

func TestModeClassifierRecentShrinkMeansPeek(t *testing.T) {
	now := time.Now()
	m := NewModeClassifier(time.Second)
	m.now = func() time.Time { return now }

	m.RecordVisibleRange(100)
	m.RecordVisibleRange(60)

	now = now.Add(500 * time.Millisecond)
	assert.Equal(t, types.SearchKindPeek, m.Classify(types.SearchKindFind))
}

func TestModeClassifierStaleShrinkMeansFind(t *testing.T) {
	now := time.Now()
	m := NewModeClassifier(time.Second)
	m.now = func() time.Time { return now }

	m.RecordVisibleRange(100)
	m.RecordVisibleRange(60)

	now = now.Add(1500 * time.Millisecond)
	assert.Equal(t, types.SearchKindFind, m.Classify(types.SearchKindFind))
}

func TestModeClassifierGrowthIsNotAShrink(t *testing.T) {
	now := time.Now()
	m := NewModeClassifier(time.Second)
	m.now = func() time.Time { return now }

	m.RecordVisibleRange(40)
	m.RecordVisibleRange(100)

	assert.Equal(t, types.SearchKindFind, m.Classify(types.SearchKindFind))
}

func TestModeClassifierNoHistoryMeansFind(t *testing.T) {
	m := NewModeClassifier(time.Second)
	assert.Equal(t, types.SearchKindFind, m.Classify(types.SearchKindFind))
	assert.Equal(t, types.SearchKindFind, m.Classify(types.SearchKindNone))
}
