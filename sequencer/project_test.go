package sequencer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(times ...time.Time) func() time.Time {
	i := 0
	return func() time.Time {
		t := times[min(i, len(times)-1)]
		i++
		return t
	}
}

func TestProjectsSaveListLoad(t *testing.T) {
	p := NewProjects(t.TempDir())
	t0 := time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)
	p.now = fixedClock(t0, t0.Add(time.Minute))

	s := newTestStore()
	s.EuclideanPattern(3, 8)
	first, err := p.Save(s, "demo", "")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15_14-30-00.json", first)

	s.InvertPattern()
	second, err := p.Save(s, "demo", "big drop")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15_14-31-00_big-drop.json", second)

	projects, err := p.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"demo"}, projects)

	saves, err := p.Saves("demo")
	require.NoError(t, err)
	require.Len(t, saves, 2)
	assert.Equal(t, second, saves[0].Filename, "newest first")
	assert.Equal(t, "big-drop", saves[0].Name)
	assert.Equal(t, "", saves[1].Name)

	other := newTestStore()
	require.NoError(t, p.Load(other, "demo", ""))
	assert.Equal(t, s.Pattern(), other.Pattern())

	require.NoError(t, p.Load(other, "demo", first))
	assert.Equal(t, []int{2, 5, 7}, activeIndices(other.CurrentTrack().Steps))
}

func TestProjectsEmpty(t *testing.T) {
	p := NewProjects(t.TempDir() + "/none")
	projects, err := p.List()
	require.NoError(t, err)
	assert.Empty(t, projects)

	saves, err := p.Saves("ghost")
	require.NoError(t, err)
	assert.Empty(t, saves)

	assert.ErrorContains(t, p.Load(newTestStore(), "ghost", ""), "no saves")
}

func TestProjectsRenameDelete(t *testing.T) {
	p := NewProjects(t.TempDir())
	p.now = fixedClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	s := newTestStore()

	name, err := p.Save(s, "a", "x")
	require.NoError(t, err)

	renamed, err := p.RenameSave("a", name, "new: name?")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01_09-00-00_new--name.json", renamed)

	_, err = p.RenameSave("a", "bogus.json", "y")
	assert.Error(t, err)

	require.NoError(t, p.Rename("a", "b"))
	saves, err := p.Saves("b")
	require.NoError(t, err)
	require.Len(t, saves, 1)

	require.NoError(t, p.DeleteSave("b", renamed))
	saves, _ = p.Saves("b")
	assert.Empty(t, saves)

	require.NoError(t, p.Create("c"))
	require.NoError(t, p.Delete("b"))
	projects, _ := p.List()
	assert.Equal(t, []string{"c"}, projects)
}
