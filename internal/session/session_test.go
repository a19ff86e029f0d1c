package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateReturnsDistinctIDs(t *testing.T) {
	s := NewMemoryStore(2)
	a := s.Create()
	b := s.Create()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
	assert.Empty(t, s.History(a))
}

func TestHistoryUnknownIDIsEmpty(t *testing.T) {
	s := NewMemoryStore(2)
	assert.Empty(t, s.History("never-seen"))
}

func TestAppendTrimsToMaxHistory(t *testing.T) {
	s := NewMemoryStore(2)
	id := s.Create()

	s.Append(id, "q1", "a1")
	s.Append(id, "q2", "a2")
	s.Append(id, "q3", "a3")

	history := s.History(id)
	require.Len(t, history, 2)
	assert.Equal(t, "q2", history[0].UserText, "oldest exchange dropped first")
	assert.Equal(t, "q3", history[1].UserText)
	assert.Equal(t, "a3", history[1].AssistantText)
}

func TestClearKeepsIDUsable(t *testing.T) {
	s := NewMemoryStore(5)
	id := s.Create()
	s.Append(id, "q1", "a1")

	s.Clear(id)
	assert.Empty(t, s.History(id))

	s.Append(id, "q2", "a2")
	history := s.History(id)
	require.Len(t, history, 1)
	assert.Equal(t, "q2", history[0].UserText)
}

func TestAppendToForeignIDCreatesSession(t *testing.T) {
	s := NewMemoryStore(2)
	s.Append("caller-chosen", "q", "a")
	assert.Len(t, s.History("caller-chosen"), 1)
}

func TestSessionsAreIndependent(t *testing.T) {
	s := NewMemoryStore(2)
	a := s.Create()
	b := s.Create()
	s.Append(a, "for-a", "answer-a")

	assert.Len(t, s.History(a), 1)
	assert.Empty(t, s.History(b))
}

func TestConcurrentAppendsAreBounded(t *testing.T) {
	s := NewMemoryStore(3)
	id := s.Create()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Append(id, fmt.Sprintf("q%d", i), "a")
		}(i)
	}
	wg.Wait()

	assert.Len(t, s.History(id), 3)
}

func TestFormatHistory(t *testing.T) {
	assert.Empty(t, FormatHistory(nil))

	got := FormatHistory([]Exchange{
		{UserText: "What is MCP?", AssistantText: "MCP is a protocol."},
		{UserText: "More?", AssistantText: "Sure."},
	})
	assert.Equal(t, "User: What is MCP?\nAssistant: MCP is a protocol.\nUser: More?\nAssistant: Sure.", got)
}
