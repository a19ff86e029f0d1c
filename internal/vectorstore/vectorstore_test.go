package vectorstore

import (
	"context"
	"hash/fnv"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidrodriguezvaron/Ragchatbot-codebase/internal/models"
	"github.com/davidrodriguezvaron/Ragchatbot-codebase/internal/store"
)

// wordEmbedder is a deterministic bag-of-words embedding: identical texts
// embed identically and shared words raise similarity, which is all the
// ranking tests need.
type wordEmbedder struct{}

func (wordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, 64)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(word))
		vec[h.Sum32()%64]++
	}
	return vec, nil
}

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s, err := New(db, wordEmbedder{}, 0)
	require.NoError(t, err)
	return s, path
}

func intPtr(n int) *int { return &n }

func mcpCourse() (*models.Course, []models.Chunk) {
	course := &models.Course{
		Title: "MCP Introduction",
		Link:  "https://example.com/mcp",
		Lessons: []models.Lesson{
			{Number: 1, Title: "Getting Started", Link: "https://example.com/mcp/1"},
			{Number: 2, Title: "Servers", Link: "https://example.com/mcp/2"},
		},
	}
	chunks := []models.Chunk{
		{Content: "MCP is a protocol for tool use.", CourseTitle: course.Title, LessonNumber: intPtr(1), Index: 0},
		{Content: "Servers expose tools over MCP.", CourseTitle: course.Title, LessonNumber: intPtr(2), Index: 1},
	}
	return course, chunks
}

func TestUpsertCourseIsIdempotent(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	course, chunks := mcpCourse()

	added, err := s.UpsertCourse(ctx, course, chunks)
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, 1, s.CourseCount())

	added, err = s.UpsertCourse(ctx, course, chunks)
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, 1, s.CourseCount())

	results, err := s.SearchContent(ctx, "MCP", "", nil, 10)
	require.NoError(t, err)
	assert.Len(t, results, 2, "second upsert must not duplicate chunks")
}

func TestResolveCourseNameExactTitle(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	course, chunks := mcpCourse()
	_, err := s.UpsertCourse(ctx, course, chunks)
	require.NoError(t, err)

	title, err := s.ResolveCourseName(ctx, "MCP Introduction")
	require.NoError(t, err)
	assert.Equal(t, "MCP Introduction", title)
}

func TestResolveCourseNamePartial(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	course, chunks := mcpCourse()
	_, err := s.UpsertCourse(ctx, course, chunks)
	require.NoError(t, err)
	other := &models.Course{Title: "Python Basics"}
	_, err = s.UpsertCourse(ctx, other, nil)
	require.NoError(t, err)

	title, err := s.ResolveCourseName(ctx, "MCP")
	require.NoError(t, err)
	assert.Equal(t, "MCP Introduction", title)
}

func TestResolveCourseNameEmptyCatalog(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.ResolveCourseName(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrCourseNotFound)
}

func TestResolveCourseNameAcceptsDissimilarMatch(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	course, chunks := mcpCourse()
	_, err := s.UpsertCourse(ctx, course, chunks)
	require.NoError(t, err)

	// No threshold: with a non-empty catalog, even an unrelated reference
	// resolves to some course.
	title, err := s.ResolveCourseName(ctx, "underwater basket weaving")
	require.NoError(t, err)
	assert.Equal(t, "MCP Introduction", title)
}

func TestSearchContentFilters(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	course, chunks := mcpCourse()
	_, err := s.UpsertCourse(ctx, course, chunks)
	require.NoError(t, err)
	other := &models.Course{Title: "Python Basics"}
	otherChunks := []models.Chunk{
		{Content: "Python has a protocol for iteration.", CourseTitle: other.Title, LessonNumber: intPtr(1), Index: 0},
	}
	_, err = s.UpsertCourse(ctx, other, otherChunks)
	require.NoError(t, err)

	results, err := s.SearchContent(ctx, "protocol", "MCP Introduction", nil, 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	for _, r := range results {
		assert.Equal(t, "MCP Introduction", r.Chunk.CourseTitle)
	}

	results, err = s.SearchContent(ctx, "protocol", "MCP Introduction", intPtr(2), 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].Chunk.Index)

	results, err = s.SearchContent(ctx, "protocol", "MCP Introduction", intPtr(99), 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchContentLimitAndOrder(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	course := &models.Course{Title: "Tie Course"}
	chunks := []models.Chunk{
		{Content: "identical text", CourseTitle: course.Title, Index: 0},
		{Content: "identical text", CourseTitle: course.Title, Index: 1},
		{Content: "identical text", CourseTitle: course.Title, Index: 2},
	}
	_, err := s.UpsertCourse(ctx, course, chunks)
	require.NoError(t, err)

	results, err := s.SearchContent(ctx, "identical text", "", nil, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	// Equal scores break ties by ascending chunk index.
	assert.Equal(t, 0, results[0].Chunk.Index)
	assert.Equal(t, 1, results[1].Chunk.Index)
}

func TestStoreReloadsFromDisk(t *testing.T) {
	s, path := newTestStore(t)
	ctx := context.Background()
	course, chunks := mcpCourse()
	_, err := s.UpsertCourse(ctx, course, chunks)
	require.NoError(t, err)

	db, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	defer db.Close()
	reloaded, err := New(db, wordEmbedder{}, 0)
	require.NoError(t, err)

	assert.Equal(t, 1, reloaded.CourseCount())
	assert.Equal(t, []string{"MCP Introduction"}, reloaded.ListCourseTitles())

	results, err := reloaded.SearchContent(ctx, "MCP protocol", "", nil, 10)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	outline, ok := reloaded.CourseOutline("MCP Introduction")
	require.True(t, ok)
	assert.Len(t, outline.Lessons, 2)
}

func TestLessonLink(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	course, chunks := mcpCourse()
	_, err := s.UpsertCourse(ctx, course, chunks)
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/mcp/1", s.LessonLink("MCP Introduction", 1))
	assert.Empty(t, s.LessonLink("MCP Introduction", 9))
	assert.Empty(t, s.LessonLink("Unknown Course", 1))
}

func TestCosineSimilarity(t *testing.T) {
	score, err := CosineSimilarity([]float32{1, 0}, []float32{1, 0})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-6)

	score, err = CosineSimilarity([]float32{1, 0}, []float32{0, 1})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, score, 1e-6)

	_, err = CosineSimilarity(nil, []float32{1})
	assert.Error(t, err)

	_, err = CosineSimilarity([]float32{1, 2}, []float32{1})
	assert.Error(t, err)

	score, err = CosineSimilarity([]float32{0, 0}, []float32{1, 1})
	require.NoError(t, err)
	assert.Zero(t, score)
}
