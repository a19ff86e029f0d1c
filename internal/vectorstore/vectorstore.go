package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/davidrodriguezvaron/Ragchatbot-codebase/internal/models"
	"github.com/davidrodriguezvaron/Ragchatbot-codebase/internal/store"
)

// ErrCourseNotFound is returned when a course name cannot be resolved
// against the catalog.
var ErrCourseNotFound = errors.New("no matching course found")

// Embedder converts text into its vector representation. Implemented by
// core.LLMService against the Gemini embedding model.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// SearchResult is a matching chunk with its similarity score.
type SearchResult struct {
	Chunk models.Chunk
	Score float32
}

// Store is the two-tier semantic store: a catalog collection used only for
// fuzzy course-name resolution, and a content collection ranked for
// retrieval. Both are persisted in sqlite and cached in memory; ranking is
// brute-force cosine similarity over the cache, which is read-mostly after
// the startup ingestion pass.
type Store struct {
	mu       sync.RWMutex
	db       *store.SQLiteStore
	embedder Embedder
	timeout  time.Duration

	catalog []store.CatalogEntry
	content []store.ChunkEntry
}

func New(db *store.SQLiteStore, embedder Embedder, timeout time.Duration) (*Store, error) {
	catalog, err := db.LoadCatalog()
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	content, err := db.LoadChunks()
	if err != nil {
		return nil, fmt.Errorf("failed to load chunks: %w", err)
	}
	if len(catalog) > 0 {
		log.Printf("Semantic store loaded with %d courses and %d chunks.", len(catalog), len(content))
	}
	return &Store{db: db, embedder: embedder, timeout: timeout, catalog: catalog, content: content}, nil
}

func (s *Store) embed(ctx context.Context, text string) ([]float32, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.embedder.Embed(ctx, text)
}

// UpsertCourse inserts a course and its chunks into both collections.
// Idempotent by title: if the course is already cataloged nothing is
// written and added is false.
func (s *Store) UpsertCourse(ctx context.Context, course *models.Course, chunks []models.Chunk) (added bool, err error) {
	s.mu.RLock()
	exists := s.hasTitleLocked(course.Title)
	s.mu.RUnlock()
	if exists {
		return false, nil
	}

	titleEmbedding, err := s.embed(ctx, course.Title)
	if err != nil {
		return false, fmt.Errorf("failed to embed course title: %w", err)
	}
	catalogEntry := store.CatalogEntry{Course: *course, Embedding: titleEmbedding}

	chunkEntries := make([]store.ChunkEntry, 0, len(chunks))
	for _, chunk := range chunks {
		embedding, err := s.embed(ctx, chunk.Content)
		if err != nil {
			return false, fmt.Errorf("failed to embed chunk %d: %w", chunk.Index, err)
		}
		chunkEntries = append(chunkEntries, store.ChunkEntry{Chunk: chunk, Embedding: embedding})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hasTitleLocked(course.Title) {
		return false, nil
	}
	if err := s.db.InsertCourse(catalogEntry, chunkEntries); err != nil {
		return false, fmt.Errorf("failed to persist course %q: %w", course.Title, err)
	}
	s.catalog = append(s.catalog, catalogEntry)
	s.content = append(s.content, chunkEntries...)
	return true, nil
}

func (s *Store) hasTitleLocked(title string) bool {
	for _, entry := range s.catalog {
		if entry.Course.Title == title {
			return true
		}
	}
	return false
}

// ResolveCourseName maps a possibly partial course reference to a cataloged
// title. An exact title wins outright; otherwise the nearest catalog entry
// by title embedding is accepted unconditionally, with no similarity
// threshold, so a dissimilar reference still resolves to some course.
func (s *Store) ResolveCourseName(ctx context.Context, partial string) (string, error) {
	s.mu.RLock()
	if s.hasTitleLocked(partial) {
		s.mu.RUnlock()
		return partial, nil
	}
	if len(s.catalog) == 0 {
		s.mu.RUnlock()
		return "", ErrCourseNotFound
	}
	s.mu.RUnlock()

	queryEmbedding, err := s.embed(ctx, partial)
	if err != nil {
		return "", fmt.Errorf("failed to embed course name: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	best := ""
	bestScore := float32(-2)
	for _, entry := range s.catalog {
		score, err := CosineSimilarity(queryEmbedding, entry.Embedding)
		if err != nil {
			log.Printf("Skipping course %q during resolution: %v", entry.Course.Title, err)
			continue
		}
		if score > bestScore {
			best = entry.Course.Title
			bestScore = score
		}
	}
	if best == "" {
		return "", ErrCourseNotFound
	}
	return best, nil
}

// SearchContent ranks content chunks against the query, optionally
// restricted to an exact course title and/or lesson number before ranking.
// Results come back in descending similarity, ties broken by ascending
// chunk index.
func (s *Store) SearchContent(ctx context.Context, query, courseTitle string, lessonNumber *int, k int) ([]SearchResult, error) {
	queryEmbedding, err := s.embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []SearchResult
	for _, entry := range s.content {
		if courseTitle != "" && entry.Chunk.CourseTitle != courseTitle {
			continue
		}
		if lessonNumber != nil && (entry.Chunk.LessonNumber == nil || *entry.Chunk.LessonNumber != *lessonNumber) {
			continue
		}
		score, err := CosineSimilarity(queryEmbedding, entry.Embedding)
		if err != nil {
			log.Printf("Skipping chunk %d of %q: %v", entry.Chunk.Index, entry.Chunk.CourseTitle, err)
			continue
		}
		results = append(results, SearchResult{Chunk: entry.Chunk, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.Index < results[j].Chunk.Index
	})
	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// ListCourseTitles enumerates catalog titles, used for existence checks
// during ingestion and for the course analytics endpoint.
func (s *Store) ListCourseTitles() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	titles := make([]string, 0, len(s.catalog))
	for _, entry := range s.catalog {
		titles = append(titles, entry.Course.Title)
	}
	sort.Strings(titles)
	return titles
}

func (s *Store) CourseCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.catalog)
}

// CourseOutline returns the cataloged metadata for an exact title.
func (s *Store) CourseOutline(title string) (*models.Course, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, entry := range s.catalog {
		if entry.Course.Title == title {
			course := entry.Course
			return &course, true
		}
	}
	return nil, false
}

// LessonLink returns the link for a lesson of a cataloged course, or ""
// when either is unknown.
func (s *Store) LessonLink(courseTitle string, lessonNumber int) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, entry := range s.catalog {
		if entry.Course.Title != courseTitle {
			continue
		}
		for _, lesson := range entry.Course.Lessons {
			if lesson.Number == lessonNumber {
				return lesson.Link
			}
		}
	}
	return ""
}
