package core

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/davidrodriguezvaron/Ragchatbot-codebase/internal/chunker"
	"github.com/davidrodriguezvaron/Ragchatbot-codebase/internal/models"
	"github.com/davidrodriguezvaron/Ragchatbot-codebase/internal/parser"
	"github.com/davidrodriguezvaron/Ragchatbot-codebase/internal/session"
	"github.com/davidrodriguezvaron/Ragchatbot-codebase/internal/vectorstore"
)

// RAGService composes parsing, chunking, the semantic store, the session
// store and the orchestrator into the two top-level operations: ingest and
// answer. Constructed once at startup and passed by reference into the
// request handlers.
type RAGService struct {
	store        *vectorstore.Store
	chunker      *chunker.Chunker
	sessions     session.Store
	orchestrator *Orchestrator
}

func NewRAGService(store *vectorstore.Store, ch *chunker.Chunker, sessions session.Store, orchestrator *Orchestrator) *RAGService {
	return &RAGService{store: store, chunker: ch, sessions: sessions, orchestrator: orchestrator}
}

// IngestReport summarizes one ingestion pass.
type IngestReport struct {
	CoursesAdded int
	ChunksAdded  int
	Skipped      int
	Failures     int
}

// IngestDirectory parses, chunks and upserts every .txt document in dir.
// Failures are per-document and non-fatal: the malformed document is
// skipped, the rest of the pass continues, and the report carries the
// failure count.
func (s *RAGService) IngestDirectory(ctx context.Context, dir string) (IngestReport, error) {
	var report IngestReport

	entries, err := os.ReadDir(dir)
	if err != nil {
		return report, fmt.Errorf("failed to read documents directory %s: %w", dir, err)
	}

	existing := make(map[string]bool)
	for _, title := range s.store.ListCourseTitles() {
		existing[title] = true
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".txt") {
			continue
		}
		path := filepath.Join(dir, entry.Name())

		raw, err := os.ReadFile(path)
		if err != nil {
			log.Printf("Failed to read %s: %v. Skipping.", path, err)
			report.Failures++
			continue
		}

		course, lessons, err := parser.Parse(string(raw))
		if err != nil {
			log.Printf("Failed to parse %s: %v. Skipping.", path, err)
			report.Failures++
			continue
		}

		if existing[course.Title] {
			report.Skipped++
			continue
		}

		chunks := s.chunker.ChunkCourse(course, lessons)
		added, err := s.store.UpsertCourse(ctx, course, chunks)
		if err != nil {
			log.Printf("Failed to ingest course %q from %s: %v. Skipping.", course.Title, path, err)
			report.Failures++
			continue
		}
		if !added {
			report.Skipped++
			continue
		}
		existing[course.Title] = true
		report.CoursesAdded++
		report.ChunksAdded += len(chunks)
	}

	log.Printf("Ingestion pass complete: %d courses (%d chunks) added, %d skipped, %d failures.",
		report.CoursesAdded, report.ChunksAdded, report.Skipped, report.Failures)
	return report, nil
}

// Answer runs one query. An empty session id creates a fresh session; the
// exchange is appended to the session after a successful answer.
func (s *RAGService) Answer(ctx context.Context, query, sessionID string) (answer string, sources []models.Source, sid string, err error) {
	if sessionID == "" {
		sessionID = s.sessions.Create()
	}
	history := session.FormatHistory(s.sessions.History(sessionID))

	answer, sources, err = s.orchestrator.Respond(ctx, query, history)
	if err != nil {
		return "", nil, sessionID, fmt.Errorf("failed to answer query: %w", err)
	}

	s.sessions.Append(sessionID, query, answer)
	return answer, sources, sessionID, nil
}

// Analytics reports what is currently cataloged.
type Analytics struct {
	TotalCourses int      `json:"total_courses"`
	CourseTitles []string `json:"course_titles"`
}

func (s *RAGService) Analytics() Analytics {
	return Analytics{
		TotalCourses: s.store.CourseCount(),
		CourseTitles: s.store.ListCourseTitles(),
	}
}

func (s *RAGService) ClearSession(sessionID string) {
	s.sessions.Clear(sessionID)
}
