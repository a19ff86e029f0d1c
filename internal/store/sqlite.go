package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/davidrodriguezvaron/Ragchatbot-codebase/internal/models"
)

// SQLiteStore persists the two semantic collections: the course catalog and
// the content chunks. Embeddings are stored as JSON blobs alongside their
// payloads; similarity ranking happens in memory, not in SQL.
type SQLiteStore struct {
	db *sql.DB
}

// CatalogEntry is one catalog row: course metadata plus the embedding of
// its title.
type CatalogEntry struct {
	Course    models.Course
	Embedding []float32
}

// ChunkEntry is one content row: a chunk plus the embedding of its text.
type ChunkEntry struct {
	Chunk     models.Chunk
	Embedding []float32
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS catalog (
        title TEXT PRIMARY KEY,
        link TEXT,
        instructor TEXT,
        lessons_json TEXT NOT NULL,
        embedding_json TEXT NOT NULL
    );

    CREATE TABLE IF NOT EXISTS chunks (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        course_title TEXT NOT NULL,
        lesson_number INTEGER, -- NULL for text before the first lesson
        chunk_index INTEGER NOT NULL,
        content TEXT NOT NULL,
        embedding_json TEXT NOT NULL,
        FOREIGN KEY (course_title) REFERENCES catalog (title)
    );

    CREATE INDEX IF NOT EXISTS idx_chunks_course ON chunks (course_title, chunk_index);
    `
	_, err := s.db.Exec(schema)
	return err
}

// InsertCourse writes one catalog entry and all of its chunks atomically.
// Callers are expected to have checked for an existing title first; a
// duplicate insert fails on the primary key.
func (s *SQLiteStore) InsertCourse(entry CatalogEntry, chunks []ChunkEntry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	lessonsJSON, err := json.Marshal(entry.Course.Lessons)
	if err != nil {
		return fmt.Errorf("failed to marshal lessons: %w", err)
	}
	embeddingJSON, err := json.Marshal(entry.Embedding)
	if err != nil {
		return fmt.Errorf("failed to marshal course embedding: %w", err)
	}

	_, err = tx.Exec(
		"INSERT INTO catalog (title, link, instructor, lessons_json, embedding_json) VALUES (?, ?, ?, ?, ?)",
		entry.Course.Title, entry.Course.Link, entry.Course.Instructor, string(lessonsJSON), string(embeddingJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to insert catalog entry: %w", err)
	}

	stmt, err := tx.Prepare("INSERT INTO chunks (course_title, lesson_number, chunk_index, content, embedding_json) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare chunk insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		chunkEmbedding, err := json.Marshal(c.Embedding)
		if err != nil {
			return fmt.Errorf("failed to marshal chunk embedding: %w", err)
		}
		var lessonNumber sql.NullInt64
		if c.Chunk.LessonNumber != nil {
			lessonNumber = sql.NullInt64{Int64: int64(*c.Chunk.LessonNumber), Valid: true}
		}
		if _, err := stmt.Exec(c.Chunk.CourseTitle, lessonNumber, c.Chunk.Index, c.Chunk.Content, string(chunkEmbedding)); err != nil {
			return fmt.Errorf("failed to insert chunk %d: %w", c.Chunk.Index, err)
		}
	}

	return tx.Commit()
}

// LoadCatalog reads every catalog row. Rows with an unreadable embedding
// are kept with a nil embedding so their payloads stay listable.
func (s *SQLiteStore) LoadCatalog() ([]CatalogEntry, error) {
	rows, err := s.db.Query("SELECT title, link, instructor, lessons_json, embedding_json FROM catalog")
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog: %w", err)
	}
	defer rows.Close()

	var entries []CatalogEntry
	for rows.Next() {
		var entry CatalogEntry
		var link, instructor sql.NullString
		var lessonsJSON, embeddingJSON string
		if err := rows.Scan(&entry.Course.Title, &link, &instructor, &lessonsJSON, &embeddingJSON); err != nil {
			return nil, fmt.Errorf("failed to scan catalog row: %w", err)
		}
		entry.Course.Link = link.String
		entry.Course.Instructor = instructor.String
		if err := json.Unmarshal([]byte(lessonsJSON), &entry.Course.Lessons); err != nil {
			log.Printf("Warning: failed to unmarshal lessons for course %q: %v", entry.Course.Title, err)
		}
		entry.Embedding = decodeEmbedding(embeddingJSON, entry.Course.Title)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// LoadChunks reads every content row in (course, chunk index) order.
func (s *SQLiteStore) LoadChunks() ([]ChunkEntry, error) {
	rows, err := s.db.Query("SELECT course_title, lesson_number, chunk_index, content, embedding_json FROM chunks ORDER BY course_title, chunk_index")
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	var entries []ChunkEntry
	for rows.Next() {
		var entry ChunkEntry
		var lessonNumber sql.NullInt64
		var embeddingJSON string
		if err := rows.Scan(&entry.Chunk.CourseTitle, &lessonNumber, &entry.Chunk.Index, &entry.Chunk.Content, &embeddingJSON); err != nil {
			return nil, fmt.Errorf("failed to scan chunk row: %w", err)
		}
		if lessonNumber.Valid {
			n := int(lessonNumber.Int64)
			entry.Chunk.LessonNumber = &n
		}
		entry.Embedding = decodeEmbedding(embeddingJSON, entry.Chunk.CourseTitle)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func decodeEmbedding(embeddingJSON, owner string) []float32 {
	if embeddingJSON == "" {
		log.Printf("Warning: empty embedding for %q", owner)
		return nil
	}
	var embedding []float32
	if err := json.Unmarshal([]byte(embeddingJSON), &embedding); err != nil {
		log.Printf("Warning: failed to unmarshal embedding for %q: %v", owner, err)
		return nil
	}
	return embedding
}
