package models

// Course is the unit of ingestion. Identity is the title; re-ingesting a
// title that is already present is a no-op.
type Course struct {
	Title      string   `json:"title"`
	Link       string   `json:"link,omitempty"`
	Instructor string   `json:"instructor,omitempty"`
	Lessons    []Lesson `json:"lessons"`
}

type Lesson struct {
	Number int    `json:"lesson_number"`
	Title  string `json:"lesson_title"`
	Link   string `json:"lesson_link,omitempty"`
}

// Chunk is a bounded, retrievable unit of lesson text. LessonNumber is nil
// for text that precedes any lesson marker. Index is monotonic across the
// whole course, not per lesson.
type Chunk struct {
	Content      string `json:"content"`
	CourseTitle  string `json:"course_title"`
	LessonNumber *int   `json:"lesson_number"` // Nullable
	Index        int    `json:"chunk_index"`
}

// Source identifies where a retrieved chunk came from, surfaced to the
// caller alongside the answer.
type Source struct {
	Course string `json:"course"`
	Lesson *int   `json:"lesson,omitempty"`
	Link   string `json:"link,omitempty"`
}
