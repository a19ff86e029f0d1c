package chunker

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/davidrodriguezvaron/Ragchatbot-codebase/internal/models"
	"github.com/davidrodriguezvaron/Ragchatbot-codebase/internal/parser"
)

const (
	DefaultTargetSize = 800
	DefaultOverlap    = 100
)

var (
	whitespace = regexp.MustCompile(`\s+`)
	// A sentence runs up to boundary punctuation, including any closing
	// quotes or brackets that trail it.
	sentenceEnd = regexp.MustCompile(`[^.!?]*[.!?]+["')\]]*\s*`)
)

// Chunker splits lesson text into overlapping, sentence-aligned chunks.
// Chunks never break inside a sentence: a sentence longer than the target
// size becomes its own oversized chunk.
type Chunker struct {
	targetSize int
	overlap    int
}

func New(targetSize, overlap int) *Chunker {
	if targetSize <= 0 {
		targetSize = DefaultTargetSize
	}
	if overlap < 0 {
		overlap = DefaultOverlap
	}
	return &Chunker{targetSize: targetSize, overlap: overlap}
}

// ChunkCourse chunks every lesson of a course. Chunk indices are assigned
// sequentially across the whole course, not per lesson, and the first chunk
// of each lesson is prefixed with a synthetic header naming the course and
// lesson so standalone retrieval keeps its context.
func (c *Chunker) ChunkCourse(course *models.Course, lessons []parser.LessonText) []models.Chunk {
	var chunks []models.Chunk
	index := 0
	for _, lesson := range lessons {
		for i, text := range c.Chunk(lesson.Text) {
			if i == 0 {
				text = lessonHeader(course.Title, lesson.Number) + text
			}
			chunks = append(chunks, models.Chunk{
				Content:      text,
				CourseTitle:  course.Title,
				LessonNumber: lesson.Number,
				Index:        index,
			})
			index++
		}
	}
	return chunks
}

func lessonHeader(courseTitle string, lessonNumber *int) string {
	if lessonNumber == nil {
		return fmt.Sprintf("Course %s content: ", courseTitle)
	}
	return fmt.Sprintf("Course %s Lesson %d content: ", courseTitle, *lessonNumber)
}

// Chunk splits one lesson's text into chunk payloads. Sentences are
// accumulated greedily up to the target size; each emitted window seeds the
// next with trailing sentences totalling at most the overlap budget.
func (c *Chunker) Chunk(text string) []string {
	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	var window []string

	for _, sentence := range sentences {
		if len(sentence) > c.targetSize {
			// Oversized sentence: flush the window and emit it alone.
			if len(window) > 0 {
				chunks = append(chunks, strings.Join(window, " "))
			}
			chunks = append(chunks, sentence)
			window = nil
			continue
		}
		if len(window) > 0 && joinedLen(window)+1+len(sentence) > c.targetSize {
			chunks = append(chunks, strings.Join(window, " "))
			window = c.overlapTail(window, c.targetSize-len(sentence)-1)
		}
		window = append(window, sentence)
	}
	if len(window) > 0 {
		chunks = append(chunks, strings.Join(window, " "))
	}
	return chunks
}

// overlapTail returns the longest suffix of the previous window whose joined
// length fits both the overlap setting and the remaining room in the next
// chunk, so overlap never pushes a chunk past the target size.
func (c *Chunker) overlapTail(window []string, room int) []string {
	budget := c.overlap
	if room < budget {
		budget = room
	}
	var tail []string
	total := 0
	for i := len(window) - 1; i >= 0; i-- {
		add := len(window[i])
		if len(tail) > 0 {
			add++ // joining space
		}
		if total+add > budget {
			break
		}
		total += add
		tail = append([]string{window[i]}, tail...)
	}
	return tail
}

// SplitSentences normalizes whitespace and segments text on boundary
// punctuation. Trailing text without terminal punctuation is kept as a
// final sentence.
func SplitSentences(text string) []string {
	normalized := strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
	if normalized == "" {
		return nil
	}

	var sentences []string
	rest := normalized
	for {
		loc := sentenceEnd.FindStringIndex(rest)
		if loc == nil || loc[0] != 0 {
			break
		}
		sentences = append(sentences, strings.TrimSpace(rest[:loc[1]]))
		rest = rest[loc[1]:]
	}
	if trimmed := strings.TrimSpace(rest); trimmed != "" {
		sentences = append(sentences, trimmed)
	}
	return sentences
}

func joinedLen(window []string) int {
	total := 0
	for i, s := range window {
		if i > 0 {
			total++
		}
		total += len(s)
	}
	return total
}
