package parser

import (
	"bufio"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/davidrodriguezvaron/Ragchatbot-codebase/internal/models"
)

// ErrMalformedDocument is returned when a document is missing the mandatory
// course title header. The ingestion loop treats it as per-document and
// continues with the remaining files.
var ErrMalformedDocument = errors.New("malformed document")

const (
	titlePrefix      = "Course Title:"
	linkPrefix       = "Course Link:"
	instructorPrefix = "Course Instructor:"
	lessonLinkPrefix = "Lesson Link:"
)

var lessonMarker = regexp.MustCompile(`^Lesson\s+(\d+):\s*(.*)$`)

// LessonText pairs a lesson's raw content with its attribution. Number is
// nil for text appearing before the first lesson marker.
type LessonText struct {
	Number *int
	Text   string
}

// Parse reads one course document: a three-line header (title mandatory,
// link and instructor optional) followed by lesson blocks introduced by
// "Lesson <n>: <title>" markers. Returns course metadata plus the raw text
// of each lesson in lesson-number order.
func Parse(raw string) (*models.Course, []LessonText, error) {
	scanner := bufio.NewScanner(strings.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to scan document: %w", err)
	}

	course := &models.Course{}
	body := 0

	// Header: the first three non-blank lines, of which only the title is
	// required. Anything that doesn't match a header prefix starts the body.
	headerLines := 0
	for i := 0; i < len(lines) && headerLines < 3; i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			body = i + 1
			continue
		}
		switch {
		case strings.HasPrefix(trimmed, titlePrefix):
			course.Title = strings.TrimSpace(strings.TrimPrefix(trimmed, titlePrefix))
		case strings.HasPrefix(trimmed, linkPrefix):
			course.Link = strings.TrimSpace(strings.TrimPrefix(trimmed, linkPrefix))
		case strings.HasPrefix(trimmed, instructorPrefix):
			course.Instructor = strings.TrimSpace(strings.TrimPrefix(trimmed, instructorPrefix))
		default:
			headerLines = 3
			continue
		}
		headerLines++
		body = i + 1
	}

	if course.Title == "" {
		return nil, nil, fmt.Errorf("%w: missing %q header line", ErrMalformedDocument, titlePrefix)
	}

	lessons, texts := parseLessons(lines[body:])
	course.Lessons = lessons
	return course, texts, nil
}

func parseLessons(lines []string) ([]models.Lesson, []LessonText) {
	var lessons []models.Lesson
	var texts []LessonText

	var current *models.Lesson
	var content []string

	flush := func() {
		text := strings.TrimSpace(strings.Join(content, "\n"))
		content = content[:0]
		if current == nil {
			// Preamble before the first lesson marker keeps course
			// attribution but no lesson number.
			if text != "" {
				texts = append(texts, LessonText{Text: text})
			}
			return
		}
		lessons = append(lessons, *current)
		n := current.Number
		texts = append(texts, LessonText{Number: &n, Text: text})
		current = nil
	}

	for i := 0; i < len(lines); i++ {
		if m := lessonMarker.FindStringSubmatch(strings.TrimSpace(lines[i])); m != nil {
			flush()
			num, err := strconv.Atoi(m[1])
			if err != nil {
				// Marker regexp only admits digits; overflow is the one
				// way this fails. Treat the line as plain content.
				content = append(content, lines[i])
				continue
			}
			current = &models.Lesson{Number: num, Title: strings.TrimSpace(m[2])}

			// An optional "Lesson Link:" may follow the marker directly.
			if i+1 < len(lines) {
				next := strings.TrimSpace(lines[i+1])
				if strings.HasPrefix(next, lessonLinkPrefix) {
					current.Link = strings.TrimSpace(strings.TrimPrefix(next, lessonLinkPrefix))
					i++
				}
			}
			continue
		}
		content = append(content, lines[i])
	}
	flush()

	// Lesson order is the number attribute, not document order.
	sort.SliceStable(lessons, func(i, j int) bool { return lessons[i].Number < lessons[j].Number })
	sort.SliceStable(texts, func(i, j int) bool {
		switch {
		case texts[i].Number == nil:
			return texts[j].Number != nil
		case texts[j].Number == nil:
			return false
		default:
			return *texts[i].Number < *texts[j].Number
		}
	})

	return lessons, texts
}
