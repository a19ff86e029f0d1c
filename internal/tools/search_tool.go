package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/davidrodriguezvaron/Ragchatbot-codebase/internal/models"
	"github.com/davidrodriguezvaron/Ragchatbot-codebase/internal/vectorstore"
)

// CourseSearchTool searches course content with fuzzy course-name matching
// and optional lesson filtering.
type CourseSearchTool struct {
	store      *vectorstore.Store
	maxResults int
}

func NewCourseSearchTool(store *vectorstore.Store, maxResults int) *CourseSearchTool {
	return &CourseSearchTool{store: store, maxResults: maxResults}
}

func (t *CourseSearchTool) Definition() Definition {
	return Definition{
		Name:        "search_course_content",
		Description: "Search course materials with smart course name matching and lesson filtering",
		Properties: map[string]Property{
			"query": {
				Type:        "string",
				Description: "What to search for in the course content",
			},
			"course_name": {
				Type:        "string",
				Description: "Course title (partial matches work, e.g. 'MCP', 'Introduction')",
			},
			"lesson_number": {
				Type:        "integer",
				Description: "Specific lesson number to search within (e.g. 1, 2, 3)",
			},
		},
		Required: []string{"query"},
	}
}

func (t *CourseSearchTool) Execute(ctx context.Context, args map[string]any) (*Result, error) {
	query := stringArg(args, "query")
	courseName := stringArg(args, "course_name")
	lessonNumber := intArg(args, "lesson_number")

	courseTitle := ""
	if courseName != "" {
		resolved, err := t.store.ResolveCourseName(ctx, courseName)
		if err != nil {
			if errors.Is(err, vectorstore.ErrCourseNotFound) {
				// Not an error for the conversation: the model relays the
				// miss to the user.
				return &Result{Text: fmt.Sprintf("No course found matching '%s'.", courseName)}, nil
			}
			return nil, err
		}
		courseTitle = resolved
	}

	results, err := t.store.SearchContent(ctx, query, courseTitle, lessonNumber, t.maxResults)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return &Result{Text: emptyResultMessage(courseName, lessonNumber)}, nil
	}
	return t.formatResults(results), nil
}

func emptyResultMessage(courseName string, lessonNumber *int) string {
	var filterInfo strings.Builder
	if courseName != "" {
		fmt.Fprintf(&filterInfo, " in course '%s'", courseName)
	}
	if lessonNumber != nil {
		fmt.Fprintf(&filterInfo, " in lesson %d", *lessonNumber)
	}
	return fmt.Sprintf("No relevant content found%s.", filterInfo.String())
}

// formatResults renders matched chunks as a single text block grouped under
// [course - lesson] headers, preserving store order, and collects one
// source record per distinct course/lesson pair.
func (t *CourseSearchTool) formatResults(results []vectorstore.SearchResult) *Result {
	var blocks []string
	var sources []models.Source
	seen := make(map[string]bool)

	for _, result := range results {
		chunk := result.Chunk
		header := "[" + chunk.CourseTitle
		if chunk.LessonNumber != nil {
			header += fmt.Sprintf(" - Lesson %d", *chunk.LessonNumber)
		}
		header += "]"
		blocks = append(blocks, header+"\n"+chunk.Content)

		key := chunk.CourseTitle
		if chunk.LessonNumber != nil {
			key = fmt.Sprintf("%s|%d", chunk.CourseTitle, *chunk.LessonNumber)
		}
		if seen[key] {
			continue
		}
		seen[key] = true

		source := models.Source{Course: chunk.CourseTitle, Lesson: chunk.LessonNumber}
		if chunk.LessonNumber != nil {
			source.Link = t.store.LessonLink(chunk.CourseTitle, *chunk.LessonNumber)
		}
		sources = append(sources, source)
	}

	return &Result{Text: strings.Join(blocks, "\n\n"), Sources: sources}
}
