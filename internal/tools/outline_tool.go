package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/davidrodriguezvaron/Ragchatbot-codebase/internal/models"
	"github.com/davidrodriguezvaron/Ragchatbot-codebase/internal/vectorstore"
)

// CourseOutlineTool retrieves a course's outline: title, link, and the
// numbered lesson list.
type CourseOutlineTool struct {
	store *vectorstore.Store
}

func NewCourseOutlineTool(store *vectorstore.Store) *CourseOutlineTool {
	return &CourseOutlineTool{store: store}
}

func (t *CourseOutlineTool) Definition() Definition {
	return Definition{
		Name: "get_course_outline",
		Description: "Get the outline/syllabus/structure of a course, including its " +
			"list of lessons. Use this when the user asks about what lessons " +
			"are in a course, the course structure, or course syllabus.",
		Properties: map[string]Property{
			"course_title": {
				Type:        "string",
				Description: "Course title or partial name (e.g. 'MCP', 'computer use')",
			},
		},
		Required: []string{"course_title"},
	}
}

func (t *CourseOutlineTool) Execute(ctx context.Context, args map[string]any) (*Result, error) {
	courseTitle := stringArg(args, "course_title")

	resolved, err := t.store.ResolveCourseName(ctx, courseTitle)
	if err != nil {
		if errors.Is(err, vectorstore.ErrCourseNotFound) {
			return &Result{Text: fmt.Sprintf("No course found matching '%s'.", courseTitle)}, nil
		}
		return nil, err
	}
	course, ok := t.store.CourseOutline(resolved)
	if !ok {
		return &Result{Text: fmt.Sprintf("No course found matching '%s'.", courseTitle)}, nil
	}

	source := models.Source{Course: course.Title, Link: course.Link}
	return &Result{Text: formatOutline(course), Sources: []models.Source{source}}, nil
}

func formatOutline(course *models.Course) string {
	link := course.Link
	if link == "" {
		link = "N/A"
	}
	lines := []string{
		fmt.Sprintf("Course: %s", course.Title),
		fmt.Sprintf("Link: %s", link),
		"",
		fmt.Sprintf("Lessons (%d total):", len(course.Lessons)),
	}
	for _, lesson := range course.Lessons {
		lines = append(lines, fmt.Sprintf("  Lesson %d: %s", lesson.Number, lesson.Title))
	}
	return strings.Join(lines, "\n")
}
