package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `Course Title: Building Towards Computer Use
Course Link: https://example.com/courses/computer-use
Course Instructor: Colt Steele

Lesson 0: Introduction
Lesson Link: https://example.com/courses/computer-use/lesson-0
Welcome to the course. This lesson introduces the main ideas.

Lesson 1: API Basics
Lesson Link: https://example.com/courses/computer-use/lesson-1
The API accepts requests. It returns responses.
`

func TestParseFullDocument(t *testing.T) {
	course, texts, err := Parse(sampleDoc)
	require.NoError(t, err)

	assert.Equal(t, "Building Towards Computer Use", course.Title)
	assert.Equal(t, "https://example.com/courses/computer-use", course.Link)
	assert.Equal(t, "Colt Steele", course.Instructor)

	require.Len(t, course.Lessons, 2)
	assert.Equal(t, 0, course.Lessons[0].Number)
	assert.Equal(t, "Introduction", course.Lessons[0].Title)
	assert.Equal(t, "https://example.com/courses/computer-use/lesson-0", course.Lessons[0].Link)
	assert.Equal(t, 1, course.Lessons[1].Number)
	assert.Equal(t, "API Basics", course.Lessons[1].Title)

	require.Len(t, texts, 2)
	require.NotNil(t, texts[0].Number)
	assert.Equal(t, 0, *texts[0].Number)
	assert.Equal(t, "Welcome to the course. This lesson introduces the main ideas.", texts[0].Text)
	require.NotNil(t, texts[1].Number)
	assert.Equal(t, 1, *texts[1].Number)
	assert.Equal(t, "The API accepts requests. It returns responses.", texts[1].Text)
}

func TestParseOptionalHeadersAbsent(t *testing.T) {
	course, texts, err := Parse("Course Title: Minimal Course\n\nLesson 1: Only Lesson\nSome content here.\n")
	require.NoError(t, err)

	assert.Equal(t, "Minimal Course", course.Title)
	assert.Empty(t, course.Link)
	assert.Empty(t, course.Instructor)
	require.Len(t, course.Lessons, 1)
	assert.Empty(t, course.Lessons[0].Link)
	require.Len(t, texts, 1)
	assert.Equal(t, "Some content here.", texts[0].Text)
}

func TestParseMissingTitleIsMalformed(t *testing.T) {
	_, _, err := Parse("Course Instructor: Nobody\n\nLesson 1: Lost\ncontent\n")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedDocument))
}

func TestParseEmptyDocumentIsMalformed(t *testing.T) {
	_, _, err := Parse("")
	assert.True(t, errors.Is(err, ErrMalformedDocument))
}

func TestParseLessonsOrderedByNumber(t *testing.T) {
	doc := "Course Title: Shuffled\n\nLesson 2: Second\ntwo\n\nLesson 1: First\none\n"
	course, texts, err := Parse(doc)
	require.NoError(t, err)

	require.Len(t, course.Lessons, 2)
	assert.Equal(t, 1, course.Lessons[0].Number)
	assert.Equal(t, 2, course.Lessons[1].Number)
	require.Len(t, texts, 2)
	assert.Equal(t, "one", texts[0].Text)
	assert.Equal(t, "two", texts[1].Text)
}

func TestParsePreambleKeptWithoutLessonNumber(t *testing.T) {
	doc := "Course Title: With Preamble\n\nAn overview paragraph before any lesson.\n\nLesson 1: Start\nlesson text\n"
	course, texts, err := Parse(doc)
	require.NoError(t, err)

	require.Len(t, course.Lessons, 1)
	require.Len(t, texts, 2)
	assert.Nil(t, texts[0].Number)
	assert.Equal(t, "An overview paragraph before any lesson.", texts[0].Text)
	require.NotNil(t, texts[1].Number)
	assert.Equal(t, 1, *texts[1].Number)
}

func TestParseDocumentWithoutLessons(t *testing.T) {
	course, texts, err := Parse("Course Title: Flat Course\n\nJust one block of text. Nothing else.\n")
	require.NoError(t, err)

	assert.Empty(t, course.Lessons)
	require.Len(t, texts, 1)
	assert.Nil(t, texts[0].Number)
}
