package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type questionPayload struct {
	Title string   `json:"title" validate:"required,min=10,max=300"`
	Tags  []string `json:"tags" validate:"required,min=1,max=5,dive,min=2,max=20,forumtag"`
}

func TestDescribeReportsJSONFieldNames(t *testing.T) {
	validate := New()

	err := validate.Struct(questionPayload{Title: "short", Tags: []string{"C"}})
	require.Error(t, err)
	require.True(t, IsValidationError(err))

	fields := Describe(err)
	require.Len(t, fields, 2)
	require.Equal(t, "title", fields[0].Field)
	require.Equal(t, "must be at least 10 characters", fields[0].Message)
	require.Equal(t, "tags[0]", fields[1].Field)
}

func TestForumTagRule(t *testing.T) {
	validate := New()

	require.NoError(t, validate.Struct(questionPayload{Title: "How to center a div", Tags: []string{"c++", "c#", "node.js"}}))
	require.Error(t, validate.Struct(questionPayload{Title: "How to center a div", Tags: []string{"has space"}}))
}

func TestDescribeFieldError(t *testing.T) {
	err := NewError("questionId", "is required")
	require.True(t, IsValidationError(err))
	require.Equal(t, []FieldError{{Field: "questionId", Message: "is required"}}, Describe(err))
	require.Contains(t, err.Error(), "questionId")

	require.False(t, IsValidationError(errors.New("boom")))
	require.Nil(t, Describe(errors.New("boom")))
}
