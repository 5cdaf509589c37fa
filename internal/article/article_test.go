package article

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string {
	return &s
}

func TestInput_Validate(t *testing.T) {
	lim := Limits{MaxTitleLength: 5, MaxSourceLength: 3}

	cases := []struct {
		name    string
		input   Input
		wantErr bool
	}{
		{
			name:  "all fields",
			input: Input{Title: strPtr("Hello"), Content: strPtr(strings.Repeat("x", 1000)), Source: strPtr("bbc")},
		},
		{
			name:  "empty strings are allowed",
			input: Input{Title: strPtr(""), Content: strPtr(""), Source: strPtr("")},
		},
		{
			name:  "limit counts runes",
			input: Input{Title: strPtr("Привет"[:10]), Content: strPtr("c"), Source: strPtr("тас")},
		},
		{
			name:    "missing title",
			input:   Input{Content: strPtr("c"), Source: strPtr("s")},
			wantErr: true,
		},
		{
			name:    "missing content",
			input:   Input{Title: strPtr("t"), Source: strPtr("s")},
			wantErr: true,
		},
		{
			name:    "missing source",
			input:   Input{Title: strPtr("t"), Content: strPtr("c")},
			wantErr: true,
		},
		{
			name:    "title too long",
			input:   Input{Title: strPtr("Headline"), Content: strPtr("c"), Source: strPtr("s")},
			wantErr: true,
		},
		{
			name:    "source too long",
			input:   Input{Title: strPtr("t"), Content: strPtr("c"), Source: strPtr("reuters")},
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.input.Validate(lim)
			if !tc.wantErr {
				assert.NoError(t, err)
				return
			}

			assert.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid))
		})
	}
}

func TestInput_Article(t *testing.T) {
	in := Input{Title: strPtr("t"), Content: strPtr("c"), Source: strPtr("s")}

	a := in.Article(42)
	assert.Equal(t, &Article{ID: 42, Title: "t", Content: "c", Source: "s"}, a)
}

func TestApplyPage(t *testing.T) {
	articles := []Article{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}}

	assert.Len(t, applyPage(articles, Page{}), 4)
	assert.Equal(t, []Article{{ID: 2}, {ID: 3}}, applyPage(articles, Page{Limit: 2, Offset: 1}))
	assert.Equal(t, []Article{{ID: 4}}, applyPage(articles, Page{Limit: 10, Offset: 3}))
	assert.Empty(t, applyPage(articles, Page{Offset: 4}))
	assert.NotNil(t, applyPage(articles, Page{Offset: 100}))
}
