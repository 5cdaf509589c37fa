package article

import (
	"unicode/utf8"

	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("article not found")
var ErrInvalid = errors.New("invalid article")

// Article is a news article as it is stored and returned by the API.
type Article struct {
	ID      int32  `json:"id" dynamodbav:"Id"`
	Title   string `json:"title" dynamodbav:"Title"`
	Content string `json:"content" dynamodbav:"Content"`
	Source  string `json:"source" dynamodbav:"Source"`
}

// Input is a client-provided article body.
// Fields are pointers to tell a missing key from an empty string.
type Input struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
	Source  *string `json:"source"`
}

// Limits restricts the length (in runes) of article fields. Zero means unlimited.
type Limits struct {
	MaxTitleLength   int
	MaxContentLength int
	MaxSourceLength  int
}

// Validate checks that all fields are present and fit the limits.
// The returned error wraps ErrInvalid.
func (in *Input) Validate(lim Limits) error {
	fields := []struct {
		name  string
		value *string
		max   int
	}{
		{"title", in.Title, lim.MaxTitleLength},
		{"content", in.Content, lim.MaxContentLength},
		{"source", in.Source, lim.MaxSourceLength},
	}

	for _, f := range fields {
		if f.value == nil {
			return errors.Wrapf(ErrInvalid, "%s is required", f.name)
		}
		if f.max > 0 && utf8.RuneCountInString(*f.value) > f.max {
			return errors.Wrapf(ErrInvalid, "%s is longer than %d characters", f.name, f.max)
		}
	}

	return nil
}

// Article converts a validated input into an article with the given id.
func (in *Input) Article(id int32) *Article {
	return &Article{
		ID:      id,
		Title:   *in.Title,
		Content: *in.Content,
		Source:  *in.Source,
	}
}
