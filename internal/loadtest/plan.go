package loadtest

import (
	"os"
	"time"

	"github.com/montekkundan/newsapi/internal/article"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Kind string

const (
	KindList   Kind = "list"
	KindGet    Kind = "get"
	KindCreate Kind = "create"
)

type Plan struct {
	Requests []*Request `yaml:"requests"`
}

// Request is one replayed API call. Elapsed and Error are filled by the processor.
type Request struct {
	Kind      Kind      `yaml:"kind"`
	Timestamp time.Time `yaml:"timestamp,omitempty"`

	// ID is used by get.
	ID int32 `yaml:"id,omitempty"`

	// Limit and Offset are used by list.
	Limit  int `yaml:"limit,omitempty"`
	Offset int `yaml:"offset,omitempty"`

	// Article is used by create.
	Article *ArticleData `yaml:"article,omitempty"`

	Elapsed *time.Duration `yaml:"elapsed,omitempty"`
	Error   string         `yaml:"error,omitempty"`
}

type ArticleData struct {
	Title   string `yaml:"title"`
	Content string `yaml:"content"`
	Source  string `yaml:"source"`
}

func (r *Request) page() article.Page {
	return article.Page{Limit: r.Limit, Offset: r.Offset}
}

func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read the plan")
	}

	plan := new(Plan)
	err = yaml.Unmarshal(data, plan)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse the plan")
	}

	err = plan.validate()
	if err != nil {
		return nil, errors.Wrap(err, "invalid plan")
	}

	return plan, nil
}

// validate verifies the requests and sets default values for missed fields.
func (p *Plan) validate() error {
	if len(p.Requests) == 0 {
		return errors.New("no requests")
	}

	for i, r := range p.Requests {
		switch r.Kind {
		case "":
			r.Kind = KindList

		case KindList, KindGet:

		case KindCreate:
			if r.Article == nil {
				return errors.Errorf("request %d: create requires an article", i)
			}

		default:
			return errors.Errorf("request %d: unknown kind %s (supported: %s, %s, %s)", i, r.Kind, KindList, KindGet, KindCreate)
		}

		if r.Limit < 0 || r.Offset < 0 {
			return errors.Errorf("request %d: limit and offset cannot be negative", i)
		}
	}

	return nil
}

// Export writes the plan with recorded results.
func (p *Plan) Export(path string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return errors.Wrap(err, "failed to marshal results to yaml")
	}

	err = os.WriteFile(path, data, 0o644)
	if err != nil {
		return errors.Wrap(err, "failed to write results")
	}

	return nil
}
