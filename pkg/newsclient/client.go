package newsclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/montekkundan/newsapi/internal/article"
	"github.com/montekkundan/newsapi/pkg/restapi"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/ratelimit"
)

const DefaultBaseURL = "http://localhost:8080"
const DefaultTimeout = 30 * time.Second

// RequestIDHeader is picked up by the server's request id middleware.
const RequestIDHeader = "X-Request-Id"

type Config struct {
	BaseURL string

	// MaxRPS limits outgoing requests per second. 0 disables the limit.
	MaxRPS int

	Timeout time.Duration
}

// APIError is returned when the server responds with a non-2xx status.
type APIError struct {
	Status  int
	Message string

	// RequestID is the id the request was sent with; it appears in the server access log.
	RequestID string
}

func (e *APIError) Error() string {
	if e.RequestID == "" {
		return fmt.Sprintf("newsapi responded with %d: %s", e.Status, e.Message)
	}

	return fmt.Sprintf("newsapi responded with %d: %s (request %s)", e.Status, e.Message, e.RequestID)
}

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

type Client struct {
	baseURL string
	rl      ratelimit.Limiter

	cli *http.Client
}

func New(c Config, httpCli ...*http.Client) *Client {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}

	rl := ratelimit.NewUnlimited()
	if c.MaxRPS > 0 {
		rl = ratelimit.New(c.MaxRPS)
	}

	client := &Client{
		baseURL: strings.TrimRight(c.BaseURL, "/"),
		rl:      rl,
		cli:     &http.Client{Timeout: c.Timeout},
	}
	if len(httpCli) == 1 {
		client.cli = httpCli[0]
	}

	return client
}

type ArticleInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Source  string `json:"source"`
}

func (c *Client) List(ctx context.Context, page article.Page) ([]article.Article, error) {
	query := url.Values{}
	if page.Limit > 0 {
		query.Set("limit", strconv.Itoa(page.Limit))
	}
	if page.Offset > 0 {
		query.Set("offset", strconv.Itoa(page.Offset))
	}

	path := "/articles"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var articles []article.Article
	err := c.do(ctx, http.MethodGet, path, nil, &articles)

	return articles, err
}

func (c *Client) Get(ctx context.Context, id int32) (*article.Article, error) {
	a := new(article.Article)
	err := c.do(ctx, http.MethodGet, articlePath(id), nil, a)
	if err != nil {
		return nil, err
	}

	return a, nil
}

func (c *Client) Create(ctx context.Context, in ArticleInput) (*article.Article, error) {
	a := new(article.Article)
	err := c.do(ctx, http.MethodPost, "/articles", in, a)
	if err != nil {
		return nil, err
	}

	return a, nil
}

func (c *Client) Update(ctx context.Context, id int32, in ArticleInput) (*article.Article, error) {
	a := new(article.Article)
	err := c.do(ctx, http.MethodPut, articlePath(id), in, a)
	if err != nil {
		return nil, err
	}

	return a, nil
}

func (c *Client) Delete(ctx context.Context, id int32) error {
	return c.do(ctx, http.MethodDelete, articlePath(id), nil, nil)
}

// Health returns nil when the server and its storage are available.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

func articlePath(id int32) string {
	return "/articles/" + strconv.FormatInt(int64(id), 10)
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "failed to marshal request body")
		}

		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return errors.Wrap(err, "invalid request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	requestID := uuid.New().String()
	req.Header.Set(RequestIDHeader, requestID)

	c.rl.Take()

	resp, err := c.cli.Do(req)
	if err != nil {
		return errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "body read failed")
	}

	envelope := struct {
		Result json.RawMessage        `json:"result"`
		Error  *restapi.ErrorResponse `json:"error"`
	}{}

	decodeErr := json.Unmarshal(data, &envelope)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(data))
		if decodeErr == nil && envelope.Error != nil {
			msg = envelope.Error.Message
		}

		return &APIError{Status: resp.StatusCode, Message: msg, RequestID: requestID}
	}

	if decodeErr != nil {
		return errors.Wrap(decodeErr, "invalid response body")
	}

	if result == nil || len(envelope.Result) == 0 {
		return nil
	}

	err = json.Unmarshal(envelope.Result, result)
	if err != nil {
		return errors.Wrap(err, "invalid response result")
	}

	return nil
}
