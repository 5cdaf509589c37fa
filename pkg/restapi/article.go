package restapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/montekkundan/newsapi/internal/article"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

type articleHandler struct {
	logger zerolog.Logger
	repo   ArticleRepository

	limits      article.Limits
	maxPageSize int
	maxBodySize int64
}

func newArticleHandler(logger zerolog.Logger, repo ArticleRepository, limits article.Limits, maxPageSize int, maxBodySize int64) *articleHandler {
	return &articleHandler{
		logger:      logger,
		repo:        repo,
		limits:      limits,
		maxPageSize: maxPageSize,
		maxBodySize: maxBodySize,
	}
}

func (h *articleHandler) handle(r chi.Router) {
	r.Post("/articles", h.createArticle)
	r.Get("/articles", h.listArticles)
	r.Get("/articles/{id}", h.getArticle)
	r.Put("/articles/{id}", h.updateArticle)
	r.Delete("/articles/{id}", h.deleteArticle)
}

type DeleteArticleOutput struct {
	ID int32 `json:"id"`
}

func (h *articleHandler) createArticle(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	a := in.Article(0)
	err := h.repo.Create(r.Context(), a)
	if err != nil {
		h.writeRepoError(w, err, "failed to create an article", 0)
		return
	}

	h.logger.Info().Int32("id", a.ID).Str("source", a.Source).Msg("article has been created")

	writeResultCode(w, http.StatusCreated, a)
}

func (h *articleHandler) listArticles(w http.ResponseWriter, r *http.Request) {
	page, err := h.parsePage(r)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	articles, err := h.repo.List(r.Context(), page)
	if err != nil {
		h.writeRepoError(w, err, "failed to list articles", 0)
		return
	}
	if articles == nil {
		articles = []article.Article{}
	}

	writeResult(w, articles)
}

func (h *articleHandler) getArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	a, err := h.repo.Get(r.Context(), id)
	if err != nil {
		h.writeRepoError(w, err, "failed to get an article", id)
		return
	}

	writeResult(w, a)
}

func (h *articleHandler) updateArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	in, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	a := in.Article(id)
	err := h.repo.Update(r.Context(), a)
	if err != nil {
		h.writeRepoError(w, err, "failed to update an article", id)
		return
	}

	h.logger.Info().Int32("id", id).Msg("article has been updated")

	writeResult(w, a)
}

func (h *articleHandler) deleteArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	err := h.repo.Delete(r.Context(), id)
	if err != nil {
		h.writeRepoError(w, err, "failed to delete an article", id)
		return
	}

	h.logger.Info().Int32("id", id).Msg("article has been deleted")

	writeResult(w, DeleteArticleOutput{ID: id})
}

// decodeInput reads and validates the request body. It writes the error response itself.
func (h *articleHandler) decodeInput(w http.ResponseWriter, r *http.Request) (*article.Input, bool) {
	if h.maxBodySize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	}

	in := new(article.Input)
	dec := json.NewDecoder(r.Body)
	err := dec.Decode(in)
	if err == nil {
		err = expectEOF(dec)
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, "request body is too large", http.StatusRequestEntityTooLarge)
		return nil, false
	}
	if err != nil {
		writeError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return nil, false
	}

	err = in.Validate(h.limits)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}

	return in, true
}

// expectEOF fails if the body holds anything but whitespace after the first value.
func expectEOF(dec *json.Decoder) error {
	var extra json.RawMessage
	err := dec.Decode(&extra)
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return err
	}

	return errors.New("unexpected data after the json object")
}

func (h *articleHandler) parsePage(r *http.Request) (article.Page, error) {
	var page article.Page

	query := r.URL.Query()
	for _, p := range []struct {
		key string
		dst *int
	}{
		{"limit", &page.Limit},
		{"offset", &page.Offset},
	} {
		raw := query.Get(p.key)
		if raw == "" {
			continue
		}

		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return page, ErrInvalidPage
		}

		*p.dst = v
	}

	if h.maxPageSize > 0 && (page.Limit == 0 || page.Limit > h.maxPageSize) {
		page.Limit = h.maxPageSize
	}

	return page, nil
}

func parseID(w http.ResponseWriter, r *http.Request) (int32, bool) {
	raw := chi.URLParam(r, "id")

	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		writeError(w, ErrInvalidID.Error(), http.StatusBadRequest)
		return 0, false
	}

	return int32(id), true
}

func (h *articleHandler) writeRepoError(w http.ResponseWriter, err error, msg string, id int32) {
	switch {
	case errors.Is(err, article.ErrNotFound):
		writeError(w, "article not found", http.StatusNotFound)

	case errors.Is(err, article.ErrInvalid):
		writeError(w, err.Error(), http.StatusBadRequest)

	default:
		h.logger.Error().Err(err).Int32("id", id).Msg(msg)
		writeError(w, "internal error", http.StatusInternalServerError)
	}
}
