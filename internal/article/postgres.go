package article

import (
	"context"

	"github.com/montekkundan/newsapi/internal/database"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v4"
	"github.com/pkg/errors"
)

const (
	sqlInsert = `INSERT INTO articles (title, content, source) VALUES ($1, $2, $3) RETURNING id`
	sqlSelect = `SELECT id, title, content, source FROM articles WHERE id = $1`
	sqlList   = `SELECT id, title, content, source FROM articles ORDER BY id LIMIT $1 OFFSET $2`
	sqlUpdate = `UPDATE articles SET title = $1, content = $2, source = $3 WHERE id = $4`
	sqlDelete = `DELETE FROM articles WHERE id = $1`
)

type PostgresQueryer interface {
	database.Queryer
	database.Pinger
}

// PostgresRepo keeps articles in the articles table.
type PostgresRepo struct {
	db PostgresQueryer
}

func NewPostgresRepository(db PostgresQueryer) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Create(ctx context.Context, a *Article) error {
	err := r.db.QueryRow(ctx, sqlInsert, a.Title, a.Content, a.Source).Scan(&a.ID)
	if err != nil {
		return wrapPgError(err, "insert failed")
	}

	return nil
}

func (r *PostgresRepo) Get(ctx context.Context, id int32) (*Article, error) {
	a := new(Article)

	err := r.db.QueryRow(ctx, sqlSelect, id).Scan(&a.ID, &a.Title, &a.Content, &a.Source)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, wrapPgError(err, "select failed")
	}

	return a, nil
}

func (r *PostgresRepo) List(ctx context.Context, page Page) ([]Article, error) {
	// LIMIT NULL means no limit.
	var limit interface{}
	if page.Limit > 0 {
		limit = page.Limit
	}

	rows, err := r.db.Query(ctx, sqlList, limit, page.Offset)
	if err != nil {
		return nil, wrapPgError(err, "select failed")
	}
	defer rows.Close()

	articles := make([]Article, 0)
	for rows.Next() {
		var a Article

		err = rows.Scan(&a.ID, &a.Title, &a.Content, &a.Source)
		if err != nil {
			return nil, errors.Wrap(err, "scan failed")
		}

		articles = append(articles, a)
	}

	err = rows.Err()
	if err != nil {
		return nil, wrapPgError(err, "rows iteration failed")
	}

	return articles, nil
}

func (r *PostgresRepo) Update(ctx context.Context, a *Article) error {
	tag, err := r.db.Exec(ctx, sqlUpdate, a.Title, a.Content, a.Source, a.ID)
	if err != nil {
		return wrapPgError(err, "update failed")
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *PostgresRepo) Delete(ctx context.Context, id int32) error {
	tag, err := r.db.Exec(ctx, sqlDelete, id)
	if err != nil {
		return wrapPgError(err, "delete failed")
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *PostgresRepo) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

// wrapPgError marks constraint violations caused by the article itself as ErrInvalid.
func wrapPgError(err error, msg string) error {
	if database.IsCode(err, pgerrcode.NotNullViolation, pgerrcode.StringDataRightTruncationDataException, pgerrcode.CharacterNotInRepertoire) {
		return errors.Wrap(errors.Wrap(ErrInvalid, err.Error()), msg)
	}

	return errors.Wrap(err, msg)
}
