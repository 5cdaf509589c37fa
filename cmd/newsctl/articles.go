package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/montekkundan/newsapi/internal/article"
	"github.com/montekkundan/newsapi/pkg/newsclient"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func (a *app) client() *newsclient.Client {
	return newsclient.New(newsclient.Config{
		BaseURL: a.cfg.API.BaseURL,
		MaxRPS:  a.cfg.API.MaxRPS,
		Timeout: a.cfg.API.Timeout,
	})
}

func (a *app) newArticlesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "articles",
		Aliases: []string{"a"},
		Short:   "Manage articles through the REST API",
	}

	cmd.AddCommand(
		a.newArticlesListCommand(),
		a.newArticlesGetCommand(),
		a.newArticlesCreateCommand(),
		a.newArticlesUpdateCommand(),
		a.newArticlesDeleteCommand(),
	)

	return cmd
}

func (a *app) newArticlesListCommand() *cobra.Command {
	var page article.Page

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List articles ordered by id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			articles, err := a.client().List(cmd.Context(), page)
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), articles)
		},
	}

	cmd.Flags().IntVar(&page.Limit, "limit", 0, "max number of articles, 0 means the server default")
	cmd.Flags().IntVar(&page.Offset, "offset", 0, "number of articles to skip")

	return cmd
}

func (a *app) newArticlesGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show an article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			found, err := a.client().Get(cmd.Context(), id)
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), found)
		},
	}
}

func articleFlags(cmd *cobra.Command, in *newsclient.ArticleInput) {
	cmd.Flags().StringVar(&in.Title, "title", "", "article title")
	cmd.Flags().StringVar(&in.Content, "content", "", "article content")
	cmd.Flags().StringVar(&in.Source, "source", "", "article source")

	for _, name := range []string{"title", "content", "source"} {
		_ = cmd.MarkFlagRequired(name)
	}
}

func (a *app) newArticlesCreateCommand() *cobra.Command {
	var in newsclient.ArticleInput

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an article",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			created, err := a.client().Create(cmd.Context(), in)
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), created)
		},
	}

	articleFlags(cmd, &in)

	return cmd
}

func (a *app) newArticlesUpdateCommand() *cobra.Command {
	var in newsclient.ArticleInput

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace title, content and source of an article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			updated, err := a.client().Update(cmd.Context(), id, in)
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), updated)
		},
	}

	articleFlags(cmd, &in)

	return cmd
}

func (a *app) newArticlesDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			err = a.client().Delete(cmd.Context(), id)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Article %d has been deleted\n", id)

			return nil
		},
	}
}

func parseID(raw string) (int32, error) {
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, errors.Errorf("invalid article id %q", raw)
	}

	return int32(id), nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}
