package main

import (
	"fmt"

	"github.com/montekkundan/newsapi/internal/compose"
	"github.com/montekkundan/newsapi/internal/dockerops"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func (a *app) composeRunner(cmd *cobra.Command) *compose.Runner {
	c := compose.New(a.cfg.Compose.Binary, a.cfg.Compose.File, a.cfg.Compose.ProjectDir)
	if a.cfg.DatabaseURL != "" {
		c.Env = append(c.Env, "DATABASE_URL="+a.cfg.DatabaseURL)
	}

	r := compose.NewRunner(c, a.logger)
	r.Stdin = cmd.InOrStdin()
	r.Stdout = cmd.OutOrStdout()
	r.Stderr = cmd.ErrOrStderr()

	return r
}

func (a *app) ops() (*dockerops.Ops, error) {
	engine, err := dockerops.NewEngine(a.cfg.Docker.DaemonURL)
	if err != nil {
		return nil, err
	}

	return dockerops.New(engine, a.logger), nil
}

func (a *app) newBuildCommand() *cobra.Command {
	var tag string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the application image with DATABASE_URL as a build argument",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ops, err := a.ops()
			if err != nil {
				return err
			}

			if tag == "" {
				tag = a.cfg.Docker.Image
			}

			return ops.Build(cmd.Context(), dockerops.BuildOptions{
				ContextDir:  a.cfg.Docker.ContextDir,
				Dockerfile:  a.cfg.Docker.Dockerfile,
				Tag:         tag,
				DatabaseURL: a.cfg.DatabaseURL,
				Output:      cmd.OutOrStdout(),
			})
		},
	}

	cmd.Flags().StringVarP(&tag, "tag", "t", "", "image tag (overrides docker.image)")

	return cmd
}

func (a *app) newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the compose services in the background",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.composeRunner(cmd).Up(cmd.Context())
		},
	}
}

func (a *app) newStopCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop and remove the compose services",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.composeRunner(cmd).Down(cmd.Context())
		},
	}
}

func (a *app) newCleanCommand() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Stop the services and remove the image, containers and volumes",
		Long: `Stop the services and remove the application image, then containers and volumes
of the compose project. With --all every container, image and volume on the host
is removed. Failures are reported and never abort the command.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			err := a.composeRunner(cmd).Down(ctx)
			if err != nil {
				a.logger.Warn().Err(err).Msg("services cannot be stopped")
			}

			ops, err := a.ops()
			if err != nil {
				a.logger.Warn().Err(err).Msg("docker is unavailable, nothing to clean")
				return nil
			}

			report := ops.Clean(ctx, dockerops.CleanOptions{
				Image:   a.cfg.Docker.Image,
				Project: a.cfg.Compose.Project,
				All:     all,
			})

			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d containers, %d images, %d volumes (%d failed)\n",
				report.Containers, report.Images, report.Volumes, report.Failed)

			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "remove all containers, images and volumes on the host")

	return cmd
}

func (a *app) newLogsCommand() *cobra.Command {
	var noFollow bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Stream logs of the compose services",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			ops, err := a.ops()
			if err == nil {
				err = ops.FollowLogs(ctx, a.cfg.Compose.Project, !noFollow, cmd.OutOrStdout())
				if err == nil || errors.Is(err, dockerops.ErrNoContainers) {
					return err
				}
			}

			a.logger.Debug().Err(err).Msg("falling back to compose logs")

			return a.composeRunner(cmd).Logs(ctx, !noFollow)
		},
	}

	cmd.Flags().BoolVar(&noFollow, "no-follow", false, "print the logs and exit")

	return cmd
}

func (a *app) newDBShellCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "db-shell",
		Short: "Open an interactive psql session in the db service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.composeRunner(cmd).Exec(cmd.Context(), dockerops.DatabaseService, true, "psql", "-U", "postgres")
		},
	}
}

func (a *app) newDBViewTablesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "db-view-tables",
		Short: "List the tables of the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ops, err := a.ops()
			if err != nil {
				return err
			}

			res, err := ops.ViewTables(cmd.Context(), a.cfg.Compose.Project)
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), res.Stdout)
			fmt.Fprint(cmd.ErrOrStderr(), res.Stderr)

			if res.ExitCode != 0 {
				return &compose.ExitError{Command: "psql", Code: res.ExitCode}
			}

			return nil
		},
	}
}
