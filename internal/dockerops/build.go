package dockerops

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/docker/docker/pkg/archive"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/moby/patternmatcher/ignorefile"
	"github.com/pkg/errors"
)

const DefaultDockerfile = "Dockerfile"

type BuildOptions struct {
	// ContextDir is the build context. The .dockerignore file in it is honored.
	ContextDir string
	Dockerfile string
	Tag        string

	// DatabaseURL is passed as the DATABASE_URL build argument when not empty.
	DatabaseURL string

	// Output receives the rendered build progress. Nil discards it.
	Output io.Writer
}

// Build packs the context directory and builds the application image.
func (o *Ops) Build(ctx context.Context, opts BuildOptions) error {
	startedAt := time.Now()

	if opts.ContextDir == "" {
		opts.ContextDir = "."
	}
	if opts.Dockerfile == "" {
		opts.Dockerfile = DefaultDockerfile
	}
	if opts.Tag == "" {
		opts.Tag = DefaultImage
	}
	if opts.Output == nil {
		opts.Output = io.Discard
	}

	excludes, err := readDockerignore(opts.ContextDir)
	if err != nil {
		return err
	}

	buildContext, err := archive.TarWithOptions(opts.ContextDir, &archive.TarOptions{
		ExcludePatterns: excludes,
	})
	if err != nil {
		return errors.Wrap(err, "failed to archive the build context")
	}
	defer buildContext.Close()

	args := map[string]*string{}
	if opts.DatabaseURL != "" {
		url := opts.DatabaseURL
		args["DATABASE_URL"] = &url
	}

	out, err := o.engine.BuildImage(ctx, buildContext, BuildRequest{
		Dockerfile: opts.Dockerfile,
		Tags:       []string{opts.Tag},
		BuildArgs:  args,
	})
	if err != nil {
		return errors.Wrap(err, "image build failed")
	}
	defer out.Close()

	// The stream carries build errors as messages, so it must be read to the end.
	err = jsonmessage.DisplayJSONMessagesStream(out, opts.Output, 0, false, nil)
	if err != nil {
		return errors.Wrap(err, "image build failed")
	}

	o.logger.Info().
		Str("image", opts.Tag).
		Dur("elapsed_ms", time.Since(startedAt)).
		Msg("image has been built")

	return nil
}

func readDockerignore(contextDir string) ([]string, error) {
	f, err := os.Open(filepath.Join(contextDir, ".dockerignore"))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to open .dockerignore")
	}
	defer f.Close()

	patterns, err := ignorefile.ReadAll(f)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse .dockerignore")
	}

	return patterns, nil
}
