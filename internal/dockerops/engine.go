package dockerops

import (
	"bytes"
	"context"
	"io"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/volume"
	dockercli "github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/pkg/errors"
)

const (
	LabelComposeProject = "com.docker.compose.project"
	LabelComposeService = "com.docker.compose.service"
)

type Container struct {
	ID     string
	Name   string
	Image  string
	State  string
	Labels map[string]string
}

// Service returns the compose service name or the container name for standalone containers.
func (c Container) Service() string {
	if s := c.Labels[LabelComposeService]; s != "" {
		return s
	}

	return c.Name
}

type Image struct {
	ID   string
	Tags []string
}

type ExecResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

type BuildRequest struct {
	Dockerfile string
	Tags       []string
	BuildArgs  map[string]*string
}

// Engine is the subset of Docker Engine API operations the lifecycle commands need.
type Engine interface {
	BuildImage(ctx context.Context, buildContext io.Reader, req BuildRequest) (io.ReadCloser, error)

	// ListContainers returns running and stopped containers. An empty project means all containers.
	ListContainers(ctx context.Context, project string) ([]Container, error)
	RemoveContainer(ctx context.Context, id string) error
	ContainerLogs(ctx context.Context, id string, follow bool) (io.ReadCloser, error)
	Exec(ctx context.Context, containerID string, cmd []string) (ExecResult, error)

	ListImages(ctx context.Context) ([]Image, error)
	RemoveImage(ctx context.Context, ref string, force bool) error

	// ListVolumes returns volume names. An empty project means all volumes.
	ListVolumes(ctx context.Context, project string) ([]string, error)
	RemoveVolume(ctx context.Context, name string) error
}

// IsNotFound reports whether the engine rejected the request because the object does not exist.
func IsNotFound(err error) bool {
	return errdefs.IsNotFound(err)
}

// engineProvider simplifies communication with Docker Engine API.
type engineProvider struct {
	cli *dockercli.Client
}

// NewEngine connects to the daemon. If daemonURL is empty, DOCKER_HOST and the other
// DOCKER_* variables are used.
func NewEngine(daemonURL string) (Engine, error) {
	opts := []dockercli.Opt{dockercli.FromEnv, dockercli.WithAPIVersionNegotiation()}
	if daemonURL != "" {
		opts = append(opts, dockercli.WithHost(daemonURL))
	}

	cli, err := dockercli.NewClientWithOpts(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "docker client cannot be created")
	}

	return &engineProvider{cli: cli}, nil
}

func projectFilter(project string) filters.Args {
	if project == "" {
		return filters.NewArgs()
	}

	return filters.NewArgs(filters.Arg("label", LabelComposeProject+"="+project))
}

func (p *engineProvider) BuildImage(ctx context.Context, buildContext io.Reader, req BuildRequest) (io.ReadCloser, error) {
	resp, err := p.cli.ImageBuild(ctx, buildContext, types.ImageBuildOptions{
		Dockerfile:  req.Dockerfile,
		Tags:        req.Tags,
		BuildArgs:   req.BuildArgs,
		Remove:      true,
		ForceRemove: true,
	})
	if err != nil {
		return nil, err
	}

	return resp.Body, nil
}

func (p *engineProvider) ListContainers(ctx context.Context, project string) ([]Container, error) {
	list, err := p.cli.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: projectFilter(project),
	})
	if err != nil {
		return nil, err
	}

	containers := make([]Container, 0, len(list))
	for _, c := range list {
		var name string
		if len(c.Names) > 0 {
			name = trimSlash(c.Names[0])
		}

		containers = append(containers, Container{
			ID:     c.ID,
			Name:   name,
			Image:  c.Image,
			State:  c.State,
			Labels: c.Labels,
		})
	}

	return containers, nil
}

func (p *engineProvider) RemoveContainer(ctx context.Context, id string) error {
	return p.cli.ContainerRemove(ctx, id, container.RemoveOptions{
		RemoveVolumes: true,
		Force:         true,
	})
}

func (p *engineProvider) ContainerLogs(ctx context.Context, id string, follow bool) (io.ReadCloser, error) {
	return p.cli.ContainerLogs(ctx, id, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     follow,
		Tail:       "all",
	})
}

// Exec executes the given command in the container and waits for it to finish.
func (p *engineProvider) Exec(ctx context.Context, containerID string, cmd []string) (ExecResult, error) {
	exec, err := p.cli.ContainerExecCreate(ctx, containerID, container.ExecOptions{
		AttachStderr: true,
		AttachStdout: true,
		Cmd:          cmd,
	})
	if err != nil {
		return ExecResult{}, errors.Wrap(err, "exec create failed")
	}

	resp, err := p.cli.ContainerExecAttach(ctx, exec.ID, container.ExecAttachOptions{})
	if err != nil {
		return ExecResult{}, errors.Wrap(err, "exec attach failed")
	}
	defer resp.Close()

	var outBuf, errBuf bytes.Buffer
	outputDone := make(chan error, 1)

	go func() {
		_, err := stdcopy.StdCopy(&outBuf, &errBuf, resp.Reader)
		outputDone <- err
	}()

	select {
	case err := <-outputDone:
		if err != nil {
			return ExecResult{}, errors.Wrap(err, "failed to get output")
		}

	case <-ctx.Done():
		return ExecResult{}, ctx.Err()
	}

	inspect, err := p.cli.ContainerExecInspect(ctx, exec.ID)
	if err != nil {
		return ExecResult{}, errors.Wrap(err, "exec inspect failed")
	}

	return ExecResult{
		Stdout:   outBuf.String(),
		Stderr:   errBuf.String(),
		ExitCode: inspect.ExitCode,
	}, nil
}

func (p *engineProvider) ListImages(ctx context.Context) ([]Image, error) {
	list, err := p.cli.ImageList(ctx, image.ListOptions{All: true})
	if err != nil {
		return nil, err
	}

	images := make([]Image, 0, len(list))
	for _, img := range list {
		images = append(images, Image{ID: img.ID, Tags: img.RepoTags})
	}

	return images, nil
}

func (p *engineProvider) RemoveImage(ctx context.Context, ref string, force bool) error {
	_, err := p.cli.ImageRemove(ctx, ref, image.RemoveOptions{
		Force:         force,
		PruneChildren: true,
	})

	return err
}

func (p *engineProvider) ListVolumes(ctx context.Context, project string) ([]string, error) {
	resp, err := p.cli.VolumeList(ctx, volume.ListOptions{Filters: projectFilter(project)})
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(resp.Volumes))
	for _, v := range resp.Volumes {
		names = append(names, v.Name)
	}

	return names, nil
}

func (p *engineProvider) RemoveVolume(ctx context.Context, name string) error {
	return p.cli.VolumeRemove(ctx, name, false)
}

func trimSlash(name string) string {
	if len(name) > 0 && name[0] == '/' {
		return name[1:]
	}

	return name
}
