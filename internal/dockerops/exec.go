package dockerops

import (
	"context"
	"sort"

	"github.com/pkg/errors"
)

const DatabaseService = "db"

var ErrServiceNotRunning = errors.New("service is not running")

// Exec runs cmd in the running container of the compose service.
func (o *Ops) Exec(ctx context.Context, project, service string, cmd []string) (ExecResult, error) {
	c, err := o.findServiceContainer(ctx, project, service)
	if err != nil {
		return ExecResult{}, err
	}

	o.logger.Debug().Str("container_id", c.ID).Strs("cmd", cmd).Msg("exec")

	res, err := o.engine.Exec(ctx, c.ID, cmd)
	if err != nil {
		return ExecResult{}, errors.Wrapf(err, "exec in %s failed", service)
	}

	return res, nil
}

// ViewTables lists the tables of the postgres database in the db service.
func (o *Ops) ViewTables(ctx context.Context, project string) (ExecResult, error) {
	return o.Exec(ctx, project, DatabaseService, []string{"psql", "-U", "postgres", "-c", `\dt`})
}

func (o *Ops) findServiceContainer(ctx context.Context, project, service string) (Container, error) {
	containers, err := o.engine.ListContainers(ctx, project)
	if err != nil {
		return Container{}, errors.Wrap(err, "failed to list containers")
	}

	var candidates []Container
	for _, c := range containers {
		if c.Service() == service && c.State == "running" {
			candidates = append(candidates, c)
		}
	}

	if len(candidates) == 0 {
		return Container{}, errors.Wrap(ErrServiceNotRunning, service)
	}

	// Scaled services have several replicas; pick a stable one.
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Name < candidates[j].Name
	})

	return candidates[0], nil
}
