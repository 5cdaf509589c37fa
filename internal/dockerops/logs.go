package dockerops

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/docker/docker/pkg/stdcopy"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

var ErrNoContainers = errors.New("no containers found")

// FollowLogs streams logs of every container of the compose project into w,
// each line prefixed with the service name. It returns when all streams end
// or ctx is cancelled.
func (o *Ops) FollowLogs(ctx context.Context, project string, follow bool, w io.Writer) error {
	containers, err := o.engine.ListContainers(ctx, project)
	if err != nil {
		return errors.Wrap(err, "failed to list containers")
	}
	if len(containers) == 0 {
		return ErrNoContainers
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	for _, c := range containers {
		g.Go(func() error {
			stream, err := o.engine.ContainerLogs(gctx, c.ID, follow)
			if err != nil {
				return errors.Wrapf(err, "failed to get logs of %s", c.Name)
			}
			defer stream.Close()

			pw := &prefixWriter{mu: &mu, out: w, prefix: []byte(c.Service() + " | ")}
			defer pw.Flush()

			_, err = stdcopy.StdCopy(pw, pw, stream)
			if err != nil && ctx.Err() == nil {
				return errors.Wrapf(err, "logs of %s interrupted", c.Name)
			}

			return nil
		})
	}

	err = g.Wait()
	if ctx.Err() != nil {
		return nil
	}

	return err
}

// prefixWriter writes complete lines to out under a shared lock,
// so lines of different containers never interleave.
type prefixWriter struct {
	mu     *sync.Mutex
	out    io.Writer
	prefix []byte

	buf []byte
}

func (p *prefixWriter) Write(data []byte) (int, error) {
	p.buf = append(p.buf, data...)

	for {
		idx := bytes.IndexByte(p.buf, '\n')
		if idx < 0 {
			break
		}

		err := p.writeLine(p.buf[:idx+1])
		if err != nil {
			return 0, err
		}

		p.buf = p.buf[idx+1:]
	}

	return len(data), nil
}

// Flush writes the trailing line without a newline.
func (p *prefixWriter) Flush() {
	if len(p.buf) == 0 {
		return
	}

	_ = p.writeLine(append(p.buf, '\n'))
	p.buf = nil
}

func (p *prefixWriter) writeLine(line []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, err := p.out.Write(append(append([]byte{}, p.prefix...), line...))

	return err
}
