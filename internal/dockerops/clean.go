package dockerops

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

type CleanOptions struct {
	// Image is removed first. It is DefaultImage when empty.
	Image string

	// Project limits removal to the compose project's containers, the images
	// they ran and the project's volumes.
	Project string

	// All removes every container, image and volume on the host.
	All bool
}

type CleanReport struct {
	Containers int
	Images     int
	Volumes    int

	// Failed counts resources which could not be removed.
	Failed int
}

// Clean removes the application image and then containers, images and volumes.
// It is best-effort: every failure is logged and counted, none is returned,
// so running it twice succeeds both times.
func (o *Ops) Clean(ctx context.Context, opts CleanOptions) CleanReport {
	var report CleanReport
	var failed atomic.Int64

	if opts.Image == "" {
		opts.Image = DefaultImage
	}

	err := o.engine.RemoveImage(ctx, opts.Image, false)
	switch {
	case err == nil:
		report.Images++
		o.logger.Info().Str("image", opts.Image).Msg("image has been removed")

	case IsNotFound(err):
		o.logger.Info().Str("image", opts.Image).Msg("image not found")

	default:
		failed.Add(1)
		o.logger.Warn().Err(err).Str("image", opts.Image).Msg("failed to remove image")
	}

	if !opts.All && opts.Project == "" {
		report.Failed = int(failed.Load())
		return report
	}

	project := opts.Project
	if opts.All {
		project = ""
	}

	var usedImages []string
	report.Containers, usedImages = o.cleanContainers(ctx, project, &failed)
	if opts.All {
		report.Images += o.cleanImages(ctx, &failed)
	} else {
		report.Images += o.cleanProjectImages(ctx, usedImages, opts.Image, &failed)
	}
	report.Volumes = o.cleanVolumes(ctx, project, &failed)
	report.Failed = int(failed.Load())

	o.logger.Info().
		Int("containers", report.Containers).
		Int("images", report.Images).
		Int("volumes", report.Volumes).
		Int("failed", report.Failed).
		Msg("clean finished")

	return report
}

// cleanContainers returns the number of removed containers and the images they ran.
func (o *Ops) cleanContainers(ctx context.Context, project string, failed *atomic.Int64) (int, []string) {
	containers, err := o.engine.ListContainers(ctx, project)
	if err != nil {
		failed.Add(1)
		o.logger.Warn().Err(err).Msg("failed to list containers")
		return 0, nil
	}

	ids := make([]string, 0, len(containers))
	imageByID := make(map[string]string, len(containers))
	for _, c := range containers {
		ids = append(ids, c.ID)
		imageByID[c.ID] = c.Image
	}

	var mu sync.Mutex
	used := make(map[string]struct{})

	removed := o.removeAll(ctx, "container_id", ids, func(ctx context.Context, id string) error {
		err := o.engine.RemoveContainer(ctx, id)
		if err == nil && imageByID[id] != "" {
			mu.Lock()
			used[imageByID[id]] = struct{}{}
			mu.Unlock()
		}

		return err
	}, failed)

	images := make([]string, 0, len(used))
	for ref := range used {
		images = append(images, ref)
	}
	sort.Strings(images)

	return removed, images
}

// cleanProjectImages removes images of the removed project containers.
// Images still used by other containers fail to be removed and are counted as failures.
func (o *Ops) cleanProjectImages(ctx context.Context, refs []string, appImage string, failed *atomic.Int64) int {
	var pending []string
	for _, ref := range refs {
		if ref != appImage {
			pending = append(pending, ref)
		}
	}

	return o.removeAll(ctx, "image", pending, func(ctx context.Context, ref string) error {
		err := o.engine.RemoveImage(ctx, ref, false)
		if IsNotFound(err) {
			return nil
		}

		return err
	}, failed)
}

func (o *Ops) cleanImages(ctx context.Context, failed *atomic.Int64) int {
	images, err := o.engine.ListImages(ctx)
	if err != nil {
		failed.Add(1)
		o.logger.Warn().Err(err).Msg("failed to list images")
		return 0
	}

	ids := make([]string, 0, len(images))
	for _, img := range images {
		ids = append(ids, img.ID)
	}

	return o.removeAll(ctx, "image_id", ids, func(ctx context.Context, id string) error {
		err := o.engine.RemoveImage(ctx, id, true)
		if IsNotFound(err) {
			// Already gone together with a parent image.
			return nil
		}

		return err
	}, failed)
}

func (o *Ops) cleanVolumes(ctx context.Context, project string, failed *atomic.Int64) int {
	names, err := o.engine.ListVolumes(ctx, project)
	if err != nil {
		failed.Add(1)
		o.logger.Warn().Err(err).Msg("failed to list volumes")
		return 0
	}

	return o.removeAll(ctx, "volume", names, o.engine.RemoveVolume, failed)
}

// removeAll calls remove for every id concurrently and returns how many succeeded.
func (o *Ops) removeAll(ctx context.Context, field string, ids []string, remove func(context.Context, string) error, failed *atomic.Int64) int {
	var removed atomic.Int64

	g := new(errgroup.Group)
	g.SetLimit(o.concurrency)

	for _, id := range ids {
		g.Go(func() error {
			err := remove(ctx, id)
			if err != nil {
				failed.Add(1)
				o.logger.Warn().Err(err).Str(field, id).Msg("failed to remove")

				return nil
			}

			removed.Add(1)
			o.logger.Debug().Str(field, id).Msg("removed")

			return nil
		})
	}

	_ = g.Wait()

	return int(removed.Load())
}
