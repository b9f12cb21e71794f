package container

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"golang.org/x/sync/errgroup"

	"lane-pilot/config"
	app "lane-pilot/internal/application"
	"lane-pilot/internal/domain/port"
	"lane-pilot/internal/infrastructure/controller"
	"lane-pilot/internal/infrastructure/vision"
)

// readerBuffer ёмкость канала ответов контроллера
const readerBuffer = 32

type Container struct {
	TelemetryService *app.TelemetryService
	Pipeline         *app.Pipeline
	DriveService     *app.DriveService

	Link       *controller.Link
	Dispatcher *controller.Dispatcher
	Sender     *controller.Sender
	Reader     *controller.Reader

	closers []io.Closer
}

func New(cfg *config.Config, transport port.Transport, repo port.TelemetryRepository) (*Container, error) {
	c := &Container{}
	c.TelemetryService = app.NewTelemetryService(repo)

	binarizer, rectifier, err := c.visionStages(cfg)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	pathfinder, err := newPathfinder(cfg)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	c.Pipeline = app.NewPipeline(binarizer, rectifier, pathfinder, cfg.Pipeline.Drive)

	c.Link = controller.NewLink(transport)
	c.Dispatcher = controller.NewDispatcher(c.Link, cfg.Pipeline.Angle)
	c.Sender = controller.NewSender(c.Dispatcher, func(err error) {
		_ = c.TelemetryService.SendFailed(context.Background(), err)
	})
	c.Reader = controller.NewReader(c.Link, cfg.PollInterval, readerBuffer)

	c.DriveService = app.NewDriveService(c.Pipeline, c.Sender, c.TelemetryService)
	return c, nil
}

// RunBackground запускает отправку команд, опрос порта и запись ответов в телеметрию.
// Возвращается после отмены контекста или остановки Reader.
func (c *Container) RunBackground(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return ignoreCanceled(c.Sender.Run(gctx))
	})
	g.Go(func() error {
		return ignoreCanceled(c.Reader.Run(gctx))
	})
	g.Go(func() error {
		for in := range c.Reader.Responses() {
			if err := c.TelemetryService.DeviceResponse(ctx, in.Raw, in.Err); err != nil {
				log.Printf("Error recording device response: %v", err)
			}
		}
		return nil
	})

	return g.Wait()
}

// Close освобождает ресурсы стадий
func (c *Container) Close() error {
	var errs []error
	for _, cl := range c.closers {
		errs = append(errs, cl.Close())
	}
	c.closers = nil
	return errors.Join(errs...)
}

func (c *Container) visionStages(cfg *config.Config) (port.Binarizer, port.Rectifier, error) {
	switch cfg.Backend {
	case config.BackendGoCV:
		binarizer, err := vision.NewGoCVBinarizer(cfg.Pipeline.Binarizer)
		if err != nil {
			return nil, nil, fmt.Errorf("gocv binarizer: %w", err)
		}
		rectifier, err := vision.NewGoCVRectifier(cfg.Pipeline.Rectifier)
		if err != nil {
			return nil, nil, fmt.Errorf("gocv rectifier: %w", err)
		}
		c.closers = append(c.closers, rectifier)
		return binarizer, rectifier, nil
	default:
		binarizer, err := vision.NewBinarizer(cfg.Pipeline.Binarizer)
		if err != nil {
			return nil, nil, err
		}
		rectifier, err := vision.NewRectifier(cfg.Pipeline.Rectifier)
		if err != nil {
			return nil, nil, err
		}
		return binarizer, rectifier, nil
	}
}

func newPathfinder(cfg *config.Config) (port.Pathfinder, error) {
	if cfg.Pathfinder == config.PathfinderHough {
		p, err := vision.NewHoughPathfinder()
		if err != nil {
			return nil, fmt.Errorf("hough pathfinder: %w", err)
		}
		return p, nil
	}

	fitter, err := app.NewLaneFitter(cfg.Pipeline.Fitter)
	if err != nil {
		return nil, err
	}
	estimator := app.NewGeometryEstimator(cfg.Pipeline.Geometry)
	return app.NewCurveFitPathfinder(fitter, estimator, cfg.Pipeline.Fitter.HistoryDepth, cfg.Pipeline.KeepState), nil
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
