package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ayusman/handsign/internal/app"
	"github.com/ayusman/handsign/internal/classifier"
	"github.com/ayusman/handsign/internal/inference"
	"github.com/ayusman/handsign/internal/server"
)

func newServeCmd(rt *runtime) *cobra.Command {
	var (
		addr     string
		noCamera bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API, recognizing the camera feed in the background",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = rt.cfg.Server.Addr
			}

			v, err := rt.cfg.LoadVocabulary()
			if err != nil {
				return err
			}

			st, err := rt.openStore(v)
			if err != nil {
				return err
			}
			defer st.Close()

			// A missing model still serves the dataset endpoints.
			var (
				engine *inference.Engine
				meta   *classifier.Metadata
			)
			c, m, err := rt.loadModel(v)
			if err != nil {
				rt.log.WithError(err).Warn("no model loaded, recognition disabled")
			} else {
				defer c.Close()
				meta = m
				engine, err = inference.NewEngine(inference.Config{Classifier: c, Vocabulary: v, Logger: rt.log})
				if err != nil {
					return err
				}
			}

			staticDir := rt.cfg.Server.StaticDir
			if staticDir == "" {
				staticDir = findWebDir()
			}

			decisions := server.NewDecisionHub(rt.log)
			frames := server.NewFrameBuffer(rt.log)
			srv := server.New(server.Config{
				StaticDir:  staticDir,
				Store:      st,
				Vocabulary: v,
				Engine:     engine,
				Model:      meta,
				Decisions:  decisions,
				Frames:     frames,
				Logger:     rt.log,
			})

			var loop *app.App
			var live *inference.Engine
			if engine != nil && !noCamera {
				cam, det, err := rt.openDevices()
				if err != nil {
					return err
				}
				defer cam.Close()
				defer det.Close()

				live, err = inference.NewEngine(inference.Config{Detector: det, Classifier: c, Vocabulary: v, Logger: rt.log})
				if err != nil {
					return err
				}
				loop, err = app.New(app.Config{Camera: cam, Detector: det, Frames: frames, Logger: rt.log})
				if err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			g, ctx := errgroup.WithContext(ctx)

			g.Go(func() error {
				return srv.Run(ctx, addr)
			})

			if loop != nil {
				g.Go(func() error {
					if err := loop.Recognize(ctx, live, decisions.Publish); err != nil {
						return err
					}
					// The source ended; keep serving the API.
					<-ctx.Done()
					return nil
				})
			}

			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&noCamera, "no-camera", false, "serve the API without running the camera")
	return cmd
}
