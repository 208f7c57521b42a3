package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ayusman/handsign/internal/app"
	"github.com/ayusman/handsign/internal/inference"
	"github.com/ayusman/handsign/internal/ui"
)

func newRecognizeCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "recognize",
		Short: "Classify the camera feed live",
		Long:  "Opens a preview window showing the recognized sign. Press 'q' or Esc to quit.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := rt.cfg.LoadVocabulary()
			if err != nil {
				return err
			}
			c, _, err := rt.loadModel(v)
			if err != nil {
				return err
			}
			defer c.Close()

			cam, det, err := rt.openDevices()
			if err != nil {
				return err
			}
			defer cam.Close()
			defer det.Close()

			engine, err := inference.NewEngine(inference.Config{
				Detector:   det,
				Classifier: c,
				Vocabulary: v,
				Logger:     rt.log,
			})
			if err != nil {
				return err
			}

			win := ui.NewWindow("handsign: recognize")
			defer win.Close()

			a, err := app.New(app.Config{
				Camera:   cam,
				Detector: det,
				Events:   win,
				Renderer: win,
				Logger:   rt.log,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.Recognize(ctx, engine, nil)
		},
	}
}
