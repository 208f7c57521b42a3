package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ayusman/handsign/internal/app"
	"github.com/ayusman/handsign/internal/session"
	"github.com/ayusman/handsign/internal/ui"
)

func newCollectCmd(rt *runtime) *cobra.Command {
	var target int

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Record samples for every sign in the vocabulary",
		Long: `Opens a preview window and walks through the vocabulary one sign at a time.
Press 'c' to start collecting the shown sign, 'r' to redo it and 'q' to quit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if target <= 0 {
				target = rt.cfg.Collection.TargetCount
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

			sink, err := app.NewStoreSink(st, v, target, rt.log)
			if err != nil {
				return err
			}

			rec, err := session.NewRecorder(session.Config{
				Vocabulary:  v,
				TargetCount: target,
				Logger:      rt.log,
				OnCommit:    sink.Commit,
			})
			if err != nil {
				return err
			}

			cam, det, err := rt.openDevices()
			if err != nil {
				return err
			}
			defer cam.Close()
			defer det.Close()

			win := ui.NewWindow("handsign: collect")
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

			runErr := a.Collect(ctx, rec)
			if err := sink.Finish(rec); err != nil && runErr == nil {
				runErr = err
			}

			counts, err := st.Samples().CountBySign(v.Len())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Session %s: %d samples recorded\n", sink.SessionID(), len(rec.Samples()))
			printCounts(out, v.Names(), counts)
			return runErr
		},
	}

	cmd.Flags().IntVar(&target, "target", 0, "samples per sign (default from config)")
	return cmd
}
