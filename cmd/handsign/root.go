package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ayusman/handsign/internal/config"
	"github.com/ayusman/handsign/internal/logging"
	"github.com/ayusman/handsign/internal/store"
	"github.com/ayusman/handsign/internal/vocab"
)

// runtime is what every subcommand starts from.
type runtime struct {
	cfg *config.Config
	log *logrus.Logger
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
		rt         runtime
	)

	root := &cobra.Command{
		Use:          "handsign",
		Short:        "Hand sign collection and recognition",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return err
			}
			rt.cfg = cfg
			rt.log = log
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: ./handsign.yaml or ~/.handsign/handsign.yaml)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		newCollectCmd(&rt),
		newTrainCmd(&rt),
		newExportCmd(&rt),
		newRecognizeCmd(&rt),
		newServeCmd(&rt),
		newSignsCmd(&rt),
	)
	return root
}

// openStore opens the sample store and checks it was collected with v.
func (rt *runtime) openStore(v *vocab.Vocabulary) (*store.Store, error) {
	st, err := store.New(rt.cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	if err := st.Vocabulary().Ensure(v); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}
