package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/ayusman/handsign/internal/dataset"
	"github.com/ayusman/handsign/internal/feature"
	"github.com/ayusman/handsign/internal/trainer"
	"github.com/ayusman/handsign/internal/vocab"
)

// exportDataset builds the stratified split from stored samples and writes
// it to the export dir.
func (rt *runtime) exportDataset(v *vocab.Vocabulary, dir string) (trainPath, valPath string, err error) {
	st, err := rt.openStore(v)
	if err != nil {
		return "", "", err
	}
	defer st.Close()

	samples, err := st.Samples().List()
	if err != nil {
		return "", "", err
	}

	b, err := dataset.NewBuilder(rt.cfg.DatasetConfig(v))
	if err != nil {
		return "", "", err
	}
	train, val, err := b.Build(samples)
	if err != nil {
		return "", "", err
	}

	trainPath, valPath, err = dataset.Save(dir, train, val)
	if err != nil {
		return "", "", err
	}
	rt.log.WithField("train", train.Len()).WithField("validation", val.Len()).WithField("dir", dir).Info("dataset exported")
	return trainPath, valPath, nil
}

func newExportCmd(rt *runtime) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the train/validation split as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				dir = rt.cfg.Dataset.ExportDir
			}
			v, err := rt.cfg.LoadVocabulary()
			if err != nil {
				return err
			}
			trainPath, valPath, err := rt.exportDataset(v, dir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "train: %s\nvalidation: %s\n", trainPath, valPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "output directory (default from config)")
	return cmd
}

func newTrainCmd(rt *runtime) *cobra.Command {
	var (
		name   string
		params string
		list   bool
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Export the dataset and run a trainer on it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			m := trainer.NewManager(rt.cfg.Trainer.Dir)
			if err := m.Discover(); err != nil {
				return fmt.Errorf("discover trainers: %w", err)
			}
			if list {
				for _, t := range m.List() {
					fmt.Fprintf(out, "%s\t%s\t%s\n", t.Manifest.Name, t.Manifest.Kind, t.Manifest.Description)
				}
				return nil
			}

			if name == "" {
				name = rt.cfg.Trainer.Name
			}
			t, err := m.Get(name)
			if err != nil {
				return err
			}

			var raw json.RawMessage
			if params != "" {
				if !json.Valid([]byte(params)) {
					return fmt.Errorf("--params is not valid JSON")
				}
				raw = json.RawMessage(params)
			}

			v, err := rt.cfg.LoadVocabulary()
			if err != nil {
				return err
			}
			trainPath, valPath, err := rt.exportDataset(v, rt.cfg.Dataset.ExportDir)
			if err != nil {
				return err
			}

			start := time.Now()
			resp, err := trainer.NewExecutor(rt.cfg.Trainer.TimeoutMs).Train(cmd.Context(), t, &trainer.Request{
				Signs:          v.Names(),
				FeatureDim:     feature.Dim,
				TrainPath:      trainPath,
				ValidationPath: valPath,
				OutputDir:      rt.cfg.Trainer.OutputDir,
				Params:         raw,
			})
			if err != nil {
				return err
			}
			rt.log.WithField("trainer", name).WithField("elapsed", time.Since(start)).Info("training finished")

			fmt.Fprintf(out, "model (%s): %s\n", resp.Kind, resp.ModelPath)
			if resp.MetadataPath != "" {
				fmt.Fprintf(out, "metadata: %s\n", resp.MetadataPath)
			}
			keys := make([]string, 0, len(resp.Metrics))
			for k := range resp.Metrics {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(out, "%s: %g\n", k, resp.Metrics[k])
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "trainer", "", "trainer name (default from config)")
	cmd.Flags().StringVar(&params, "params", "", "trainer parameters as JSON")
	cmd.Flags().BoolVar(&list, "list", false, "list available trainers")
	return cmd
}
