// FILE: lixenwraith/nodeconf/cmd/nodeconf/main.go

// Command nodeconf merges, compares and fingerprints configuration documents
// without a schema.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lixenwraith/nodeconf"
	"github.com/lixenwraith/nodeconf/cli"
	"github.com/lixenwraith/nodeconf/render"
)

var version = "dev"

// document keeps every key of any input
var document = nodeconf.NewSchema("document").Flex().MustBuild()

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.ExitCode(err))
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "nodeconf",
		Short: "Merge, compare and fingerprint configuration documents",
		Long: `nodeconf layers YAML, JSON, JSONC and TOML documents the same way a
schema-driven program does: later files override earlier ones key by key,
lists are replaced whole and --set overrides win over every file.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate(`{{printf "nodeconf version %s\n" .Version}}`)

	root.AddCommand(newMergeCmd(), newDiffCmd(), newFingerprintCmd())
	return root
}

func newMergeCmd() *cobra.Command {
	var sets []string
	var format string

	cmd := &cobra.Command{
		Use:   "merge FILE...",
		Short: "Merge documents left to right and print the result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			merged, err := loadMerged(args, sets)
			if err != nil {
				return err
			}
			data, err := nodeconf.MarshalMap(merged, nodeconf.Format(format))
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().StringArrayVarP(&sets, "set", "s", nil, "path=value override applied after all files")
	cmd.Flags().StringVarP(&format, "output", "o", "yaml", "output format: yaml, json, toml or cbor")
	return cmd
}

func newDiffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff OLD NEW",
		Short: "Show the line differences between two documents after normalizing them to YAML",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var texts [2]string
			for i, path := range args {
				m, err := nodeconf.LoadFile(path, nodeconf.DefaultLoadOptions())
				if err != nil {
					return err
				}
				data, err := nodeconf.MarshalMap(m, nodeconf.FormatYAML)
				if err != nil {
					return err
				}
				texts[i] = string(data)
			}
			fmt.Fprint(cmd.OutOrStdout(), render.Diff(texts[0], texts[1]))
			return nil
		},
	}
}

func newFingerprintCmd() *cobra.Command {
	var sets []string

	cmd := &cobra.Command{
		Use:   "fingerprint FILE...",
		Short: "Print the BLAKE3 fingerprint of the merged documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			merged, err := loadMerged(args, sets)
			if err != nil {
				return err
			}
			root, err := nodeconf.Construct(document, merged)
			if err != nil {
				return err
			}
			sum, err := root.Fingerprint()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), sum)
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&sets, "set", "s", nil, "path=value override applied after all files")
	return cmd
}

func loadMerged(files, sets []string) (*nodeconf.Map, error) {
	layers := make([]*nodeconf.Map, 0, len(files)+1)
	for _, path := range files {
		m, err := nodeconf.LoadFile(path, nodeconf.DefaultLoadOptions())
		if err != nil {
			return nil, err
		}
		layers = append(layers, m)
	}
	overrides, err := nodeconf.ParseArgs(sets)
	if err != nil {
		return nil, err
	}
	return nodeconf.Merge(append(layers, overrides)...), nil
}
