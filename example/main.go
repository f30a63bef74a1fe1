// FILE: lixenwraith/nodeconf/example/main.go

// Example trainer shows a schema with nested nodes, node lists, node maps,
// literal and union types and cross references, driven by the cli package:
//
//	go run ./example -c example/config.yaml trainer.max_epochs=3 -p parsed,continue
package main

import (
	"context"
	"fmt"

	"github.com/lixenwraith/nodeconf"
	"github.com/lixenwraith/nodeconf/cli"
)

var (
	targetSchema = nodeconf.NewSchema("target").
			Required("_target_", nodeconf.String).
			Flex().
			MustBuild()

	loaderSchema = nodeconf.NewSchema("loader").
			Optional("_target_", "datasets.load_dataset", nodeconf.String).
			Optional("path", nil, nodeconf.String, nodeconf.Null).
			Required("split", nodeconf.String).
			Optional("task", nil, nodeconf.String, nodeconf.Null).
			Flex().
			MustBuild()

	splitSchema = nodeconf.NewSchema("split").
			Node("loader", loaderSchema).
			NodeList("mappers", targetSchema).
			MustBuild()

	dataSchema = nodeconf.NewSchema("data").
			Optional("batch_size", 1, nodeconf.Int).Help("examples per step").
			Optional("num_workers", 0, nodeconf.Int).
			Optional("pin_memory", false, nodeconf.Bool).
			NodeList("train_splits", splitSchema).
			NodeList("valid_splits", splitSchema).
			NodeList("test_splits", splitSchema).
			MustBuild()

	envSchema = nodeconf.NewSchema("env").
			Optional("root_dir", "~/runs", nodeconf.String).
			Optional("run_name", "trainer", nodeconf.String).
			Optional("seed", 5663, nodeconf.Int).
			MustBuild()

	modelSchema = nodeconf.NewSchema("model").
			Optional("backbone", "bert-base-uncased", nodeconf.String).
			Optional("tokenizer", "${model.backbone}", nodeconf.String).
			Optional("val_loss_label", "val_loss", nodeconf.String).
			NodeMap("metrics", targetSchema).
			MustBuild()

	trainerSchema = nodeconf.NewSchema("trainer").
			Optional("accelerator", "auto", nodeconf.Literal(nodeconf.String, "auto", "cpu", "gpu", "tpu")).
			Optional("devices", 1, nodeconf.Int).
			Optional("max_epochs", -1, nodeconf.Int).
			Optional("precision", 32, nodeconf.Literal(nodeconf.Int, 16, 32, 64)).
			Optional("val_check_interval", 1, nodeconf.Int, nodeconf.Float).
			Optional("gradient_clip_val", nil, nodeconf.Float, nodeconf.Null).
			Optional("timeout", "2h", nodeconf.Duration).
			MustBuild()

	earlyStoppingSchema = nodeconf.NewSchema("early_stopping").
				Optional("mode", "min", nodeconf.Literal(nodeconf.String, "min", "max")).
				Optional("monitor", "${model.val_loss_label}", nodeconf.String).
				Optional("patience", 10, nodeconf.Int).
				MustBuild()

	runSchema = nodeconf.NewSchema("run").
			Node("env", envSchema).
			Node("data", dataSchema).
			Node("model", modelSchema).
			Node("trainer", trainerSchema).
			Node("early_stopping", earlyStoppingSchema).
			MustBuild()
)

func main() {
	cli.Main(runSchema, train, cli.Options{
		Use:       "trainer",
		Short:     "Resolve a training run configuration",
		EnvPrefix: "TRAINER_",
	})
}

func train(_ context.Context, root *nodeconf.Node) error {
	splits, err := root.Nodes("data.train_splits")
	if err != nil {
		return err
	}
	epochs, err := root.Int("trainer.max_epochs")
	if err != nil {
		return err
	}
	monitor, err := root.String("early_stopping.monitor")
	if err != nil {
		return err
	}

	fmt.Printf("training on %d split(s) for %d epoch(s), monitoring %s\n", len(splits), epochs, monitor)
	for i, split := range splits {
		name, _ := split.String("loader.split")
		fmt.Printf("  split %d: %s\n", i, name)
	}
	return nil
}
