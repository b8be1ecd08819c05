package main

import (
	"time"

	"github.com/scott-cotton/cli"
)

func MainCommand() *cli.Command {
	cfg := &MainConfig{}
	sOpts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	opts := append(sOpts, &cli.Opt{
		Name:        "o",
		Description: "output file (default stdout)",
		Type:        cli.NamedFuncOpt(cfg.outOpt, "(filepath)"),
	})

	return cli.NewCommandAt(&cfg.Main, "docworker").
		WithSynopsis("docworker [opts] command [opts]").
		WithDescription("docworker runs document enrichment workers and inspects their documents and change logs.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return dwMain(cfg, cc, args)
		}).
		WithSubs(
			ProcessCommand(cfg),
			ServeCommand(cfg),
			ApplyCommand(cfg),
			DiffCommand(cfg),
			ConfigCommand(cfg))
}

func ProcessCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &ProcessConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Process, "process").
		WithAliases("p").
		WithSynopsis("process [-summary] [files]").
		WithDescription(processDescription).
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return process(cfg, cc, args)
		})
}

const processDescription = `process runs the configured worker over task messages.

Messages are read one per line from the given files, or stdin, in the form

  {"id": "...", "classifier": "DocumentWorker", "payload": {...}}

where the classifier is DocumentWorker for field enrichment tasks or
DocumentWorkerTask for document tasks. One response is written per line.`

func ServeCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &ServeConfig{MainConfig: mainCfg, FlushEvery: time.Second}
	flushOpt := &cli.Opt{
		Name:        "flush",
		Description: "process a partial batch after this much idle time",
		Type:        cli.NamedFuncOpt(cli.FuncOpt(cfg.mkFlushEvery()), "(duration)"),
	}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	opts = append(opts, flushOpt)
	return cli.NewCommandAt(&cfg.Serve, "serve").
		WithAliases("s").
		WithSynopsis("serve [-addr <addr>] [-gops] [-flush <duration>] [file]").
		WithDescription("run the worker on a stream of messages, serving health checks and metrics").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return serve(cfg, cc, args)
		})
}

func ApplyCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &ApplyConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Apply, "apply").
		WithAliases("a").
		WithSynopsis("apply [-changes] [-verify] <document> <changelog>").
		WithDescription("apply a change log to a document").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return apply(cfg, cc, args)
		})
}

func DiffCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &DiffConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Diff, "diff").
		WithAliases("d", "di").
		WithSynopsis("diff [-r] [-patch] a b").
		WithDescription("diff two documents, exiting 1 if they differ").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return diff(cfg, cc, args)
		})
}

func ConfigCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &ConfigConfig{MainConfig: mainCfg}
	return cli.NewCommandAt(&cfg.Config, "config").
		WithSynopsis("config").
		WithDescription("validate and print the effective configuration").
		WithRun(func(cc *cli.Context, args []string) error {
			return showConfig(cfg, cc, args)
		})
}
