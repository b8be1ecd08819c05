package main

import (
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/scott-cotton/cli"
	"github.com/signadot/docworker/config"
	"github.com/signadot/docworker/textdiff"
)

type MainConfig struct {
	ConfigFile string `cli:"name=c aliases=config desc='configuration file (yaml)'"`
	Color      bool   `cli:"name=color desc='output with color'"`
	NoColor    bool   `cli:"name=nocolor desc='output without color'"`

	Out      string
	CloseOut func() error

	Main *cli.Command
}

// load returns the configuration file given with -c, or the defaults.
func (cfg *MainConfig) load() (*config.Config, error) {
	if cfg.ConfigFile == "" {
		return config.Default(), nil
	}
	return config.Load(cfg.ConfigFile)
}

func (cfg *MainConfig) colors(w io.Writer) *textdiff.Colors {
	if cfg.NoColor {
		return nil
	}
	if cfg.Color {
		color.NoColor = false
		return textdiff.NewColors()
	}
	f, ok := w.(*os.File)
	if !ok {
		return nil
	}
	if isatty.IsTerminal(f.Fd()) {
		return textdiff.NewColors()
	}
	return nil
}

type ProcessConfig struct {
	*MainConfig
	Summary bool `cli:"name=summary desc='print outcome counts to stderr'"`

	Process *cli.Command
}

type ServeConfig struct {
	*MainConfig
	Addr       string `cli:"name=addr desc='health and metrics listen address, overriding the configuration'"`
	Gops       bool   `cli:"name=gops desc='start a gops agent'"`
	FlushEvery time.Duration

	Serve *cli.Command
}

func (cfg *ServeConfig) mkFlushEvery() func(cc *cli.Context, a string) (any, error) {
	return func(_ *cli.Context, a string) (any, error) {
		d, err := time.ParseDuration(a)
		if err != nil {
			return nil, err
		}
		cfg.FlushEvery = d
		return d, nil
	}
}

type ApplyConfig struct {
	*MainConfig
	Changes bool `cli:"name=changes desc='print the recorded change log instead of the document'"`
	Verify  bool `cli:"name=verify desc='check that the recorded change log replays to the result'"`

	Apply *cli.Command
}

type DiffConfig struct {
	*MainConfig
	Reverse bool `cli:"name=r desc='reverse the diff'"`
	Patch   bool `cli:"name=patch desc='print a JSON merge patch instead of field diffs'"`

	Diff *cli.Command
}

type ConfigConfig struct {
	*MainConfig

	Config *cli.Command
}
