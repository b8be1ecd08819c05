package main

import (
	"github.com/scott-cotton/cli"
)

func showConfig(cfg *ConfigConfig, cc *cli.Context, args []string) error {
	_, err := cfg.Config.Parse(cc, args)
	if err != nil {
		return err
	}
	c, err := cfg.load()
	if err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return err
	}
	d, err := c.Marshal()
	if err != nil {
		return err
	}
	_, err = cc.Out.Write(d)
	return err
}
