package main

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"clipbot/internal/config"
)

// skipConfigAnnotation marks commands that must run without a loadable
// config, such as config init.
const skipConfigAnnotation = "skipConfigLoad"

// commandContext loads the configuration once per invocation and shares it
// between the root pre-run hook and the subcommands.
type commandContext struct {
	configFlag *string
	load       func() (*config.Config, error)

	configPath string
	configSeen bool
}

func newCommandContext(configFlag *string) *commandContext {
	c := &commandContext{configFlag: configFlag}
	c.load = sync.OnceValues(func() (*config.Config, error) {
		var flag string
		if c.configFlag != nil {
			flag = strings.TrimSpace(*c.configFlag)
		}
		cfg, path, exists, err := config.Load(flag)
		c.configPath, c.configSeen = path, exists
		if err != nil {
			return nil, err
		}
		if err := cfg.EnsureDirectories(); err != nil {
			return nil, err
		}
		return cfg, nil
	})
	return c
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	return c.load()
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for ; cmd != nil; cmd = cmd.Parent() {
		if cmd.Annotations[skipConfigAnnotation] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
