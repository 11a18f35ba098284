package main

import (
	"fmt"
	"strings"
	"sync"

	"waveforge/internal/config"
)

// commandContext lazily loads configuration so commands that never touch it
// (profiles, fetch with --api) stay independent of the local setup.
type commandContext struct {
	configFlag *string
	apiFlag    *string

	mu         sync.Mutex
	cfg        *config.Config
	configPath string
	fromFile   bool
}

func newCommandContext(configFlag, apiFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag, apiFlag: apiFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cfg != nil {
		return c.cfg, nil
	}

	path := ""
	if c.configFlag != nil {
		path = strings.TrimSpace(*c.configFlag)
	}
	cfg, resolvedPath, fromFile, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	c.configPath = resolvedPath
	c.fromFile = fromFile
	return cfg, nil
}

// apiBase resolves the daemon base URL from the flag or configuration.
func (c *commandContext) apiBase() (string, error) {
	if c.apiFlag != nil {
		if addr := strings.TrimSpace(*c.apiFlag); addr != "" {
			return "http://" + addr, nil
		}
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return "", fmt.Errorf("resolve daemon address: %w", err)
	}
	return "http://" + cfg.Paths.APIBind, nil
}
