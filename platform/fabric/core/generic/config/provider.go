/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// CmdRoot is the name of the configuration file, without extension
const CmdRoot = "core"

// Provider is a viper-backed implementation of driver.Configuration
type Provider struct {
	confPath string
	v        *viper.Viper
}

// NewProvider reads the configuration file named core.yaml at the passed path
func NewProvider(confPath string) (*Provider, error) {
	p := &Provider{confPath: confPath}
	if err := p.load(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Provider) GetString(key string) string {
	return p.v.GetString(key)
}

func (p *Provider) GetDuration(key string) time.Duration {
	return p.v.GetDuration(key)
}

func (p *Provider) GetBool(key string) bool {
	return p.v.GetBool(key)
}

func (p *Provider) GetInt(key string) int {
	return p.v.GetInt(key)
}

func (p *Provider) IsSet(key string) bool {
	return p.v.IsSet(key)
}

func (p *Provider) UnmarshalKey(key string, rawVal interface{}) error {
	return p.v.UnmarshalKey(key, rawVal)
}

// TranslatePath translates the passed path relative to the config file location
func (p *Provider) TranslatePath(path string) string {
	if path == "" {
		return ""
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(filepath.Dir(p.v.ConfigFileUsed()), path)
}

func (p *Provider) ConfigFileUsed() string {
	return p.v.ConfigFileUsed()
}

func (p *Provider) load() error {
	p.v = viper.New()
	p.v.SetConfigName(CmdRoot)
	p.v.AddConfigPath(p.confPath)
	p.v.SetEnvPrefix(CmdRoot)
	p.v.AutomaticEnv()
	p.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := p.v.ReadInConfig(); err != nil {
		return errors.WithMessagef(err, "error when reading %s config file at [%s]", CmdRoot, p.confPath)
	}
	return nil
}
