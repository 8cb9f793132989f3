package pushtx

import (
	"fmt"
	"os"
	"time"

	"github.com/alexvanin/pushtx/pkg/bitcoinnet"
	"github.com/alexvanin/pushtx/pkg/netaddr"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk, YAML-tagged representation of the options a
// broadcast run can be configured with. CLI flags always take precedence
// over a loaded FileConfig; this only supplies defaults.
type FileConfig struct {
	Network        string   `yaml:"network"`
	TorMode        string   `yaml:"tor_mode"`
	MaxTimeSeconds int      `yaml:"max_time_seconds"`
	TargetPeers    int      `yaml:"target_peers"`
	DryRun         bool     `yaml:"dry_run"`
	UserAgent      string   `yaml:"user_agent"`
	CustomPeers    []string `yaml:"custom_peers"`
}

// LoadConfig reads and parses a YAML FileConfig from path.
func LoadConfig(path string) (*FileConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg FileConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// ApplyTo merges the file config into opts, leaving any field opts
// already set (non-zero) untouched.
func (c *FileConfig) ApplyTo(opts *Opts) error {
	if c == nil {
		return nil
	}
	if opts.MaxTime == 0 && c.MaxTimeSeconds > 0 {
		opts.MaxTime = time.Duration(c.MaxTimeSeconds) * time.Second
	}
	if opts.TargetPeers == 0 && c.TargetPeers > 0 {
		opts.TargetPeers = c.TargetPeers
	}
	if opts.UserAgent == "" && c.UserAgent != "" {
		opts.UserAgent = c.UserAgent
	}
	if !opts.DryRun && c.DryRun {
		opts.DryRun = c.DryRun
	}
	if len(opts.CustomPeers) == 0 && len(c.CustomPeers) > 0 {
		peers := make([]netaddr.Service, 0, len(c.CustomPeers))
		for _, s := range c.CustomPeers {
			svc, err := netaddr.ParseService(s)
			if err != nil {
				return fmt.Errorf("config custom_peers: %w", err)
			}
			peers = append(peers, svc)
		}
		opts.CustomPeers = peers
	}
	if c.Network != "" {
		n, err := bitcoinnet.Parse(c.Network)
		if err != nil {
			return err
		}
		opts.Network = n
	}
	if c.TorMode != "" {
		m, err := ParseTorMode(c.TorMode)
		if err != nil {
			return err
		}
		opts.UseTor = m
	}
	return nil
}
