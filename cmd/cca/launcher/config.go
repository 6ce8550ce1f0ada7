// This file maps the CLI context and the optional config file onto Config.

package launcher

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"gopkg.in/urfave/cli.v1"
	"gopkg.in/yaml.v2"

	"github.com/rony4d/go-cca-client/flags"
	"github.com/rony4d/go-cca-client/integration"
)

// Config aggregates everything a command needs besides its own flags.
type Config struct {
	RPC     RPCConfig     `yaml:"rpc"`
	Network NetworkConfig `yaml:"network"`
	Logging LoggingConfig `yaml:"logging"`
	Output  OutputConfig  `yaml:"output"`
	Factory FactoryConfig `yaml:"factory"`
	Reader  ReaderConfig  `yaml:"reader"`
}

type RPCConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// NetworkConfig names a preset. ChainID and BlockTime override the preset
// when non-zero.
type NetworkConfig struct {
	Name      string        `yaml:"name"`
	ChainID   uint64        `yaml:"chainId"`
	BlockTime time.Duration `yaml:"blockTime"`
}

type LoggingConfig struct {
	Verbosity int    `yaml:"verbosity"`
	Format    string `yaml:"format"`
	Color     bool   `yaml:"color"`
	SentryDSN string `yaml:"sentryDsn"`
}

type OutputConfig struct {
	Format string `yaml:"format"`
}

type FactoryConfig struct {
	Address string `yaml:"address"`
}

type ReaderConfig struct {
	CacheSize int `yaml:"cacheSize"`
}

// Preset returns the resolved network as a preset.
func (c Config) Preset() integration.NetworkPreset {
	return integration.NetworkPreset{
		Name:      c.Network.Name,
		ChainID:   c.Network.ChainID,
		BlockTime: c.Network.BlockTime,
		RPC:       c.RPC.URL,
	}
}

func defaultConfig() Config {
	d := DefaultConfig()
	return Config{
		RPC: RPCConfig{
			URL:     d.RPC.URL,
			Timeout: d.RPC.Timeout,
		},
		Network: NetworkConfig{
			Name: d.Network.Name,
		},
		Logging: LoggingConfig{
			Verbosity: d.Logging.Verbosity,
			Format:    d.Logging.Format,
			Color:     d.Logging.Color,
		},
		Output: OutputConfig{
			Format: d.Output.Format,
		},
		Reader: ReaderConfig{
			CacheSize: d.Reader.CacheSize,
		},
	}
}

// MakeAllConfigs merges defaults, the config file and global flag overrides,
// then fills the gaps from the selected network preset.
func MakeAllConfigs(ctx *cli.Context) (Config, error) {
	cfg := defaultConfig()

	if file := ctx.GlobalString(flags.ConfigFileFlag.Name); file != "" {
		if err := loadConfigFile(resolvePath(file), &cfg); err != nil {
			return Config{}, err
		}
	}

	applyCLIOverrides(ctx, &cfg)

	if err := resolveNetwork(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(ErrInvalidConfig, "read %s: %v", path, err)
	}
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return errors.Wrapf(ErrInvalidConfig, "parse %s: %v", path, err)
	}
	return nil
}

func applyCLIOverrides(ctx *cli.Context, cfg *Config) {
	if ctx.GlobalIsSet(flags.RPCFlag.Name) {
		cfg.RPC.URL = ctx.GlobalString(flags.RPCFlag.Name)
	}
	if ctx.GlobalIsSet(flags.RPCTimeoutFlag.Name) {
		cfg.RPC.Timeout = ctx.GlobalDuration(flags.RPCTimeoutFlag.Name)
	}

	if ctx.GlobalIsSet(flags.NetworkFlag.Name) {
		cfg.Network.Name = ctx.GlobalString(flags.NetworkFlag.Name)
	}
	if ctx.GlobalIsSet(flags.BlockTimeFlag.Name) {
		cfg.Network.BlockTime = ctx.GlobalDuration(flags.BlockTimeFlag.Name)
	}

	if ctx.GlobalIsSet(flags.LogFormatFlag.Name) {
		cfg.Logging.Format = ctx.GlobalString(flags.LogFormatFlag.Name)
	}
	if ctx.GlobalIsSet(flags.VerbosityFlag.Name) {
		cfg.Logging.Verbosity = ctx.GlobalInt(flags.VerbosityFlag.Name)
	}
	if ctx.GlobalIsSet(flags.LogColorFlag.Name) {
		cfg.Logging.Color = ctx.GlobalBool(flags.LogColorFlag.Name)
	}
	if ctx.GlobalIsSet(flags.SentryDSNFlag.Name) {
		cfg.Logging.SentryDSN = ctx.GlobalString(flags.SentryDSNFlag.Name)
	}

	if ctx.GlobalIsSet(flags.OutputFlag.Name) {
		cfg.Output.Format = ctx.GlobalString(flags.OutputFlag.Name)
	}
	if ctx.GlobalIsSet(flags.ReaderCacheFlag.Name) {
		cfg.Reader.CacheSize = ctx.GlobalInt(flags.ReaderCacheFlag.Name)
	}
}

// resolveNetwork starts from the named preset and lays the configured
// values over it, so an explicit RPC URL or block time wins.
func resolveNetwork(cfg *Config) error {
	preset, err := integration.GetPresetByName(cfg.Network.Name)
	if err != nil {
		return errors.Wrap(ErrInvalidConfig, err.Error())
	}
	integration.ApplyPreset(&preset, cfg.Preset())

	cfg.Network.Name = preset.Name
	cfg.Network.ChainID = preset.ChainID
	cfg.Network.BlockTime = preset.BlockTime
	cfg.RPC.URL = preset.RPC
	return nil
}

func (c Config) validate() error {
	if c.Logging.Verbosity < 0 || c.Logging.Verbosity >= len(verbosityLevels) {
		return errors.Wrapf(ErrInvalidConfig, "log verbosity %d out of range 0..%d", c.Logging.Verbosity, len(verbosityLevels)-1)
	}
	if !validFormat(c.Logging.Format) {
		return errors.Wrapf(ErrInvalidConfig, "log format %q", c.Logging.Format)
	}
	if !validFormat(c.Output.Format) {
		return errors.Wrapf(ErrInvalidConfig, "output format %q", c.Output.Format)
	}
	if c.RPC.Timeout <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "rpc timeout %v", c.RPC.Timeout)
	}
	if c.Reader.CacheSize <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "reader cache size %d", c.Reader.CacheSize)
	}
	if c.Factory.Address != "" && !common.IsHexAddress(c.Factory.Address) {
		return errors.Wrapf(ErrInvalidConfig, "factory address %q", c.Factory.Address)
	}
	return nil
}

func validFormat(f string) bool {
	return f == formatText || f == formatJSON
}

func resolvePath(p string) string {
	if strings.HasPrefix(p, "~") {
		return filepath.Join(GuessHomeDir(), strings.TrimPrefix(p, "~"))
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(GuessWorkDir(), p)
}

func GuessWorkDir() string {
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

func GuessHomeDir() string {
	if dir, err := os.UserHomeDir(); err == nil {
		return dir
	}
	return "."
}
