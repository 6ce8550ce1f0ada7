package launcher

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/urfave/cli.v1"

	"github.com/rony4d/go-cca-client/flags"
)

// runConfigFromArgs runs MakeAllConfigs inside a synthetic app carrying the
// global flags.
func runConfigFromArgs(t *testing.T, args []string) (Config, error) {
	t.Helper()

	app := cli.NewApp()
	app.HideHelp = true
	app.HideVersion = true
	app.Flags = flags.Merge(flags.CommonFlags(), flags.NetworkFlags())

	var (
		got    Config
		cfgErr error
	)
	app.Action = func(c *cli.Context) error {
		got, cfgErr = MakeAllConfigs(c)
		return nil
	}

	if err := app.Run(append([]string{"cca"}, args...)); err != nil {
		t.Fatalf("app.Run failed: %v", err)
	}
	return got, cfgErr
}

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cca.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// TestMakeAllConfigs_flagOverrides feeds flag combinations into a synthetic
// app and checks the parts of the resolved Config that should change.
func TestMakeAllConfigs_flagOverrides(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want func(t *testing.T, cfg Config)
	}{
		{
			name: "defaults resolve the local preset",
			args: nil,
			want: func(t *testing.T, cfg Config) {
				if cfg.Network.Name != "default" || cfg.Network.ChainID != 31337 {
					t.Fatalf("Network = %+v, want default/31337", cfg.Network)
				}
				if cfg.Network.BlockTime != time.Second {
					t.Fatalf("BlockTime = %v, want 1s", cfg.Network.BlockTime)
				}
				if cfg.RPC.URL != "http://127.0.0.1:8545" {
					t.Fatalf("RPC.URL = %q, want the preset endpoint", cfg.RPC.URL)
				}
				if cfg.RPC.Timeout != 30*time.Second {
					t.Fatalf("RPC.Timeout = %v, want 30s", cfg.RPC.Timeout)
				}
				if cfg.Logging.Verbosity != 3 || cfg.Logging.Format != "text" {
					t.Fatalf("Logging = %+v, want verbosity 3, text", cfg.Logging)
				}
				if cfg.Output.Format != "text" || cfg.Reader.CacheSize != 128 {
					t.Fatalf("Output = %+v Reader = %+v", cfg.Output, cfg.Reader)
				}
			},
		},
		{
			name: "network preset",
			args: []string{"--network", "mainnet"},
			want: func(t *testing.T, cfg Config) {
				if cfg.Network.ChainID != 1 || cfg.Network.BlockTime != 12*time.Second {
					t.Fatalf("Network = %+v, want mainnet values", cfg.Network)
				}
				if cfg.RPC.URL != "https://ethereum-rpc.publicnode.com" {
					t.Fatalf("RPC.URL = %q, want the mainnet endpoint", cfg.RPC.URL)
				}
			},
		},
		{
			name: "explicit rpc and block time win over the preset",
			args: []string{"--network", "base", "--rpc", "http://localhost:9999", "--blocktime", "3s"},
			want: func(t *testing.T, cfg Config) {
				if cfg.RPC.URL != "http://localhost:9999" {
					t.Fatalf("RPC.URL = %q, want the flag value", cfg.RPC.URL)
				}
				if cfg.Network.BlockTime != 3*time.Second {
					t.Fatalf("BlockTime = %v, want 3s", cfg.Network.BlockTime)
				}
				if cfg.Network.ChainID != 8453 {
					t.Fatalf("ChainID = %d, want 8453", cfg.Network.ChainID)
				}
			},
		},
		{
			name: "logging",
			args: []string{"--log.format", "json", "--log.verbosity", "5", "--log.color"},
			want: func(t *testing.T, cfg Config) {
				if cfg.Logging.Format != "json" || cfg.Logging.Verbosity != 5 || !cfg.Logging.Color {
					t.Fatalf("Logging = %+v, want json/5/color", cfg.Logging)
				}
			},
		},
		{
			name: "output, cache and timeout",
			args: []string{"--output", "json", "--cache.auctions", "7", "--rpc.timeout", "5s"},
			want: func(t *testing.T, cfg Config) {
				if cfg.Output.Format != "json" {
					t.Fatalf("Output.Format = %q, want json", cfg.Output.Format)
				}
				if cfg.Reader.CacheSize != 7 {
					t.Fatalf("Reader.CacheSize = %d, want 7", cfg.Reader.CacheSize)
				}
				if cfg.RPC.Timeout != 5*time.Second {
					t.Fatalf("RPC.Timeout = %v, want 5s", cfg.RPC.Timeout)
				}
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg, err := runConfigFromArgs(t, test.args)
			if err != nil {
				t.Fatalf("MakeAllConfigs(%v) returned error: %v", test.args, err)
			}
			test.want(t, cfg)
		})
	}
}

// TestMakeAllConfigs_configFile checks the file sits between defaults and flags.
func TestMakeAllConfigs_configFile(t *testing.T) {
	path := writeConfigFile(t, `
rpc:
  url: http://10.0.0.1:8545
  timeout: 10s
network:
  name: sepolia
logging:
  verbosity: 4
factory:
  address: "0x00000000000000000000000000000000000000fa"
reader:
  cacheSize: 32
`)

	cfg, err := runConfigFromArgs(t, []string{"--config", path, "--network", "mainnet", "--log.verbosity", "2"})
	if err != nil {
		t.Fatalf("MakeAllConfigs returned error: %v", err)
	}
	if cfg.Network.Name != "mainnet" || cfg.Network.ChainID != 1 {
		t.Fatalf("Network = %+v, flag should override the file", cfg.Network)
	}
	if cfg.RPC.URL != "http://10.0.0.1:8545" {
		t.Fatalf("RPC.URL = %q, the file endpoint should beat the preset", cfg.RPC.URL)
	}
	if cfg.RPC.Timeout != 10*time.Second {
		t.Fatalf("RPC.Timeout = %v, want 10s from the file", cfg.RPC.Timeout)
	}
	if cfg.Logging.Verbosity != 2 {
		t.Fatalf("Verbosity = %d, want 2 from the flag", cfg.Logging.Verbosity)
	}
	if cfg.Factory.Address != "0x00000000000000000000000000000000000000fa" {
		t.Fatalf("Factory.Address = %q", cfg.Factory.Address)
	}
	if cfg.Reader.CacheSize != 32 {
		t.Fatalf("Reader.CacheSize = %d, want 32", cfg.Reader.CacheSize)
	}
}

func TestMakeAllConfigs_invalid(t *testing.T) {
	unknownKey := writeConfigFile(t, "rpc:\n  uri: http://typo\n")
	badFactory := writeConfigFile(t, "factory:\n  address: nope\n")

	tests := []struct {
		name string
		args []string
	}{
		{"unknown network", []string{"--network", "goerli"}},
		{"verbosity out of range", []string{"--log.verbosity", "9"}},
		{"negative verbosity", []string{"--log.verbosity", "-1"}},
		{"log format", []string{"--log.format", "xml"}},
		{"output format", []string{"--output", "csv"}},
		{"zero cache", []string{"--cache.auctions", "0"}},
		{"zero timeout", []string{"--rpc.timeout", "0s"}},
		{"missing file", []string{"--config", filepath.Join(t.TempDir(), "absent.yaml")}},
		{"unknown file key", []string{"--config", unknownKey}},
		{"bad factory address", []string{"--config", badFactory}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := runConfigFromArgs(t, test.args)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("MakeAllConfigs(%v) error = %v, want ErrInvalidConfig", test.args, err)
			}
			if code := ExitCode(err); code != ExitInput {
				t.Fatalf("ExitCode = %d, want %d", code, ExitInput)
			}
		})
	}
}

func TestResolvePath(t *testing.T) {
	if got := resolvePath("/etc/cca.yaml"); got != "/etc/cca.yaml" {
		t.Fatalf("absolute path changed: %q", got)
	}
	if got := resolvePath("cca.yaml"); got != filepath.Join(GuessWorkDir(), "cca.yaml") {
		t.Fatalf("relative path = %q, want it under the work dir", got)
	}
	if got := resolvePath("~/cca.yaml"); got != filepath.Join(GuessHomeDir(), "cca.yaml") {
		t.Fatalf("home path = %q, want it under the home dir", got)
	}
}
