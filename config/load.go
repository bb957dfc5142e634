package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/ILLGrenoble/webx-router/errors"
)

// defaultConfigPaths are tried in order when explicitPath is empty.
var defaultConfigPaths = []string{
	"/etc/webx/webx-router-config.yml",
	"./config.yml",
}

// Load reads the router configuration from explicitPath, or the first
// existing default path, overlaid with WEBX_ROUTER_* environment
// variables. A missing file at every default path is not an error: the
// router runs on defaults plus environment overrides.
func Load(explicitPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	SetDefaults(v)

	v.SetEnvPrefix("WEBX_ROUTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := resolveConfigPath(explicitPath)
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.System(err, "read config file "+path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.System(err, "unmarshal config")
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resolveConfigPath returns explicitPath if set, otherwise the first
// defaultConfigPaths entry that exists on disk, otherwise "".
func resolveConfigPath(explicitPath string) string {
	if explicitPath != "" {
		return explicitPath
	}
	for _, p := range defaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func validate(cfg *Config) error {
	ports := map[string]int{
		"transport.ports.connector": cfg.Transport.Ports.Connector,
		"transport.ports.publisher": cfg.Transport.Ports.Publisher,
		"transport.ports.collector": cfg.Transport.Ports.Collector,
		"transport.ports.session":   cfg.Transport.Ports.Session,
	}
	for name, p := range ports {
		if p <= 0 || p > 65535 {
			return errors.System(errors.Newf("invalid port %d", p), name)
		}
	}
	if cfg.Transport.IPC.MessageProxy == "" || cfg.Transport.IPC.InstructionProxy == "" ||
		cfg.Transport.IPC.EngineConnectorRoot == "" {
		return errors.System(errors.New("ipc paths must not be empty"), "transport.ipc")
	}
	return nil
}
