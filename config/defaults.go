package config

import "github.com/spf13/viper"

// SetDefaults seeds every configuration field with its documented default,
// mirroring QNTX's am.SetDefaults: callers then only need to set the
// values they actually want to change.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file.enabled", false)
	v.SetDefault("logging.file.path", "/var/log/webx/webx-router.log")
	v.SetDefault("logging.format", "{timestamp} [{level}] {message}")

	v.SetDefault("transport.ports.connector", 8787)
	v.SetDefault("transport.ports.publisher", 8788)
	v.SetDefault("transport.ports.collector", 8789)
	v.SetDefault("transport.ports.session", 8790)

	v.SetDefault("transport.ipc.message_proxy", "/var/run/webx/message-proxy")
	v.SetDefault("transport.ipc.instruction_proxy", "/var/run/webx/instruction-proxy")
	v.SetDefault("transport.ipc.engine_connector_root", "/var/run/webx/engine")
	v.SetDefault("transport.ipc.sesman_connector", "/var/run/webx/sesman")

	v.SetDefault("transport.encryption.public", "")
	v.SetDefault("transport.encryption.private", "")

	v.SetDefault("sesman.enabled", true)
	v.SetDefault("sesman.fallback_display_id", ":0")
	v.SetDefault("sesman.auto_logout_s", int64(0))
	v.SetDefault("sesman.authentication.service", "webx")
	v.SetDefault("sesman.xorg.config_path", "/etc/webx/xorg.conf")
	v.SetDefault("sesman.xorg.sessions_path", "/var/run/webx/sessions")
	v.SetDefault("sesman.xorg.log_path", "/var/log/webx")
	v.SetDefault("sesman.xorg.lock_path", "/tmp/.X11-unix")
	v.SetDefault("sesman.xorg.display_offset", 10)
	v.SetDefault("sesman.xorg.window_manager", "/usr/bin/openbox")

	v.SetDefault("engine.path", "/usr/bin/webx-engine")
	v.SetDefault("engine.log_path", "/var/log/webx")
}
