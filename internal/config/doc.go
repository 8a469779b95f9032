// Package config loads pickpack's settings from layered sources.
//
// Sources, lowest priority first:
//
//	defaults            built in
//	config file         $XDG_CONFIG_HOME/pickpack/config.yaml or --config
//	environment         PICKPACK_* (PICKPACK_LOG_LEVEL -> log.level)
//	flags               --tool, --interactive, --log.level, ...
//
// Example config.yaml:
//
//	tool: winget
//	interactive: false
//	catalog: /home/me/packages.yaml
//	timeout: 0s
//	theme: pickpack
//	log:
//	  level: info
//
// Example usage:
//
//	manager := config.NewManager(config.DefaultPath())
//	if err := manager.Load(cmd.Flags()); err != nil {
//		return err
//	}
//	cfg := manager.Get()
//
//	// Persist a setting to the config file
//	manager.Set("interactive", "true")
//
// The config file only ever receives values written through Set; flags
// and environment overrides are never saved.
package config
