// Package config manages user-level settings stored at ~/.extplan/config.yaml.
// It loads the file and EXTPLAN_* environment overrides through Viper into a
// typed Config describing repositories, the core catalog, the installed-state
// database, resolver tuning, logging and tracing, and reads or writes single
// keys for the config command.
package config
