// SPDX-License-Identifier: MPL-2.0

// Package config loads the chores configuration using Viper with TOML files.
//
// The main file is $XDG_CONFIG_HOME/chores/config.toml. Per-tool files from
// earlier standalone tools (adslby/creds.toml, lostfilm/config.toml,
// pushbullet/config.toml, yadns/config.toml, pocket/creds.toml) are merged
// under their section when present, the main file overrides them, and
// CHORES_<SECTION>_<KEY> environment variables override both.
package config
