// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - chartchat config show|path|init|get|set|keys.

package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/chartchat/internal/config"
	"github.com/jeranaias/chartchat/internal/ui/styles"
)

const configUsage = "chartchat config show|path|init|get <key>|set <key> <value>|keys"

// HandleConfig runs the config command.
func HandleConfig(args Args) error {
	var cfg *config.Config
	if args.Subcommand != "path" && args.Subcommand != "init" && args.Subcommand != "keys" {
		loaded, err := LoadConfig(args, os.Stderr)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	path, err := configTarget(args)
	if err != nil {
		return err
	}
	return RunConfig(cfg, path, args, os.Stdout)
}

// configTarget is the file config init and config set write to.
func configTarget(args Args) (string, error) {
	if args.ConfigPath != "" {
		return args.ConfigPath, nil
	}
	return config.ConfigPathTOML()
}

// RunConfig executes one config subcommand against cfg, writing to path.
func RunConfig(cfg *config.Config, path string, args Args, out io.Writer) error {
	cmd := CmdConfig.String()

	switch args.Subcommand {
	case "", "show":
		if args.JSON {
			return NewJSONResponse(cmd, cfg).Write(out)
		}
		return toml.NewEncoder(out).Encode(cfg)

	case "path":
		if args.JSON {
			return NewJSONResponse(cmd, map[string]string{"path": path}).Write(out)
		}
		fmt.Fprintln(out, path)
		return nil

	case "init":
		if fileExists(path) {
			return NewCommandError("config", "init", "file already exists: "+path, nil)
		}
		if err := saveConfig(config.Default(), path); err != nil {
			return NewCommandError("config", "init", path, err)
		}
		if args.JSON {
			return NewJSONResponse(cmd, map[string]string{"path": path}).Write(out)
		}
		fmt.Fprintln(out, styles.RenderSuccess("Wrote "+path))
		return nil

	case "get":
		if args.ConfigKey == "" {
			return ErrMissingArgument("key", "chartchat config get server.url")
		}
		val, err := cfg.Get(args.ConfigKey)
		if err != nil {
			return &NotFoundError{Resource: "config key", ID: args.ConfigKey}
		}
		if args.JSON {
			return NewJSONResponse(cmd, map[string]interface{}{args.ConfigKey: val}).Write(out)
		}
		fmt.Fprintln(out, formatValue(val))
		return nil

	case "set":
		if args.ConfigKey == "" || args.ConfigVal == "" {
			return ErrMissingArgument("key and value", "chartchat config set server.url http://localhost:9000")
		}
		updated := cfg.Clone()
		if err := updated.Set(args.ConfigKey, args.ConfigVal); err != nil {
			if _, getErr := cfg.Get(args.ConfigKey); getErr != nil {
				return &NotFoundError{Resource: "config key", ID: args.ConfigKey}
			}
			return &ValidationError{Field: args.ConfigKey, Value: args.ConfigVal, Reason: err.Error()}
		}
		if err := updated.Validate(); err != nil {
			return err
		}
		if err := saveConfig(updated, path); err != nil {
			return NewCommandError("config", "set", path, err)
		}
		if args.JSON {
			return NewJSONResponse(cmd, map[string]string{"key": args.ConfigKey, "value": args.ConfigVal, "path": path}).Write(out)
		}
		fmt.Fprintln(out, styles.RenderSuccess(args.ConfigKey+" = "+args.ConfigVal))
		return nil

	case "keys":
		keys := config.GetAllKeys()
		if args.JSON {
			return NewJSONResponse(cmd, keys).Write(out)
		}
		fmt.Fprintln(out, strings.Join(keys, "\n"))
		return nil

	default:
		return &ValidationError{Field: "subcommand", Value: args.Subcommand, Reason: "unknown config subcommand", Example: configUsage}
	}
}

func saveConfig(cfg *config.Config, path string) error {
	if strings.HasSuffix(path, ".json") {
		return config.SaveJSON(cfg, path)
	}
	return config.SaveTOML(cfg, path)
}

func formatValue(v interface{}) string {
	if items, ok := v.([]string); ok {
		return strings.Join(items, ",")
	}
	return fmt.Sprint(v)
}
