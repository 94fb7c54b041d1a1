// Copyright 2021 NetEase Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config is the mount's configuration surface: flags bound through
// pflag/viper, optionally overlaid by a YAML config file, unmarshaled into
// Config.
package config

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the full set of settings a mount run needs, spanning CLI flags
// and an optional config file (viper merges both, flags taking
// precedence). Environment variables are not consulted.
type Config struct {
	Mount   MountConfig   `yaml:"mount"`
	Rpc     RpcConfig     `yaml:"rpc"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// MountConfig identifies what is being mounted and how.
type MountConfig struct {
	Volume     string `yaml:"volume"`
	FsName     string `yaml:"fs-name" mapstructure:"fs-name"`
	User       string `yaml:"user"`
	FsType     string `yaml:"fs-type" mapstructure:"fs-type"` // "block" or "s3"
	S3Bucket   string `yaml:"s3-bucket" mapstructure:"s3-bucket"`
	S3Endpoint string `yaml:"s3-endpoint" mapstructure:"s3-endpoint"`
	S3Key      string `yaml:"s3-access-key" mapstructure:"s3-access-key"`
	S3Secret   string `yaml:"s3-secret-key" mapstructure:"s3-secret-key"`
}

// RpcConfig addresses the backend services this client dials.
type RpcConfig struct {
	MdsAddress        string `yaml:"mds-address" mapstructure:"mds-address"`
	MetaserverAddress string `yaml:"metaserver-address" mapstructure:"metaserver-address"`
	SpaceAddress      string `yaml:"space-address" mapstructure:"space-address"`
}

// LoggingConfig configures internal/logger's output.
type LoggingConfig struct {
	Path            string `yaml:"path"`
	Severity        string `yaml:"severity"`
	Format          string `yaml:"format"`
	MaxFileSizeMB   int    `yaml:"max-file-size-mb" mapstructure:"max-file-size-mb"`
	BackupFileCount int    `yaml:"backup-file-count" mapstructure:"backup-file-count"`
	Compress        bool   `yaml:"compress"`
}

// MetricsConfig configures the Prometheus exporter.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

// BindFlags registers every Config field as a pflag and binds it into
// viper, so a later viper.Unmarshal (cmd's initConfig) populates a Config
// from whichever of flag / config-file supplied a value.
func BindFlags(flagSet *pflag.FlagSet) error {
	flagSet.StringP("volume", "", "", "Logical volume name backing a Block-type filesystem.")
	if err := viper.BindPFlag("mount.volume", flagSet.Lookup("volume")); err != nil {
		return err
	}

	flagSet.StringP("fs-name", "", "", "Filesystem name registered with the MDS; defaults to the volume name.")
	if err := viper.BindPFlag("mount.fs-name", flagSet.Lookup("fs-name")); err != nil {
		return err
	}

	flagSet.StringP("user", "", "", "Owning user/tenant for this mount.")
	if err := viper.BindPFlag("mount.user", flagSet.Lookup("user")); err != nil {
		return err
	}

	flagSet.StringP("fs-type", "", "block", "Data backend: \"block\" or \"s3\".")
	if err := viper.BindPFlag("mount.fs-type", flagSet.Lookup("fs-type")); err != nil {
		return err
	}

	flagSet.StringP("s3-bucket", "", "", "Object bucket name for an s3-type filesystem.")
	if err := viper.BindPFlag("mount.s3-bucket", flagSet.Lookup("s3-bucket")); err != nil {
		return err
	}

	flagSet.StringP("s3-endpoint", "", "", "Object store endpoint for an s3-type filesystem.")
	if err := viper.BindPFlag("mount.s3-endpoint", flagSet.Lookup("s3-endpoint")); err != nil {
		return err
	}

	flagSet.StringP("s3-access-key", "", "", "Object store access key.")
	if err := viper.BindPFlag("mount.s3-access-key", flagSet.Lookup("s3-access-key")); err != nil {
		return err
	}

	flagSet.StringP("s3-secret-key", "", "", "Object store secret key.")
	if err := viper.BindPFlag("mount.s3-secret-key", flagSet.Lookup("s3-secret-key")); err != nil {
		return err
	}

	flagSet.StringP("mds-address", "", "127.0.0.1:6700", "MDS gRPC address.")
	if err := viper.BindPFlag("rpc.mds-address", flagSet.Lookup("mds-address")); err != nil {
		return err
	}

	flagSet.StringP("metaserver-address", "", "127.0.0.1:6701", "Metaserver gRPC address.")
	if err := viper.BindPFlag("rpc.metaserver-address", flagSet.Lookup("metaserver-address")); err != nil {
		return err
	}

	flagSet.StringP("space-address", "", "127.0.0.1:6702", "Space service gRPC address.")
	if err := viper.BindPFlag("rpc.space-address", flagSet.Lookup("space-address")); err != nil {
		return err
	}

	flagSet.StringP("log-path", "", "", "Log file path; empty logs to stderr.")
	if err := viper.BindPFlag("logging.path", flagSet.Lookup("log-path")); err != nil {
		return err
	}

	flagSet.StringP("log-severity", "", "INFO", "Minimum log severity: TRACE, DEBUG, INFO, WARNING, ERROR, OFF.")
	if err := viper.BindPFlag("logging.severity", flagSet.Lookup("log-severity")); err != nil {
		return err
	}

	flagSet.StringP("log-format", "", "json", "Log encoding: json or text.")
	if err := viper.BindPFlag("logging.format", flagSet.Lookup("log-format")); err != nil {
		return err
	}

	flagSet.IntP("log-max-file-size-mb", "", 100, "Log file rotation size in MB.")
	if err := viper.BindPFlag("logging.max-file-size-mb", flagSet.Lookup("log-max-file-size-mb")); err != nil {
		return err
	}

	flagSet.IntP("log-backup-count", "", 3, "Number of rotated log files to retain.")
	if err := viper.BindPFlag("logging.backup-file-count", flagSet.Lookup("log-backup-count")); err != nil {
		return err
	}

	flagSet.BoolP("log-compress", "", false, "Compress rotated log files.")
	if err := viper.BindPFlag("logging.compress", flagSet.Lookup("log-compress")); err != nil {
		return err
	}

	flagSet.BoolP("metrics-enabled", "", false, "Serve Prometheus metrics.")
	if err := viper.BindPFlag("metrics.enabled", flagSet.Lookup("metrics-enabled")); err != nil {
		return err
	}

	flagSet.StringP("metrics-address", "", "127.0.0.1:9090", "Prometheus exporter listen address.")
	if err := viper.BindPFlag("metrics.address", flagSet.Lookup("metrics-address")); err != nil {
		return err
	}

	return nil
}
