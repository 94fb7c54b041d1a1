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

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/opencurve/curvefs-client/internal/config"
)

var (
	cfgFile string
	bindErr error
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:   "curvefs-client",
	Short: "Mount and serve a CurveFS volume or S3-backed filesystem locally",
	Long: `curvefs-client is a FUSE client for CurveFS. It mounts a named
volume or S3 bucket as a local filesystem, translating kernel requests into
calls against the metadata service, space allocator and backing store.`,
}

// Execute runs the root command, exiting the process on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "Path to a YAML config file")
	bindErr = config.BindFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(mountCmd)
	rootCmd.AddCommand(umountCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		viper.SetConfigType("yaml")
		if err := viper.ReadInConfig(); err != nil {
			bindErr = fmt.Errorf("reading config file: %w", err)
			return
		}
	}
	if err := viper.Unmarshal(&cfg); err != nil {
		bindErr = fmt.Errorf("unmarshalling config: %w", err)
	}
}
