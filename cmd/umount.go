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

	"github.com/jacobsa/fuse"
	"github.com/spf13/cobra"
)

var umountCmd = &cobra.Command{
	Use:   "umount <mount_point>",
	Short: "Unmount a previously mounted mount_point",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		if err := fuse.Unmount(args[0]); err != nil {
			return fmt.Errorf("unmount: %w", err)
		}
		return nil
	},
}
