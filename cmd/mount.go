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
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"cloud.google.com/go/storage"
	"github.com/jacobsa/fuse"
	"github.com/spf13/cobra"

	"github.com/opencurve/curvefs-client/internal/fsclient"
	"github.com/opencurve/curvefs-client/internal/fuseserver"
	"github.com/opencurve/curvefs-client/internal/logger"
	"github.com/opencurve/curvefs-client/internal/metrics"
	"github.com/opencurve/curvefs-client/internal/mountlifecycle"
	"github.com/opencurve/curvefs-client/internal/rpc/block"
	"github.com/opencurve/curvefs-client/internal/rpc/mds"
	"github.com/opencurve/curvefs-client/internal/rpc/metaserver"
	"github.com/opencurve/curvefs-client/internal/rpc/object"
	"github.com/opencurve/curvefs-client/internal/rpc/space"
	"github.com/opencurve/curvefs-client/internal/types"
)

var mountCmd = &cobra.Command{
	Use:   "mount <mount_point>",
	Short: "Mount the configured volume or bucket at mount_point and serve it",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		if bindErr != nil {
			return bindErr
		}
		return runMount(args[0])
	},
}

func runMount(mountPoint string) error {
	log := newLogger()

	fsType, err := parseFsType(cfg.Mount.FsType)
	if err != nil {
		return err
	}

	mdsClient, err := mds.Dial(cfg.Rpc.MdsAddress)
	if err != nil {
		return fmt.Errorf("dialing mds: %w", err)
	}
	metaClient, err := metaserver.Dial(cfg.Rpc.MetaserverAddress)
	if err != nil {
		return fmt.Errorf("dialing metaserver: %w", err)
	}

	deps := fsclient.Deps{Mds: mdsClient, Meta: metaClient, Log: log}

	var reg *metrics.Registry
	if cfg.Metrics.Enabled {
		reg = metrics.New()
		deps.Metrics = reg
		go serveMetrics(reg, cfg.Metrics.Address, log)
	}

	opts := mountlifecycle.MountOpts{
		MountPoint: mountPoint,
		Volume:     cfg.Mount.Volume,
		FsName:     cfg.Mount.FsName,
		User:       cfg.Mount.User,
		FsType:     fsType,
	}

	switch fsType {
	case types.FsTypeObject:
		opts.S3Info = types.S3Info{
			Bucket:    cfg.Mount.S3Bucket,
			Endpoint:  cfg.Mount.S3Endpoint,
			AccessKey: cfg.Mount.S3Key,
			SecretKey: cfg.Mount.S3Secret,
		}
		gcs, err := storage.NewClient(context.Background())
		if err != nil {
			return fmt.Errorf("creating object store client: %w", err)
		}
		deps.Obj = object.NewAdaptor(gcs, cfg.Mount.S3Bucket)
	default:
		spaceClient, err := space.Dial(cfg.Rpc.SpaceAddress)
		if err != nil {
			return fmt.Errorf("dialing space service: %w", err)
		}
		deps.Space = spaceClient
		deps.Block = block.NewClient()
	}

	client, err := fsclient.New(context.Background(), deps, opts)
	if err != nil {
		return fmt.Errorf("initializing mount: %w", err)
	}

	server := fuseserver.NewServer(client)
	mountCfg := &fuse.MountConfig{
		FSName:     opts.Volume,
		Subtype:    "curvefs",
		VolumeName: "curvefs",
	}

	log.Infof("mounting %q at %s", opts.Volume, mountPoint)
	mfs, err := fuse.Mount(mountPoint, server, mountCfg)
	if err != nil {
		return fmt.Errorf("mount: %w", err)
	}

	waitForUnmountSignal(mountPoint, log)

	if err := mfs.Join(context.Background()); err != nil {
		return fmt.Errorf("serving mount: %w", err)
	}

	return client.Destroy(context.Background())
}

// waitForUnmountSignal unmounts mountPoint in the background when the
// process receives SIGINT/SIGTERM, letting fuse.MountedFileSystem.Join
// above return normally instead of leaving the mount stuck.
func waitForUnmountSignal(mountPoint string, log *logger.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Infof("received shutdown signal, unmounting %s", mountPoint)
		if err := fuse.Unmount(mountPoint); err != nil {
			log.Errorf("unmount %s: %v", mountPoint, err)
		}
	}()
}

func serveMetrics(reg *metrics.Registry, addr string, log *logger.Logger) {
	log.Infof("serving metrics on %s", addr)
	if err := http.ListenAndServe(addr, reg.Handler()); err != nil {
		log.Errorf("metrics server stopped: %v", err)
	}
}

func newLogger() *logger.Logger {
	if cfg.Logging.Path == "" && cfg.Logging.Severity == "" {
		return logger.Default()
	}
	l := logger.New(logger.FileConfig{
		FilePath: cfg.Logging.Path,
		Severity: cfg.Logging.Severity,
		Format:   cfg.Logging.Format,
		Rotate: logger.RotateConfig{
			MaxFileSizeMB:   cfg.Logging.MaxFileSizeMB,
			BackupFileCount: cfg.Logging.BackupFileCount,
			Compress:        cfg.Logging.Compress,
		},
	})
	return l
}

func parseFsType(s string) (types.FsType, error) {
	switch s {
	case "", "curve", "block":
		return types.FsTypeBlock, nil
	case "s3":
		return types.FsTypeObject, nil
	default:
		return 0, fmt.Errorf("unknown fs-type %q: want \"curve\" or \"s3\"", s)
	}
}
