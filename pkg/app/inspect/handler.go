package inspect

import (
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/deploymenttheory/go-tomboot/internal/boot"
	"github.com/deploymenttheory/go-tomboot/internal/config"
	"github.com/deploymenttheory/go-tomboot/internal/device"
	"github.com/deploymenttheory/go-tomboot/internal/fat"
	"github.com/deploymenttheory/go-tomboot/internal/logger"
	"github.com/deploymenttheory/go-tomboot/internal/types"
	"github.com/deploymenttheory/go-tomboot/pkg/app"
)

// HandlePartitions lists every used GPT entry of the image
func HandlePartitions(ctx *app.Context, req *Request) (*PartitionsResponse, error) {
	if err := req.Target.Validate(); err != nil {
		return nil, err
	}

	cfg, err := config.LoadConfig(ctx.ConfigFile)
	if err != nil {
		return nil, app.NewError(app.ErrCodeConfig, "failed to load configuration", err)
	}

	dev, err := device.OpenImage(req.Target.ImagePath, true)
	if err != nil {
		return nil, app.NewError(app.ErrCodeImageAccess, "failed to open image", err)
	}
	defer dev.Close()

	table, err := boot.ReadTable(dev, types.GPTMaxPartitionEntries)
	if err != nil {
		return nil, app.NewError(app.ErrCodeImageAccess, "failed to read partition table", err)
	}

	rootType := cfg.RootType()
	response := &PartitionsResponse{
		Image:      req.Target.ImagePath,
		DiskGUID:   table.Header.DiskGUID.String(),
		EntryCount: table.Header.EntryCount,
		Partitions: []app.PartitionInfo{},
	}
	for _, entry := range table.Entries {
		if entry.IsEmpty() {
			continue
		}
		response.Partitions = append(response.Partitions, app.NewPartitionInfo(entry, entry.HasType(rootType)))
	}

	ctx.Log(fmt.Sprintf("Found %d partitions in %s", len(response.Partitions), req.Target.ImagePath))
	return response, nil
}

// HandleList lists the root directory of the root partition
func HandleList(ctx *app.Context, req *Request) (*ListResponse, error) {
	if err := req.Target.Validate(); err != nil {
		return nil, err
	}

	cfg, err := config.LoadConfig(ctx.ConfigFile)
	if err != nil {
		return nil, app.NewError(app.ErrCodeConfig, "failed to load configuration", err)
	}
	if req.Policy != "" {
		cfg.SelectionPolicy = req.Policy
	}
	sel, err := boot.SelectorFromConfig(cfg)
	if err != nil {
		return nil, app.NewError(app.ErrCodeInvalidInput, "invalid selection policy", err)
	}

	log, err := logger.NewLogger(logger.LoggerConfig{Console: ctx.Console(), Level: ctx.LogLevel("warn")})
	if err != nil {
		return nil, app.NewError(app.ErrCodeConfig, "failed to build logger", err)
	}
	defer func() { _ = log.Sync() }()

	dev, err := device.OpenImage(req.Target.ImagePath, true)
	if err != nil {
		return nil, app.NewError(app.ErrCodeImageAccess, "failed to open image", err)
	}
	defer dev.Close()

	entry, err := boot.FindRootPartition(dev, sel, log.Named("boot"))
	if err != nil {
		if errors.Is(err, boot.ErrRootPartitionNotFound) {
			return nil, app.NewError(app.ErrCodePartitionNotFound, "no root partition", err)
		}
		return nil, app.NewError(app.ErrCodeImageAccess, "failed to read partition table", err)
	}

	fs, _, err := boot.Mount(dev, entry, fat.Mounter(fat.WithLogger(log.Named("fat"))), log.Named("boot"))
	if err != nil {
		return nil, app.NewError(app.ErrCodeImageAccess, "failed to mount root partition", err)
	}

	response := &ListResponse{
		Image:     req.Target.ImagePath,
		Partition: app.NewPartitionInfo(entry, true),
		Files:     []FileInfo{},
	}
	if fatFS, ok := fs.(*fat.FileSystem); ok {
		response.FileSystem = fatFS.Type().String()
		response.Label = fatFS.Geometry().VolumeLabel
	}

	root, err := fs.RootDir()
	if err != nil {
		return nil, app.NewError(app.ErrCodeImageAccess, "failed to open root directory", err)
	}
	for {
		de, err := root.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, app.NewError(app.ErrCodeImageAccess, "failed to read root directory", err)
		}
		response.Files = append(response.Files, FileInfo{Name: de.Name(), Dir: de.IsDir(), Size: de.Size()})
	}

	log.Debug("listed root directory", zap.Int("entries", len(response.Files)))
	return response, nil
}
