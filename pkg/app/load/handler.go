package load

import (
	"errors"
	"fmt"
	"os"

	"github.com/deploymenttheory/go-tomboot/internal/boot"
	"github.com/deploymenttheory/go-tomboot/internal/config"
	"github.com/deploymenttheory/go-tomboot/pkg/app"
)

// Handle processes a kernel load request
func Handle(ctx *app.Context, req *Request) (*Response, error) {
	// 1. Validate request
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// 2. Resolve configuration
	cfg, err := config.LoadConfig(ctx.ConfigFile)
	if err != nil {
		return nil, app.NewError(app.ErrCodeConfig, "failed to load configuration", err)
	}
	cfg.Image = req.Target.ImagePath
	cfg.ReadOnly = true
	cfg.LogLevel = ctx.LogLevel(cfg.LogLevel)
	if req.KernelName != "" {
		cfg.KernelName = req.KernelName
	}
	if req.Policy != "" {
		cfg.SelectionPolicy = req.Policy
	}
	if req.Address != 0 {
		cfg.LoadAddress = req.Address
	}

	ctx.Log(fmt.Sprintf("Loading %s from %s", cfg.KernelName, req.Target.ImagePath))

	// 3. Boot
	env, err := boot.Init(cfg, ctx.Console())
	if err != nil {
		return nil, app.NewError(app.ErrCodeImageAccess, "failed to initialize boot environment", err)
	}
	defer env.Close()

	loader, err := env.Loader()
	if err != nil {
		return nil, app.NewError(app.ErrCodeConfig, "invalid selection policy", err)
	}

	report, err := loader.Load(cfg.LoadAddress)
	if err != nil {
		if errors.Is(err, boot.ErrRootPartitionNotFound) {
			return nil, app.NewError(app.ErrCodePartitionNotFound, "no root partition", err)
		}
		return nil, app.NewError(app.ErrCodeLoadFailed, "kernel load failed", err)
	}
	if report.Bytes == 0 {
		return nil, app.NewError(app.ErrCodeKernelNotFound,
			fmt.Sprintf("%s not in root directory", cfg.KernelName), boot.ErrKernelNotFound)
	}

	// 4. Dump loaded memory
	if req.OutPath != "" {
		region, err := env.Arena.Region(report.Address, uint64(report.Bytes))
		if err != nil {
			return nil, app.NewError(app.ErrCodeLoadFailed, "loaded region unavailable", err)
		}
		if err := os.WriteFile(req.OutPath, region.Bytes(), 0o644); err != nil {
			return nil, app.NewError(app.ErrCodeLoadFailed, "failed to write kernel image", err)
		}
		ctx.Log(fmt.Sprintf("Wrote %d bytes to %s", report.Bytes, req.OutPath))
	}

	return &Response{
		Image:      req.Target.ImagePath,
		Partition:  app.NewPartitionInfo(report.Partition, true),
		Policy:     cfg.SelectionPolicy,
		Kernel:     report.Kernel,
		Address:    report.Address,
		Bytes:      report.Bytes,
		Elapsed:    report.Elapsed,
		BlockLoads: report.Volume.BlockLoads,
		OutPath:    req.OutPath,
	}, nil
}
