package load

import (
	"time"

	"github.com/deploymenttheory/go-tomboot/pkg/app"
)

// Request represents a kernel load request
type Request struct {
	Target app.ImageTarget

	// OutPath receives the loaded bytes; empty skips the dump
	OutPath string

	// Overrides of the configuration; zero values keep the configured value
	KernelName string
	Policy     string
	Address    uint64
}

// Response represents the result of a kernel load
type Response struct {
	Image      string            `json:"image" yaml:"image"`
	Partition  app.PartitionInfo `json:"partition" yaml:"partition"`
	Policy     string            `json:"policy" yaml:"policy"`
	Kernel     string            `json:"kernel" yaml:"kernel"`
	Address    uint64            `json:"address" yaml:"address"`
	Bytes      int               `json:"bytes" yaml:"bytes"`
	Elapsed    time.Duration     `json:"elapsed" yaml:"elapsed"`
	BlockLoads uint64            `json:"block_loads" yaml:"block_loads"`
	OutPath    string            `json:"out_path,omitempty" yaml:"out_path,omitempty"`
}
