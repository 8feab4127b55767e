package inspect

import (
	"github.com/deploymenttheory/go-tomboot/pkg/app"
)

// Request represents an image inspection request
type Request struct {
	Target app.ImageTarget

	// Policy overrides the configured selection policy for ListRoot
	Policy string
}

// PartitionsResponse lists the used GPT entries of an image
type PartitionsResponse struct {
	Image      string              `json:"image" yaml:"image"`
	DiskGUID   string              `json:"disk_guid" yaml:"disk_guid"`
	EntryCount uint32              `json:"entry_count" yaml:"entry_count"`
	Partitions []app.PartitionInfo `json:"partitions" yaml:"partitions"`
}

// FileInfo is one root directory entry
type FileInfo struct {
	Name string `json:"name" yaml:"name"`
	Dir  bool   `json:"dir" yaml:"dir"`
	Size uint64 `json:"size" yaml:"size"`
}

// ListResponse lists the root directory of the root partition
type ListResponse struct {
	Image      string            `json:"image" yaml:"image"`
	Partition  app.PartitionInfo `json:"partition" yaml:"partition"`
	FileSystem string            `json:"file_system" yaml:"file_system"`
	Label      string            `json:"label,omitempty" yaml:"label,omitempty"`
	Files      []FileInfo        `json:"files" yaml:"files"`
}
