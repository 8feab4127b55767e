package app

import (
	"errors"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/deploymenttheory/go-tomboot/internal/partition"
	"github.com/deploymenttheory/go-tomboot/internal/types"
)

// ImageTarget selects the disk image a command works on
type ImageTarget struct {
	ImagePath string
}

// Validate ensures the image exists and is a regular file
func (it *ImageTarget) Validate() error {
	if it.ImagePath == "" {
		return NewError(ErrCodeInvalidInput, "image path is required", nil)
	}
	info, err := os.Stat(it.ImagePath)
	if err != nil {
		return NewError(ErrCodeImageAccess, "cannot access image", err)
	}
	if !info.Mode().IsRegular() {
		return NewError(ErrCodeInvalidInput, fmt.Sprintf("%s is not a regular file", it.ImagePath), nil)
	}
	if info.Size() < 2*types.BlockSize {
		return NewError(ErrCodeInvalidInput, fmt.Sprintf("%s is too small to hold a GPT", it.ImagePath), nil)
	}
	return nil
}

// String returns a string representation of the target
func (it *ImageTarget) String() string {
	return "Image: " + it.ImagePath
}

// PartitionInfo describes one GPT entry in command output
type PartitionInfo struct {
	Index      int    `json:"index" yaml:"index"`
	Name       string `json:"name" yaml:"name"`
	Type       string `json:"type" yaml:"type"`
	UniqueGUID string `json:"unique_guid" yaml:"unique_guid"`
	StartBlock uint64 `json:"start_block" yaml:"start_block"`
	// EndBlock is exclusive
	EndBlock uint64 `json:"end_block" yaml:"end_block"`
	Size     string `json:"size" yaml:"size"`
	Root     bool   `json:"root" yaml:"root"`
}

// NewPartitionInfo converts a GPT entry; root marks the selected partition
func NewPartitionInfo(entry partition.Entry, root bool) PartitionInfo {
	return PartitionInfo{
		Index:      entry.Index,
		Name:       entry.Name,
		Type:       entry.TypeGUID.String(),
		UniqueGUID: entry.UniqueGUID.String(),
		StartBlock: uint64(entry.StartBlock()),
		EndBlock:   uint64(entry.EndBlock()),
		Size:       humanize.IBytes(entry.Blocks() * types.BlockSize),
		Root:       root,
	}
}

// CommonError represents application-level errors
type CommonError struct {
	Code    string
	Message string
	Cause   error
}

func (e *CommonError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *CommonError) Unwrap() error {
	return e.Cause
}

// Common error codes
const (
	ErrCodeInvalidInput      = "INVALID_INPUT"
	ErrCodeImageAccess       = "IMAGE_ACCESS"
	ErrCodeConfig            = "CONFIG"
	ErrCodePartitionNotFound = "PARTITION_NOT_FOUND"
	ErrCodeKernelNotFound    = "KERNEL_NOT_FOUND"
	ErrCodeLoadFailed        = "LOAD_FAILED"
)

// NewError creates a new CommonError
func NewError(code, message string, cause error) *CommonError {
	return &CommonError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// ErrorCode returns the code of the first CommonError in err's chain
func ErrorCode(err error) string {
	var ce *CommonError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}
