package app

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-tomboot/internal/partition"
)

func TestImageTargetValidate(t *testing.T) {
	dir := t.TempDir()
	small := filepath.Join(dir, "small.img")
	require.NoError(t, os.WriteFile(small, make([]byte, 100), 0o644))
	good := filepath.Join(dir, "good.img")
	require.NoError(t, os.WriteFile(good, make([]byte, 4096), 0o644))

	tests := []struct {
		path string
		code string
	}{
		{"", ErrCodeInvalidInput},
		{filepath.Join(dir, "absent.img"), ErrCodeImageAccess},
		{dir, ErrCodeInvalidInput},
		{small, ErrCodeInvalidInput},
		{good, ""},
	}
	for _, tt := range tests {
		target := ImageTarget{ImagePath: tt.path}
		err := target.Validate()
		if tt.code == "" {
			assert.NoError(t, err, tt.path)
			continue
		}
		assert.Equal(t, tt.code, ErrorCode(err), tt.path)
	}
	assert.Equal(t, "Image: "+good, (&ImageTarget{ImagePath: good}).String())
}

func TestNewPartitionInfo(t *testing.T) {
	entry := partition.Entry{
		Index:      4,
		TypeGUID:   uuid.MustParse("ebd0a0a2-b9e5-4433-87c0-68b6b72699c7"),
		UniqueGUID: uuid.MustParse("aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee"),
		FirstLBA:   2048,
		LastLBA:    4095,
		Name:       "root",
	}

	info := NewPartitionInfo(entry, true)
	assert.Equal(t, PartitionInfo{
		Index:      4,
		Name:       "root",
		Type:       "ebd0a0a2-b9e5-4433-87c0-68b6b72699c7",
		UniqueGUID: "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee",
		StartBlock: 2048,
		EndBlock:   4096,
		Size:       "1.0 MiB",
		Root:       true,
	}, info)
}

func TestCommonError(t *testing.T) {
	cause := errors.New("disk on fire")
	err := fmt.Errorf("load: %w", NewError(ErrCodeLoadFailed, "kernel load failed", cause))

	assert.Equal(t, ErrCodeLoadFailed, ErrorCode(err))
	assert.ErrorIs(t, err, cause)
	assert.EqualError(t, err, "load: kernel load failed: disk on fire")
	assert.Equal(t, "", ErrorCode(cause))
	assert.Equal(t, "bare", NewError(ErrCodeConfig, "bare", nil).Error())
}

func TestContextOutput(t *testing.T) {
	var errOut bytes.Buffer
	ctx := NewContext()
	ctx.Err = &errOut

	ctx.Log("hidden")
	ctx.Verbose = true
	ctx.Log("shown")
	ctx.Error("boom")
	assert.Equal(t, "shown\nError: boom\n", errOut.String())
	assert.Equal(t, "debug", ctx.LogLevel("info"))
	assert.Equal(t, io.Writer(&errOut), ctx.Console())

	ctx.Verbose = false
	ctx.Quiet = true
	ctx.Error("silent")
	assert.Equal(t, "shown\nError: boom\n", errOut.String())
	assert.Equal(t, "error", ctx.LogLevel("info"))
	assert.Equal(t, io.Discard, ctx.Console())

	ctx.Quiet = false
	assert.Equal(t, "warn", ctx.LogLevel("warn"))
}
