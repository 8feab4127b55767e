package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-tomboot/internal/testutil"
	"github.com/deploymenttheory/go-tomboot/internal/types"
)

func bootImage(t *testing.T) string {
	t.Helper()

	fatImage, err := testutil.BuildFAT(testutil.FATOptions{Bits: 16}, []testutil.FATFile{
		{Name: "TOM.OS", Data: []byte("riscv kernel")},
	})
	require.NoError(t, err)
	disk, _ := testutil.BootDisk(fatImage, 4, uuid.MustParse(types.RootPartitionTypeGUID))

	path := filepath.Join(t.TempDir(), "sd.img")
	require.NoError(t, os.WriteFile(path, disk, 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		verbose, quiet, outputFormat, configFile = false, false, "table", ""
		loadOut, loadKernel, loadPolicy, loadAddress = "", "", "", 0
		lsPolicy = ""
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func TestLoadCommand(t *testing.T) {
	image := bootImage(t)
	outPath := filepath.Join(t.TempDir(), "tom.os")

	out, err := run(t, "load", image, "--out", outPath, "-o", "json")
	require.NoError(t, err)

	var resp struct {
		Kernel string `json:"kernel"`
		Bytes  int    `json:"bytes"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "TOM.OS", resp.Kernel)
	assert.Equal(t, 12, resp.Bytes)

	loaded, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "riscv kernel", string(loaded))
}

func TestPartitionsCommand(t *testing.T) {
	out, err := run(t, "partitions", bootImage(t))
	require.NoError(t, err)
	assert.Contains(t, out, "5 of 128 entries used")
}

func TestLsCommand(t *testing.T) {
	out, err := run(t, "ls", bootImage(t), "--policy", "guid")
	require.NoError(t, err)
	assert.Contains(t, out, "TOM.OS")
	assert.Contains(t, out, "FAT16")
}

func TestCommandErrors(t *testing.T) {
	_, err := run(t, "load")
	assert.Error(t, err)

	_, err = run(t, "ls", filepath.Join(t.TempDir(), "missing.img"))
	assert.Error(t, err)
}
