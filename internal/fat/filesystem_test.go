package fat

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-tomboot/internal/device"
	"github.com/deploymenttheory/go-tomboot/internal/interfaces"
	"github.com/deploymenttheory/go-tomboot/internal/testutil"
	"github.com/deploymenttheory/go-tomboot/internal/types"
	"github.com/deploymenttheory/go-tomboot/internal/volume"
)

// pattern returns n bytes that differ at every block boundary
func pattern(n int, seed byte) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i/7) ^ seed
	}
	return data
}

// mountImage mounts a FAT image through a single-block volume
func mountImage(t *testing.T, image []byte) (*FileSystem, *volume.Volume) {
	t.Helper()

	dev := device.NewMemoryDeviceFromImage(image)
	vol, err := volume.New(dev, 0, types.Lba(dev.TotalBlocks()))
	require.NoError(t, err)

	fs, err := Mount(vol)
	require.NoError(t, err)
	return fs, vol
}

func listNames(t *testing.T, fs interfaces.FileSystem) []string {
	t.Helper()

	dir, err := fs.RootDir()
	require.NoError(t, err)

	var names []string
	for {
		entry, err := dir.Next()
		if errors.Is(err, io.EOF) {
			return names
		}
		require.NoError(t, err)
		names = append(names, entry.Name())
	}
}

func find(t *testing.T, fs interfaces.FileSystem, name string) interfaces.DirEntry {
	t.Helper()

	dir, err := fs.RootDir()
	require.NoError(t, err)
	for {
		entry, err := dir.Next()
		require.NoError(t, err, "entry %s not found", name)
		if entry.Name() == name {
			return entry
		}
	}
}

func TestMountTypes(t *testing.T) {
	tests := []struct {
		bits int
		want Type
	}{
		{12, FAT12},
		{16, FAT16},
		{32, FAT32},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			kernel := pattern(1500, 0x5A)
			image, err := testutil.BuildFAT(testutil.FATOptions{Bits: tt.bits, Label: "TOMBOOT"}, []testutil.FATFile{
				{Name: "README", Data: []byte("hello")},
				{Name: "TOM.OS", Data: kernel},
			})
			require.NoError(t, err)

			fs, _ := mountImage(t, image)
			assert.Equal(t, tt.want, fs.Type())
			assert.Equal(t, uint32(types.BlockSize), fs.Geometry().ClusterSize)
			assert.Equal(t, "TOMBOOT", fs.Geometry().VolumeLabel)
			assert.Equal(t, []string{"README", "TOM.OS"}, listNames(t, fs))

			entry := find(t, fs, "TOM.OS")
			assert.True(t, entry.IsFile())
			assert.Equal(t, uint64(len(kernel)), entry.Size())

			file, err := entry.Open()
			require.NoError(t, err)
			buf := make([]byte, len(kernel))
			require.NoError(t, file.ReadFull(buf))
			assert.Equal(t, kernel, buf)
		})
	}
}

func TestRootDirSkipsEntries(t *testing.T) {
	image, err := testutil.BuildFAT(testutil.FATOptions{Bits: 16, Label: "VOL"}, []testutil.FATFile{
		{Name: "OLD.OS", Data: []byte("stale"), Deleted: true},
		{Name: "BOOT", Dir: true},
		{Name: "TOM.OS", Data: []byte("kernel"), LongName: true},
	})
	require.NoError(t, err)

	fs, _ := mountImage(t, image)
	assert.Equal(t, []string{"BOOT", "TOM.OS"}, listNames(t, fs))

	dirEntry := find(t, fs, "BOOT")
	assert.True(t, dirEntry.IsDir())
	assert.False(t, dirEntry.IsFile())
	assert.Equal(t, uint64(0), dirEntry.Size())

	_, err = dirEntry.Open()
	assert.ErrorIs(t, err, ErrIsDirectory)
}

func TestRootDirExhausted(t *testing.T) {
	image, err := testutil.BuildFAT(testutil.FATOptions{Bits: 12}, nil)
	require.NoError(t, err)

	fs, _ := mountImage(t, image)
	dir, err := fs.RootDir()
	require.NoError(t, err)

	_, err = dir.Next()
	assert.ErrorIs(t, err, io.EOF)
	_, err = dir.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestFAT32RootSpansClusters(t *testing.T) {
	files := make([]testutil.FATFile, 0, 20)
	want := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		name := "F" + string(rune('A'+i)) + ".BIN"
		files = append(files, testutil.FATFile{Name: name, Data: []byte{byte(i)}})
		want = append(want, name)
	}

	image, err := testutil.BuildFAT(testutil.FATOptions{Bits: 32}, files)
	require.NoError(t, err)

	fs, _ := mountImage(t, image)
	assert.Equal(t, want, listNames(t, fs))

	file, err := find(t, fs, "FT.BIN").Open()
	require.NoError(t, err)
	buf := make([]byte, 1)
	require.NoError(t, file.ReadFull(buf))
	assert.Equal(t, []byte{19}, buf)
}

func TestReadFragmentedFile(t *testing.T) {
	for _, bits := range []int{12, 16, 32} {
		kernel := pattern(5*types.BlockSize+77, byte(bits))
		image, err := testutil.BuildFAT(testutil.FATOptions{Bits: bits, Fragment: true}, []testutil.FATFile{
			{Name: "A.BIN", Data: pattern(900, 1)},
			{Name: "TOM.OS", Data: kernel},
		})
		require.NoError(t, err)

		fs, _ := mountImage(t, image)
		file, err := find(t, fs, "TOM.OS").Open()
		require.NoError(t, err)

		buf := make([]byte, len(kernel))
		require.NoError(t, file.ReadFull(buf), "FAT%d", bits)
		assert.True(t, bytes.Equal(kernel, buf), "FAT%d contents differ", bits)
	}
}

func TestReadWithLargeClusters(t *testing.T) {
	kernel := pattern(3*4*types.BlockSize+10, 9)
	image, err := testutil.BuildFAT(testutil.FATOptions{Bits: 16, TotalSectors: 20000, SectorsPerCluster: 4}, []testutil.FATFile{
		{Name: "TOM.OS", Data: kernel},
	})
	require.NoError(t, err)

	fs, _ := mountImage(t, image)
	assert.Equal(t, uint32(4*types.BlockSize), fs.Geometry().ClusterSize)

	file, err := find(t, fs, "TOM.OS").Open()
	require.NoError(t, err)
	buf := make([]byte, len(kernel))
	require.NoError(t, file.ReadFull(buf))
	assert.Equal(t, kernel, buf)
}

func TestReadPrefix(t *testing.T) {
	kernel := pattern(2000, 3)
	image, err := testutil.BuildFAT(testutil.FATOptions{Bits: 16}, []testutil.FATFile{{Name: "TOM.OS", Data: kernel}})
	require.NoError(t, err)

	fs, _ := mountImage(t, image)
	file, err := find(t, fs, "TOM.OS").Open()
	require.NoError(t, err)

	buf := make([]byte, 600)
	require.NoError(t, file.ReadFull(buf))
	assert.Equal(t, kernel[:600], buf)

	err = file.ReadFull(make([]byte, 2001))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestReadShortChain(t *testing.T) {
	kernel := pattern(3*types.BlockSize, 4)
	image, err := testutil.BuildFAT(testutil.FATOptions{Bits: 16}, []testutil.FATFile{{Name: "TOM.OS", Data: kernel}})
	require.NoError(t, err)

	// Cut the chain after the first cluster.
	testutil.SetFATEntry(image, 2, 0xFFFF)

	fs, _ := mountImage(t, image)
	file, err := find(t, fs, "TOM.OS").Open()
	require.NoError(t, err)

	err = file.ReadFull(make([]byte, len(kernel)))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestReadCorruptChain(t *testing.T) {
	tests := []struct {
		name  string
		value uint16
	}{
		{"free cluster", 0x0000},
		{"bad cluster", 0xFFF7},
		{"out of range", 0xFFF0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kernel := pattern(3*types.BlockSize, 5)
			image, err := testutil.BuildFAT(testutil.FATOptions{Bits: 16}, []testutil.FATFile{{Name: "TOM.OS", Data: kernel}})
			require.NoError(t, err)
			testutil.SetFATEntry(image, 2, tt.value)

			fs, _ := mountImage(t, image)
			file, err := find(t, fs, "TOM.OS").Open()
			require.NoError(t, err)

			err = file.ReadFull(make([]byte, len(kernel)))
			assert.ErrorIs(t, err, ErrCorruptChain)
		})
	}
}

func TestMountRejectsNonFAT(t *testing.T) {
	image := make([]byte, 8*types.BlockSize)

	dev := device.NewMemoryDeviceFromImage(image)
	vol, err := volume.New(dev, 0, 8)
	require.NoError(t, err)

	_, err = Mount(vol)
	assert.ErrorIs(t, err, ErrInvalidBootSector)
}

func TestParseBootSectorValidation(t *testing.T) {
	base, err := testutil.BuildFAT(testutil.FATOptions{Bits: 16}, nil)
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(sector []byte)
	}{
		{"bytes per sector", func(s []byte) { s[11], s[12] = 0x00, 0x03 }},
		{"sectors per cluster", func(s []byte) { s[13] = 3 }},
		{"no reserved sectors", func(s []byte) { s[14], s[15] = 0, 0 }},
		{"no FATs", func(s []byte) { s[16] = 0 }},
		{"FAT too small", func(s []byte) { s[22], s[23] = 1, 0 }},
		{"signature", func(s []byte) { s[510] = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sector := append([]byte(nil), base[:types.BlockSize]...)
			tt.mutate(sector)

			_, err := parseBootSector(sector)
			assert.ErrorIs(t, err, ErrInvalidBootSector)
		})
	}
}

func TestMountDoesNotWrite(t *testing.T) {
	image, err := testutil.BuildFAT(testutil.FATOptions{Bits: 16}, []testutil.FATFile{{Name: "TOM.OS", Data: pattern(3000, 6)}})
	require.NoError(t, err)

	dev := device.NewMemoryDeviceFromImage(image)
	vol, err := volume.New(dev, 0, types.Lba(dev.TotalBlocks()))
	require.NoError(t, err)

	fs, err := Mount(vol)
	require.NoError(t, err)
	file, err := find(t, fs, "TOM.OS").Open()
	require.NoError(t, err)
	require.NoError(t, file.ReadFull(make([]byte, 3000)))

	assert.Empty(t, dev.WrittenBlocks())
	assert.Zero(t, vol.Stats().BlockFlushes)
	assert.Zero(t, dev.Stats().BlocksWritten)
}

func TestShortName(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"TOM     OS ", "TOM.OS"},
		{"README     ", "README"},
		{"KERNEL  BIN", "KERNEL.BIN"},
		{"\x05BC     TXT", "\xe5BC.TXT"},
	}
	for _, tt := range tests {
		var raw [11]byte
		copy(raw[:], tt.raw)
		assert.Equal(t, tt.want, shortName(raw))
	}
}
