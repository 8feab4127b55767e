// Package testutil builds in-memory disk images for tests: GPT-partitioned
// disks and small FAT12/16/32 volumes.
package testutil

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/google/uuid"

	"github.com/deploymenttheory/go-tomboot/internal/partition"
	"github.com/deploymenttheory/go-tomboot/internal/types"
)

// GPTEntryCount is the number of entry slots written by BuildGPTDisk
const GPTEntryCount = 128

// GPTFirstUsableLBA is the first block after the primary entry array
const GPTFirstUsableLBA = 2 + GPTEntryCount*types.GPTPartitionEntrySize/types.BlockSize

// GPTPartition describes one partition to lay out
type GPTPartition struct {
	Type   uuid.UUID
	Unique uuid.UUID
	First  types.Lba
	// Last is inclusive
	Last  types.Lba
	Name  string
	Image []byte
}

// BuildGPTDisk returns a disk image of totalBlocks blocks with a protective
// MBR, a primary GPT header at LBA 1 and the entry array at LBA 2. Each
// partition's Image, if any, is copied to its first block. Slot i of the entry
// array holds parts[i]; a zero Type leaves the slot unused.
func BuildGPTDisk(totalBlocks uint64, parts []GPTPartition) []byte {
	disk := make([]byte, totalBlocks*types.BlockSize)

	// Protective MBR
	mbr := disk[:types.BlockSize]
	pe := mbr[446:462]
	pe[4] = 0xEE
	binary.LittleEndian.PutUint32(pe[8:12], 1)
	binary.LittleEndian.PutUint32(pe[12:16], uint32(min(totalBlocks-1, 0xFFFFFFFF)))
	binary.LittleEndian.PutUint16(mbr[510:512], 0xAA55)

	// Entry array
	entries := disk[2*types.BlockSize : 2*types.BlockSize+GPTEntryCount*types.GPTPartitionEntrySize]
	for i, p := range parts {
		e := entries[i*types.GPTPartitionEntrySize : (i+1)*types.GPTPartitionEntrySize]
		typeGUID := partition.EncodeGUID(p.Type)
		uniqueGUID := partition.EncodeGUID(p.Unique)
		name := partition.EncodeName(p.Name)
		copy(e[0:16], typeGUID[:])
		copy(e[16:32], uniqueGUID[:])
		binary.LittleEndian.PutUint64(e[32:40], uint64(p.First))
		binary.LittleEndian.PutUint64(e[40:48], uint64(p.Last))
		copy(e[56:128], name[:])

		if len(p.Image) > 0 {
			copy(disk[uint64(p.First)*types.BlockSize:], p.Image)
		}
	}

	// Primary header
	h := disk[types.BlockSize : types.BlockSize+types.GPTHeaderSize]
	copy(h[0:8], types.GPTHeaderSignature)
	binary.LittleEndian.PutUint32(h[8:12], 0x00010000)
	binary.LittleEndian.PutUint32(h[12:16], types.GPTHeaderSize)
	binary.LittleEndian.PutUint64(h[24:32], 1)
	binary.LittleEndian.PutUint64(h[32:40], totalBlocks-1)
	binary.LittleEndian.PutUint64(h[40:48], GPTFirstUsableLBA)
	binary.LittleEndian.PutUint64(h[48:56], totalBlocks-GPTFirstUsableLBA)
	diskGUID := partition.EncodeGUID(uuid.MustParse("5e3c5a4e-0b1d-4c5e-9f3a-7d2b8c1e6f00"))
	copy(h[56:72], diskGUID[:])
	binary.LittleEndian.PutUint64(h[72:80], 2)
	binary.LittleEndian.PutUint32(h[80:84], GPTEntryCount)
	binary.LittleEndian.PutUint32(h[84:88], types.GPTPartitionEntrySize)
	binary.LittleEndian.PutUint32(h[88:92], crc32.ChecksumIEEE(entries))
	binary.LittleEndian.PutUint32(h[16:20], crc32.ChecksumIEEE(h))

	return disk
}

// BootDisk lays out five partitions in the board's order with image placed
// in slot rootIndex under rootType. It returns the disk and the root
// partition's block range.
func BootDisk(image []byte, rootIndex int, rootType uuid.UUID) ([]byte, types.Window) {
	imageBlocks := (uint64(len(image)) + types.BlockSize - 1) / types.BlockSize

	parts := make([]GPTPartition, 0, 5)
	next := types.Lba(GPTFirstUsableLBA)
	var root types.Window
	for i := 0; i < 5; i++ {
		p := GPTPartition{
			Type:   uuid.MustParse("2e54b353-1271-4842-806f-e436d6af6985"),
			Unique: uuid.New(),
			First:  next,
			Last:   next + 7,
			Name:   "spl",
		}
		if i == rootIndex {
			p.Type = rootType
			p.Last = next + types.Lba(imageBlocks) - 1
			p.Name = "root"
			p.Image = image
			root = types.Window{Start: p.First, End: p.Last + 1}
		}
		parts = append(parts, p)
		next = p.Last + 1
	}

	return BuildGPTDisk(uint64(next)+GPTFirstUsableLBA, parts), root
}
