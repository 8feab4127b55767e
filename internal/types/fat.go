package types

// FAT on-disk layout (Microsoft FAT32 File System Specification 1.03).

// FATDirEntrySize is the size of one short directory entry.
const FATDirEntrySize = 32

// FATBootSignature is the value at offset 510 of a FAT boot sector.
const FATBootSignature uint16 = 0xAA55

// Directory entry attribute bits.
const (
	FATAttrReadOnly  uint8 = 0x01
	FATAttrHidden    uint8 = 0x02
	FATAttrSystem    uint8 = 0x04
	FATAttrVolumeID  uint8 = 0x08
	FATAttrDirectory uint8 = 0x10
	FATAttrArchive   uint8 = 0x20
	FATAttrLongName        = FATAttrReadOnly | FATAttrHidden | FATAttrSystem | FATAttrVolumeID
)

// First-byte markers of a directory entry name.
const (
	FATEntryEnd     byte = 0x00
	FATEntryDeleted byte = 0xE5
	// FATEntryKanji stands in for a leading 0xE5 byte in a live name.
	FATEntryKanji byte = 0x05
)

// Cluster count thresholds that decide the FAT type.
const (
	FAT12MaxClusters = 4085
	FAT16MaxClusters = 65525
)

// End-of-chain thresholds: any entry value at or above these ends a chain.
const (
	FAT12EndOfChain  uint32 = 0x0FF8
	FAT16EndOfChain  uint32 = 0xFFF8
	FAT32EndOfChain  uint32 = 0x0FFFFFF8
	FAT32ClusterMask uint32 = 0x0FFFFFFF
)
