package types

// GUID Partition Table layout (UEFI Specification 2.10, section 5.3).

// GPTPrimaryHeaderLBA is the block holding the primary GPT header.
const GPTPrimaryHeaderLBA Lba = 1

// GPTHeaderSignature is the 8-byte signature at the start of a GPT header.
const GPTHeaderSignature = "EFI PART"

// GPTHeaderSize is the size of the header fields up to and including the
// partition entry array CRC.
const GPTHeaderSize = 92

// GPTPartitionEntrySize is the standard size of one partition entry.
const GPTPartitionEntrySize = 128

// GPTPartitionNameLength is the size in bytes of the UTF-16LE name field.
const GPTPartitionNameLength = 72

// GPTMaxPartitionEntries bounds the entry array size accepted from a header.
const GPTMaxPartitionEntries = 128
