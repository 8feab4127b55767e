package types

// RootPartitionTypeGUID is the partition type expected for the root file
// system (Microsoft basic data).
const RootPartitionTypeGUID = "ebd0a0a2-b9e5-4433-87c0-68b6b72699c7"

// DefaultRootPartitionIndex is the zero-based entry index of the root
// partition on the board's disk layout (the fifth entry).
const DefaultRootPartitionIndex = 4

// KernelFileName is the short name of the kernel image in the root directory.
const KernelFileName = "TOM.OS"

// DefaultLoadAddress is the physical address the kernel is copied to.
const DefaultLoadAddress uint64 = 0x80200000

// DefaultMemorySize is the size of the hosted RAM arena starting at the load
// address.
const DefaultMemorySize uint64 = 64 << 20

// DefaultTickHz is the cycle counter frequency of the JH7110 U74 cores.
const DefaultTickHz uint64 = 1_500_000_000
