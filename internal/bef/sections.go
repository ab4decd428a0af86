package bef

// Section ids, in file emission order (spec §6). Optional sections get
// ids distinct from the mandatory ones.
const (
	SectionLocationFilenames byte = iota + 1
	SectionLocationPositions
	SectionDebugInfo
	SectionStrings
	SectionAttributes
	SectionKernels
	SectionTypes
	SectionFunctionIndex
	SectionFunctions

	SectionAttributeTypes
	SectionAttributeNames
	SectionRegisterTypes
)

// Magic bytes and version (spec §6, §4.7).
const (
	MagicByte1 byte = 0xEF
	MagicByte2 byte = 0xAB
	VersionByte byte = 0xAF
)

// Function-index entry kind tags (spec §6 "Function-index").
const (
	FuncKindNative byte = iota
	FuncKindAsync
	FuncKindSync
)
