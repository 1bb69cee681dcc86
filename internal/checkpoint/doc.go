// Package checkpoint stores a trained network and its trainer state in a
// single binary file.
//
// File layout (all integers little-endian):
//
//	0x00  magic "TGRD"
//	0x04  format version (uint32)
//	0x08  flags (uint32)
//	0x0C  reserved
//	0x10  header size in bytes (uint64)
//	0x18  data size in bytes (uint64)
//	0x20  SHA-256 of header JSON followed by data (32 bytes)
//	0x40  header JSON
//	      zero padding to a 64-byte boundary
//	      data: raw float32 trainer accumulators
//
// The JSON header carries the exported model (layer descriptions with
// encoded parameters), the trainer configuration, step counter and last
// loss, free-form metadata and one entry per accumulator buffer describing
// its place in the data section.
//
// Example:
//
//	cp, err := checkpoint.Capture(net, tr, codec.F32)
//	err = checkpoint.Save("xor.tgrd", cp)
//
//	cp, err = checkpoint.Load("xor.tgrd")
//	net, tr, err := cp.Restore()
package checkpoint
