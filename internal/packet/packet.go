// Package packet implements the SmartPort wire codec: sync bytes, the
// group-of-seven payload encoding, the split checksum, and the fixed-offset
// encoders/decoders for INIT, STATUS, DIB and data packets (spec.md §4.2).
//
// Every byte from PBegin through PEnd inclusive carries bit 7 set on the
// wire; callers hand this package plain bytes and it takes care of the bit
// 7 bookkeeping both ways.
package packet

// Sync is the literal 6-byte sync preamble that precedes every non-handshake
// packet.
var Sync = [6]byte{0xFF, 0x3F, 0xCF, 0xF3, 0xFC, 0xFF}

// PBegin and PEnd bracket every non-handshake packet.
const (
	PBegin = 0xC3
	PEnd   = 0xC8
)

// Packet type byte (offset 9): what kind of payload this packet carries.
const (
	TypeCommand = 0x80
	TypeStatus  = 0x81
	TypeData    = 0x82
)

// Command numbers, as found at the fixed command-number offset of a command
// packet. Standard and extended forms are offset by 0x40.
const (
	CmdStatus     = 0x80
	CmdReadBlock  = 0x81
	CmdWriteBlock = 0x82
	CmdFormat     = 0x83
	CmdControl    = 0x84
	CmdInit       = 0x85
	CmdOpen       = 0x86
	CmdClose      = 0x87
	CmdRead       = 0x88
	CmdWrite      = 0x89
	CmdInitAlias  = 0xF0 // undocumented alias accepted in the wild, see spec.md Design Note (a)

	CmdExtStatus     = 0xC0
	CmdExtReadBlock  = 0xC1
	CmdExtWriteBlock = 0xC2
	CmdExtFormat     = 0xC3
	CmdExtControl    = 0xC4
	CmdExtInit       = 0xC5
	CmdExtOpen       = 0xC6
	CmdExtClose      = 0xC7
	CmdExtRead       = 0xC8
	CmdExtWrite      = 0xC9
)

// Fixed offsets within a 604-byte packet buffer, transcribed from the
// original implementation's pointer arithmetic.
const (
	offPBegin = 6
	offDest   = 7
	offSrc    = 8
	offType   = 9
	offAux    = 10
	offStat   = 11
	offOddCnt = 12
	offG7Cnt  = 13
	offCmdNum = 15 // first odd byte of a command packet
)

// Dest, Src, Type and CmdNum read the fixed-offset header fields common to
// every command/status packet. CmdNum is returned exactly as it sits on the
// wire (bit 7 set, matching the Cmd* constants above).
func PacketBeginMarker(buf *[604]byte) byte { return buf[offPBegin] }
func Dest(buf *[604]byte) byte              { return buf[offDest] }
func Src(buf *[604]byte) byte               { return buf[offSrc] }
func Type(buf *[604]byte) byte              { return buf[offType] }
func CmdNum(buf *[604]byte) byte            { return buf[offCmdNum] }

// IsInit reports whether cmd is INIT or its undocumented 0xF0 alias.
func IsInit(cmd byte) bool { return cmd == CmdInit || cmd == CmdInitAlias }

// StatusSubCode reads the sub-status code of a STATUS/EXTSTATUS command,
// transcribed from checkCmdChecksum's offset 20 read (both standard and
// extended STATUS commands use the same offset).
func StatusSubCode(buf *[604]byte) byte { return buf[20] & 0x7F }

// ControlSubCode reads the diagnostic-only sub-code of a CONTROL command.
// The original implementation never acts on this value beyond logging it.
func ControlSubCode(buf *[604]byte) byte { return buf[offStat] }
