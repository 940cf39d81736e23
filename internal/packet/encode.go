package packet

// writeHeader fills the sync preamble and the 7 header bytes (offsets 6-13)
// of buf and returns the running checksum over offsets 7-13, matching every
// encodeXxx routine in the original implementation.
func writeHeader(buf *[604]byte, dest, src, typ, aux, stat, oddCnt, g7Cnt byte) byte {
	copy(buf[0:6], Sync[:])
	buf[offPBegin] = PBegin
	buf[offDest] = dest
	buf[offSrc] = src
	buf[offType] = typ
	buf[offAux] = aux
	buf[offStat] = stat
	buf[offOddCnt] = oddCnt
	buf[offG7Cnt] = g7Cnt
	return checksumOf(buf[offDest], buf[offSrc], buf[offType], buf[offAux], buf[offStat], buf[offOddCnt], buf[offG7Cnt])
}

// EncodeStandardStatus builds a 4-data-byte standard status reply: device
// status 0xF0 (online, read/write) and a 24-bit block count of 65536
// (0x010000), srcID assumed to already carry bit 7.
func EncodeStandardStatus(buf *[604]byte, srcID, dataStat byte) {
	cs := writeHeader(buf, 0x80, srcID, TypeStatus, 0x80, dataStat|0x80, 0x84, 0x80)

	buf[14] = 0xC0 // odd MSBs
	buf[15] = 0xF0 // device status
	cs ^= 0xF0
	buf[16] = 0x80 // block count low
	buf[17] = 0x80 // block count mid
	buf[18] = 0x81 // block count high: 0x01 -> 65536 blocks
	cs ^= 0x01

	a, b := splitChecksum(cs)
	buf[19] = a
	buf[20] = b
	buf[21] = PEnd
	buf[22] = 0x00 // end-of-packet marker in memory
}

// deviceName holds the padded 16-character device name split the way the
// original hand-unrolls it across 3 groups of 7 (6 + 7 + 3 bytes).
type deviceName struct {
	grp1 [6]byte // "Beagle"
	grp2 [7]byte // "Bone1  " / "Bone2  "
	grp3 [3]byte // "   "
}

func nameFor(isID1 bool) deviceName {
	suffix := byte('2')
	if isID1 {
		suffix = '1'
	}
	return deviceName{
		grp1: [6]byte{'B', 'e', 'a', 'g', 'l', 'e'},
		grp2: [7]byte{'B', 'o', 'n', 'e', suffix, ' ', ' '},
		grp3: [3]byte{' ', ' ', ' '},
	}
}

// EncodeDIBStatus builds the 25-byte Device Information Block reply for
// STATUS sub-code 0x03: a 16-character ASCII name, hard-disk device type
// (0x02), non-removable subtype (0x20), and a 2-byte firmware version.
func EncodeDIBStatus(buf *[604]byte, srcID, dataStat byte, isID1 bool) {
	cs := writeHeader(buf, 0x80, srcID, TypeStatus, 0x80, dataStat|0x80, 0x84, 0x83)

	buf[14] = 0xC0
	buf[15] = 0xF0
	cs ^= 0xF0
	buf[16] = 0x80
	buf[17] = 0x80
	buf[18] = 0x81
	cs ^= 0x01

	name := nameFor(isID1)

	// Group 1: ID string length (11, a carryover quirk from the original --
	// the padded name is actually 16 characters) followed by "Beagle".
	buf[19] = 0x80
	buf[20] = 0x8B
	cs ^= 0x0B
	for i, c := range name.grp1 {
		buf[21+i] = c | 0x80
		cs ^= c
	}

	// Group 2: "Bone1  " / "Bone2  "
	buf[27] = 0x80
	for i, c := range name.grp2 {
		buf[28+i] = c | 0x80
		cs ^= c
	}

	// Group 3: padding, device type, subtype, firmware version.
	buf[35] = 0x80
	for i, c := range name.grp3 {
		buf[36+i] = c | 0x80
		cs ^= c
	}
	buf[39] = 0x02 | 0x80 // hard disk
	cs ^= 0x02
	buf[40] = 0x20 | 0x80 // non-removable
	cs ^= 0x20
	buf[41] = 0x02 | 0x80 // firmware version byte 1
	cs ^= 0x02
	buf[42] = 0x00 | 0x80 // firmware version byte 2

	a, b := splitChecksum(cs)
	buf[43] = a
	buf[44] = b
	buf[45] = PEnd
	buf[46] = 0x00
}

// EncodeDataReply builds a 604-byte reply carrying one 512-byte block: 1 odd
// byte followed by 73 groups of 7, addressed back to the host (dest 0x80)
// from the given device.
func EncodeDataReply(buf *[604]byte, srcID, dataStat byte, block *[512]byte) {
	encodeDataPacket(buf, 0x80, srcID, dataStat, block)
}

// EncodeHostDataPacket builds the data packet a host sends following a
// WRITEBLOCK command: addressed to the target device, from the host
// (0x80). The mirror image of EncodeDataReply's direction, used by tests
// that need a realistic incoming data packet rather than a bare scratch
// buffer.
func EncodeHostDataPacket(buf *[604]byte, destDeviceID byte, block *[512]byte) {
	encodeDataPacket(buf, destDeviceID, 0x80, 0x00, block)
}

func encodeDataPacket(buf *[604]byte, dest, src, dataStat byte, block *[512]byte) {
	cs := writeHeader(buf, dest, src, TypeData, 0x80, dataStat|0x80, 0x81, 0xC9)

	packOddByte(buf[14:16], block[0])

	for g := 0; g < 73; g++ {
		var srcBytes [7]byte
		copy(srcBytes[:], block[1+g*7:1+g*7+7])
		packGroup(buf[16+g*8:16+g*8+8], srcBytes)
	}

	cs ^= checksumOf(block[:]...)

	a, b := splitChecksum(cs)
	buf[600] = a
	buf[601] = b
	buf[602] = PEnd
	buf[603] = 0x00
}

// BuildInitTemplates fills the two 23-byte INIT reply templates with
// srcID left zeroed (the engine patches it in at send time) and the
// checksum computed over everything except the source byte, matching
// encodeInitReplyPackets + SendPacket/SendInit's division of labor
// (spec.md §4.3, "INIT response buffers").
func BuildInitTemplates(t1, t2 *[23]byte) {
	buildInitTemplate(t1, 0x80)
	buildInitTemplate(t2, 0xFF)
}

func buildInitTemplate(t *[23]byte, dataStat byte) {
	copy(t[0:6], Sync[:])
	t[offPBegin] = PBegin
	t[offDest] = 0x80
	t[offSrc] = 0x00 // patched by the engine with the assigned ID
	t[offType] = TypeStatus
	t[offAux] = 0x80
	t[offStat] = dataStat
	t[offOddCnt] = 0x84
	t[offG7Cnt] = 0x80

	cs := checksumOf(t[offDest], t[offSrc], t[offType], t[offAux], t[offStat], t[offOddCnt], t[offG7Cnt])

	t[14] = 0xC0
	t[15] = 0xF0
	cs ^= 0xF0
	t[16] = 0x80
	t[17] = 0x80
	t[18] = 0x81
	cs ^= 0x01

	// Checksum finalization (XOR with the patched source ID) and the
	// 0xAA-OR split are both left to the engine, which knows the final
	// source byte at send time; see PatchInitSource.
	t[19] = cs
	t[20] = 0x00
	t[21] = PEnd
	t[22] = 0x00
}

// PatchInitSource patches the source-ID byte into an INIT template and
// finalizes its split checksum, the step the realtime engine performs for
// each INIT reply (spec.md §3, "INIT response buffers").
func PatchInitSource(t *[23]byte, srcID byte) {
	t[offSrc] = srcID
	finalCS := t[19] ^ srcID
	a, b := splitChecksum(finalCS)
	t[19] = a
	t[20] = b
}
