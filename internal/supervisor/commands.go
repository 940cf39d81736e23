package supervisor

import (
	"github.com/sirupsen/logrus"

	"github.com/rhughes99/smartport/internal/diskimage"
	"github.com/rhughes99/smartport/internal/mailbox"
	"github.com/rhughes99/smartport/internal/packet"
)

const (
	statSubStandard = 0x00
	statSubDIB      = 0x03

	errUnsupported = 0x21
	errBus         = 0x06
	errOK          = 0x00
)

func (s *Supervisor) handleStatus(log *logrus.Entry, cmd packet.Command, buf *[604]byte, deviceIdx int, srcID byte) {
	resp := s.mbox.ResponseBuffer()

	switch cmd.StatusSubCode(buf) {
	case statSubStandard:
		packet.EncodeStandardStatus(resp, srcID, errOK)
	case statSubDIB:
		packet.EncodeDIBStatus(resp, srcID, errOK, deviceIdx == 0)
	default:
		log.Debug("unsupported status sub-code")
		packet.EncodeStandardStatus(resp, srcID, errUnsupported)
	}
	s.mbox.SetHandoff(mailbox.HandoffGo)
}

func (s *Supervisor) handleReadBlock(log *logrus.Entry, cmd packet.Command, buf *[604]byte, deviceIdx int, srcID byte) {
	blockNum := cmd.BlockNumber(buf)
	if blockNum >= diskimage.NumBlocks {
		log.WithField("block", blockNum).Debug("read out of range")
		s.respondStandardStatus(srcID, errBus)
		s.metrics.readErrors.Inc()
		return
	}

	block := s.store.Devices[deviceIdx].ReadBlock(blockNum)
	resp := s.mbox.ResponseBuffer()
	packet.EncodeDataReply(resp, srcID, errOK, (*[512]byte)(block))
	s.mbox.SetHandoff(mailbox.HandoffGo)
	s.metrics.reads.Inc()
}

// handleWriteBlock remembers the addressed block for the data packet that
// follows and performs whichever WRITEBLOCK handshake variant is
// configured (spec.md §4.3, Open Question (b)).
func (s *Supervisor) handleWriteBlock(log *logrus.Entry, cmd packet.Command, buf *[604]byte, deviceIdx int) {
	s.pendingWriteBlock = cmd.BlockNumber(buf)
	s.pendingWriteDevice = deviceIdx
	s.havePendingWrite = true

	switch s.handshake {
	case mailbox.HandshakeZeroByte:
		resp := s.mbox.ResponseBuffer()
		resp[0] = 0x00
		s.mbox.SetHandoff(mailbox.HandoffGo)
	default: // HandshakeSkip
		s.mbox.SetHandoff(mailbox.HandoffSkip)
	}

	log.WithField("block", s.pendingWriteBlock).Debug("write block pending")
}

func (s *Supervisor) handleDataPacket(log *logrus.Entry, deviceIdx int, srcID byte, buf *[604]byte) {
	blockNum := s.pendingWriteBlock
	s.havePendingWrite = false

	var scratch [512]byte
	if blockNum >= diskimage.NumBlocks || !packet.DecodeDataPacket(buf, &scratch) {
		log.WithField("block", blockNum).Warn("write rejected: bad checksum or out-of-range block")
		s.respondStandardStatus(srcID, errBus)
		s.metrics.writeErrors.Inc()
		return
	}

	s.store.Devices[deviceIdx].WriteBlock(blockNum, &scratch)
	s.respondStandardStatus(srcID, errOK)
	s.metrics.writes.Inc()
}
