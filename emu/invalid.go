package emu

import (
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/vr4300sim/insts"
)

var logger logrus.FieldLogger = logrus.StandardLogger()

// SetLogger replaces the logger used for execute-stage diagnostics.
func SetLogger(l logrus.FieldLogger) {
	if l == nil {
		l = logrus.StandardLogger()
	}
	logger = l
}

// inv handles every opcode without a dedicated handler. The returned fault
// is the reporting channel; the log entry is informational.
func inv(in DecodeLatch, _, _ uint64) (Outcome, error) {
	kind := UnimplementedOpcode
	if insts.IsReserved(in.Word()) {
		kind = ReservedInstruction
	}

	logger.WithFields(logrus.Fields{
		"op":   in.Op.String(),
		"word": in.Word(),
		"pc":   in.PC,
	}).Debugf("%v encountered", kind)

	return Outcome{}, newFault(kind, in)
}
