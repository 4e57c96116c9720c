package server

import (
	"github.com/mastercactapus/serialagent/buffer"
)

type Port struct {
	*buffer.Buffer

	name       string
	bufferType buffer.Mode
	baudRate   int
	primary    bool
}

func (p *Port) describe(info *SerialPortInfo) {
	info.IsOpen = true
	info.IsPrimary = p.primary
	info.Baud = p.baudRate
	info.BufferAlgorithm = string(p.bufferType)
	info.QCnt = p.WriteQueueLen()
}

func (p *Port) status(cmd, desc string) PortStatus {
	return PortStatus{
		Cmd:        cmd,
		Desc:       desc,
		Port:       p.name,
		IsOpen:     cmd == "Open",
		Baud:       p.baudRate,
		BufferType: string(p.bufferType),
	}
}
