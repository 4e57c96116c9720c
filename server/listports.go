package server

import (
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
	"go.bug.st/serial/enumerator"
)

type SerialPortInfo struct {
	Name         string
	FriendlyName string `json:"Friendly"`
	SerialNumber string
	DeviceClass  string
	ProductID    string  `json:"UsbPid"`
	VendorID     string  `json:"UsbVid"`
	Version      float32 `json:"Ver"`
	RelatedNames []string
	NetworkPort  bool

	IsOpen          bool
	IsPrimary       bool
	Baud            int
	BufferAlgorithm string
	QCnt            int

	AvailableBufferAlgorithms []string
}

// nativeListPorts is replaced on platforms with a richer lister.
var nativeListPorts = enumeratorListPorts

func enumeratorListPorts() ([]SerialPortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, err
	}

	info := make([]SerialPortInfo, 0, len(details))
	for _, d := range details {
		item := SerialPortInfo{
			Name:         d.Name,
			FriendlyName: d.Product,
			SerialNumber: d.SerialNumber,
		}
		if d.IsUSB {
			item.VendorID = strings.ToLower(d.VID)
			item.ProductID = strings.ToLower(d.PID)
		}
		info = append(info, item)
	}
	return info, nil
}

// ListPorts returns the discovered serial ports merged with the registry
// state. Ports that are open but were not discovered (virtual devices) are
// included too.
func (srv *Server) ListPorts() ([]SerialPortInfo, error) {
	info, err := srv.listPorts()
	if err != nil {
		return nil, err
	}

	if srv.portsFilter != nil {
		filtered := info[:0]
		for _, item := range info {
			if !srv.portsFilter.MatchString(item.Name) {
				log.WithField("port", item.Name).Debug("ignoring port not matching filter")
				continue
			}
			filtered = append(filtered, item)
		}
		info = filtered
	}

	open := srv.openPorts()
	seen := make(map[string]bool, len(info))
	for i := range info {
		seen[info[i].Name] = true
		if p := open[info[i].Name]; p != nil {
			p.describe(&info[i])
		}
	}
	for name, p := range open {
		if seen[name] {
			continue
		}
		item := SerialPortInfo{Name: name}
		p.describe(&item)
		info = append(info, item)
	}

	modes := srv.bufferTypeNames()
	for i := range info {
		info[i].AvailableBufferAlgorithms = modes
	}
	sort.Slice(info, func(i, j int) bool { return info[i].Name < info[j].Name })
	if info == nil {
		info = []SerialPortInfo{}
	}

	return info, nil
}

// ListNetworkPorts asks the network lister for boards.
func (srv *Server) ListNetworkPorts() ([]SerialPortInfo, error) {
	info, err := srv.network.ListNetworkPorts()
	if err != nil {
		return nil, err
	}
	for i := range info {
		info[i].NetworkPort = true
	}
	sort.Slice(info, func(i, j int) bool { return info[i].Name < info[j].Name })
	if info == nil {
		info = []SerialPortInfo{}
	}
	return info, nil
}
