package server

// NetworkLister discovers boards reachable over the network. They are
// reported in a separate `list` answer with Network set.
type NetworkLister interface {
	ListNetworkPorts() ([]SerialPortInfo, error)
}

type noNetwork struct{}

func (noNetwork) ListNetworkPorts() ([]SerialPortInfo, error) { return nil, nil }
