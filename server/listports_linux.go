package server

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

func init() {
	nativeListPorts = linuxListPorts
}

const sysDevices = "/sys/devices"

// linuxListPorts walks sysfs for USB serial devices, which gives richer
// details than the enumerator, and adds whatever the enumerator finds
// beyond them (on-board UARTs and the like).
func linuxListPorts() ([]SerialPortInfo, error) {
	info, err := sysfsListPorts(sysDevices)
	if err != nil {
		return nil, err
	}

	extra, err := enumeratorListPorts()
	if err != nil {
		log.WithError(err).Warn("enumerate serial ports")
		return info, nil
	}

	known := make(map[string]bool, len(info))
	for _, item := range info {
		known[item.Name] = true
	}
	for _, item := range extra {
		if !known[item.Name] {
			info = append(info, item)
		}
	}
	return info, nil
}

func sysfsListPorts(root string) ([]SerialPortInfo, error) {
	var devicePaths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrPermission) {
				return fs.SkipDir
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		base := d.Name()
		if strings.HasPrefix(base, "ttyA") || strings.HasPrefix(base, "ttyU") {
			devicePaths = append(devicePaths, path)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	info := make([]SerialPortInfo, 0, len(devicePaths))
	for _, path := range devicePaths {
		portName := filepath.Base(path)
		for path != root && path != "/" {
			path = filepath.Dir(path)

			str := func(name string) string {
				data, _ := os.ReadFile(filepath.Join(path, name))
				return strings.TrimSpace(string(data))
			}
			float := func(name string) float32 {
				f, _ := strconv.ParseFloat(str(name), 32)
				return float32(f)
			}

			_, err := os.Stat(filepath.Join(path, "product"))
			if os.IsNotExist(err) {
				_, err = os.Stat(filepath.Join(path, "manufacturer"))
			}
			if os.IsNotExist(err) {
				continue
			}
			if err != nil {
				return nil, err
			}

			var related []string
			for _, relPath := range devicePaths {
				if !strings.HasPrefix(relPath, path) {
					continue
				}
				base := filepath.Base(relPath)
				if base == portName {
					continue
				}
				related = append(related, "/dev/"+base)
			}

			info = append(info, SerialPortInfo{
				Name:         "/dev/" + portName,
				RelatedNames: related,
				DeviceClass:  str("bDeviceClass"),
				FriendlyName: str("product"),
				VendorID:     str("idVendor"),
				ProductID:    str("idProduct"),
				Version:      float("version"),
				SerialNumber: str("serial"),
			})
			break
		}
	}

	return info, nil
}
