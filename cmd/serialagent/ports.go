package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/mastercactapus/serialagent/server"
	"github.com/spf13/cobra"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List the serial ports clients would see",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		srv, err := newServer(cfg)
		if err != nil {
			return err
		}
		defer srv.Close()

		ports, err := srv.ListPorts()
		if err != nil {
			return fmt.Errorf("list ports: %w", err)
		}
		if len(ports) == 0 {
			fmt.Println("No serial ports found")
			return nil
		}

		tableFormat, _ := cmd.Flags().GetBool("table")
		if tableFormat {
			renderTable(ports)
		} else {
			for _, p := range ports {
				fmt.Println(p.Name)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(portsCmd)
	portsCmd.Flags().BoolP("table", "t", false, "Display output in a styled table format")
}

func renderTable(ports []server.SerialPortInfo) {
	fmt.Printf("Found %d serial port(s):\n\n", len(ports))

	const (
		portWidth = 16
		idWidth   = 10
		descWidth = 30
	)

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99")).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("240"))
	cellStyle := lipgloss.NewStyle().PaddingRight(2)

	fmt.Println(headerStyle.Render(fmt.Sprintf("%-*s %-*s %-*s %s",
		portWidth, "Port",
		idWidth, "VID:PID",
		descWidth, "Description",
		"Serial")))

	for _, p := range ports {
		id := ""
		if p.VendorID != "" {
			id = p.VendorID + ":" + p.ProductID
		}
		fmt.Println(cellStyle.Render(fmt.Sprintf("%-*s %-*s %-*s %s",
			portWidth, p.Name,
			idWidth, id,
			descWidth, p.FriendlyName,
			p.SerialNumber)))
	}
}
