package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cbegin/neonbeat-go/internal/pattern"
	"github.com/cbegin/neonbeat-go/internal/synth"
)

var banksCmd = &cobra.Command{
	Use:   "banks",
	Short: "List patterns, sound banks and drones",
	Args:  cobra.NoArgs,
	Run:   runBanks,
}

func runBanks(cmd *cobra.Command, args []string) {
	fmt.Println("Patterns")
	fmt.Printf("  %s\n", strings.Join(pattern.Names(), ", "))
	fmt.Println()

	fmt.Println("Sound banks")
	for _, name := range synth.BankNames() {
		bank, _ := synth.LookupBank(name)
		marker := " "
		if name == synth.DefaultBank {
			marker = "*"
		}
		fmt.Printf(" %s%-8s %s\n", marker, name, strings.Join(bank.Names(), ", "))
	}
	fmt.Println()

	fmt.Println("Drones")
	fmt.Printf("  %s\n", strings.Join(synth.DroneNames(), ", "))
}
