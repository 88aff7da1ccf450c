// Command ringchatd runs one ring-chat server process: it joins the
// logical ring on its LAN segment via UDP discovery, participates in
// leader election and heartbeat failure detection, and serves TCP
// clients that join chat rooms.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ringchatd",
	Short: "Run a ring-chat server node",
	Long: `ringchatd runs a single node of a ring-chat cluster: it discovers
peers over UDP broadcast, maintains a logical ring, elects a leader via
Hirschberg-Sinclair, detects peer and client failures via heartbeats, and
serves chat clients over TCP with causally-ordered per-room multicast.`,
}
