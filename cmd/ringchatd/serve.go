package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ringmesh/ringchat/internal/api"
	"github.com/ringmesh/ringchat/internal/app/node"
	"github.com/ringmesh/ringchat/internal/daemon"
	"github.com/ringmesh/ringchat/internal/domain"
)

const shutdownGrace = 5 * time.Second

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("config", "", "path to a TOML config file")
	serveCmd.Flags().Int("num-rooms", 0, "number of rooms to create at startup (overrides config)")
	serveCmd.Flags().String("status-addr", "", "address for the status HTTP API (overrides config)")
	serveCmd.Flags().Int("discovery-port", 0, "UDP discovery port (overrides config)")
}

var serveCmd = &cobra.Command{
	Use:   "serve TCP_PORT [num_rooms]",
	Short: "Start a ring-chat server node listening on TCP_PORT",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	tcpPort, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid TCP_PORT %q: %w", args[0], err)
	}

	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := daemon.LoadConfig(configPath)
	if err != nil {
		return err
	}
	cfg.Network.TCPPort = tcpPort

	if len(args) == 2 {
		numRooms, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid num_rooms %q: %w", args[1], err)
		}
		cfg.Rooms.NumRooms = numRooms
	}
	if numRooms, _ := cmd.Flags().GetInt("num-rooms"); numRooms > 0 {
		cfg.Rooms.NumRooms = numRooms
	}
	if statusAddr, _ := cmd.Flags().GetString("status-addr"); statusAddr != "" {
		cfg.Status.Addr = statusAddr
	}
	if discoveryPort, _ := cmd.Flags().GetInt("discovery-port"); discoveryPort > 0 {
		cfg.Network.DiscoveryPort = discoveryPort
	}

	self := domain.NewNodeID()
	addr := domain.Endpoint{IP: daemon.DetectLocalIP(), Port: cfg.Network.TCPPort}

	n, err := node.New(self, addr, cfg)
	if err != nil {
		return fmt.Errorf("create node: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := n.Start(ctx); err != nil {
		return fmt.Errorf("start node: %w", err)
	}
	defer n.Stop()

	statusSrv := &http.Server{
		Addr:    cfg.Status.Addr,
		Handler: api.NewServer(n).Handler(),
	}
	go func() {
		if err := statusSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("[ringchatd] status API stopped: %v", err)
		}
	}()

	log.Printf("[ringchatd] node %s listening on tcp:%d, discovery udp:%d, status %s",
		self, cfg.Network.TCPPort, cfg.Network.DiscoveryPort, cfg.Status.Addr)

	<-ctx.Done()
	log.Printf("[ringchatd] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	_ = statusSrv.Shutdown(shutdownCtx)

	return nil
}
