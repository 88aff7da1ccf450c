package transport

import (
	"context"
	"log"
	"net"

	"github.com/ringmesh/ringchat/internal/domain"
)

// AcceptLoop runs the TCP accept loop until ctx is cancelled, handing
// each accepted connection to onAccept on its own goroutine. Matches
// the "one TCP accept loop" concurrent activity required by
// SPEC_FULL.md §5.
func AcceptLoop(ctx context.Context, ln net.Listener, onAccept func(net.Conn)) {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		nc, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				log.Printf("[transport] accept error: %v", err)
				return
			}
		}
		go onAccept(nc)
	}
}

// ReceiveLoop runs one connection's receive loop until ctx is
// cancelled or the connection is lost, dispatching each decoded
// Message to onMessage. On EOF/closed-stream it calls onClose once.
func ReceiveLoop(ctx context.Context, c *Conn, onMessage func(domain.Message), onClose func()) {
	go func() {
		<-ctx.Done()
		c.Close()
	}()

	for {
		msg, err := c.Receive()
		if err != nil {
			onClose()
			return
		}
		onMessage(msg)
	}
}
