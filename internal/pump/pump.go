// Package pump wraps a framed connection with bounded inbound and
// outbound packet queues, decoupling socket I/O from session logic.
package pump

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/kestrelnet/shroomd/internal/conn"
	"github.com/kestrelnet/shroomd/internal/packet"
)

// Pump drives one framed connection's receive and send loops.
type Pump struct {
	conn *conn.FramedConnection

	inbound  chan *packet.Packet
	outbound chan *packet.Packet

	done     chan struct{}
	closeErr atomic.Value // error
}

// New creates a pump over fc with the given inbound/outbound queue
// capacities.
func New(fc *conn.FramedConnection, inboundCap, outboundCap int) *Pump {
	return &Pump{
		conn:     fc,
		inbound:  make(chan *packet.Packet, inboundCap),
		outbound: make(chan *packet.Packet, outboundCap),
		done:     make(chan struct{}),
	}
}

// Inbound is the channel session logic reads received packets from.
func (p *Pump) Inbound() <-chan *packet.Packet {
	return p.inbound
}

// TrySend enqueues pkt for sending without blocking. Returns false, and
// leaves pkt undisposed for the caller to retry or drop, when the
// outbound queue is full — the slow-consumer signal.
func (p *Pump) TrySend(pkt *packet.Packet) bool {
	select {
	case p.outbound <- pkt:
		return true
	default:
		return false
	}
}

// Send enqueues pkt for sending, blocking until there is room or ctx is
// cancelled.
func (p *Pump) Send(ctx context.Context, pkt *packet.Packet) error {
	select {
	case p.outbound <- pkt:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done resolves once both the receive and send loops have exited.
func (p *Pump) Done() <-chan struct{} {
	return p.done
}

// Err returns the error that ended the pump's loops, if any.
func (p *Pump) Err() error {
	if v := p.closeErr.Load(); v != nil {
		return v.(error)
	}
	return nil
}

// Run starts the receive and send loops and blocks until both exit,
// either because the connection failed or ctx was cancelled. The framed
// connection is always closed before Run returns.
func (p *Pump) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Go(func() { p.receiveLoop(ctx, cancel) })
	wg.Go(func() { p.sendLoop(ctx, cancel) })

	<-ctx.Done()
	p.conn.Close()
	wg.Wait()
	close(p.done)
}

func (p *Pump) receiveLoop(ctx context.Context, cancel context.CancelFunc) {
	for {
		pkt, err := p.conn.ReadPacket()
		if err != nil {
			p.recordErr(err)
			cancel()
			return
		}
		select {
		case p.inbound <- pkt:
		case <-ctx.Done():
			pkt.Dispose()
			return
		}
	}
}

func (p *Pump) sendLoop(ctx context.Context, cancel context.CancelFunc) {
	for {
		select {
		case pkt := <-p.outbound:
			err := p.conn.WritePacket(pkt.Bytes())
			if disposeErr := pkt.Dispose(); disposeErr != nil {
				slog.Warn("pump: outbound packet already disposed", "error", disposeErr)
			}
			if err != nil {
				p.recordErr(err)
				cancel()
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (p *Pump) recordErr(err error) {
	p.closeErr.CompareAndSwap(nil, err)
}
