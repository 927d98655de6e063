package afpacket

import (
	"log/slog"
	"net"
	"syscall"

	"github.com/lysShub/afpacket/errorx"
	"github.com/lysShub/afpacket/helper"
	"github.com/lysShub/afpacket/helper/bpf"
	"github.com/pkg/errors"
)

type State uint8

const (
	StateOpen State = iota + 1
	StateBound
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateBound:
		return "bound"
	case StateClosed:
		return "closed"
	default:
		return "unopened"
	}
}

var errSocketClosed = net.ErrClosed

// sysops is the kernel boundary of Socket. proto arguments are already in
// network byte order.
type sysops interface {
	socket(domain, typ int, proto uint16) (fd int, err error)
	setsockoptInt(fd, level, opt, value int) error
	setNonblock(fd int, nonblocking bool) error
	ifindex(name string) (int, error)
	bind(fd, ifindex int, proto uint16) error
	// wait block until fd is readable, or writable if write
	wait(fd int, write bool) error
	send(fd int, b []byte) (int, error)
	recv(fd int, b []byte) (int, error)
	close(fd int) error
}

// Socket is a raw link-layer socket, see packet(7).
//
// A Socket is not safe for concurrent use, except that one goroutine may
// Send while another Recv. Close racing with Send/Recv on another goroutine
// may operate on a released (or reused) descriptor, callers must serialize
// it themselves.
type Socket struct {
	ops sysops
	cfg *Config

	fd    int
	typ   int
	state State

	// network byte order, fixed by Bind
	networkEndianProto uint16
	ifindex            int
	ifname             string
}

// Open create an unbound AF_PACKET socket. proto is host order, 0 means
// no frames are delivered until Bind sets a protocol.
func Open(domain, typ int, proto uint16, opts ...Option) (*Socket, error) {
	return open(defaultOps, domain, typ, proto, Options(opts...))
}

// Listen open a socket and bind it to the interface ifname.
func Listen(ifname string, typ int, proto uint16, opts ...Option) (*Socket, error) {
	return listen(defaultOps, ifname, typ, proto, Options(opts...))
}

func listen(ops sysops, ifname string, typ int, proto uint16, cfg *Config) (*Socket, error) {
	s, err := open(ops, AF_PACKET, typ, proto, cfg)
	if err != nil {
		return nil, err
	}
	if err = s.Bind(ifname, proto); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func open(ops sysops, domain, typ int, proto uint16, cfg *Config) (*Socket, error) {
	fd, err := ops.socket(domain, typ, helper.Htons(proto))
	if err != nil {
		return nil, osError("socket", err, classifySocket)
	}

	var s = &Socket{
		ops:                ops,
		cfg:                cfg,
		fd:                 fd,
		typ:                typ,
		state:              StateOpen,
		networkEndianProto: helper.Htons(proto),
	}
	if err := s.init(); err != nil {
		ops.close(fd)
		return nil, err
	}

	cfg.Logger.Debug("open",
		slog.Int("fd", fd), slog.Int("type", typ), slog.Int("proto", int(proto)),
	)
	return s, nil
}

func (s *Socket) init() error {
	if s.cfg.RecvBuffer > 0 {
		err := s.ops.setsockoptInt(s.fd, syscall.SOL_SOCKET, syscall.SO_RCVBUF, s.cfg.RecvBuffer)
		if err != nil {
			return osError("setsockopt", err, classifySocket)
		}
	}
	if s.cfg.SendBuffer > 0 {
		err := s.ops.setsockoptInt(s.fd, syscall.SOL_SOCKET, syscall.SO_SNDBUF, s.cfg.SendBuffer)
		if err != nil {
			return osError("setsockopt", err, classifySocket)
		}
	}
	if s.cfg.Nonblock {
		if err := s.ops.setNonblock(s.fd, true); err != nil {
			return osError("setnonblock", err, classifyOS)
		}
	}
	return nil
}

// Bind associate the socket with interface ifname and protocol proto (host
// order). It can succeed only once; on failure the socket stays unbound.
func (s *Socket) Bind(ifname string, proto uint16) error {
	switch s.state {
	case StateClosed:
		return errClosed("bind")
	case StateBound:
		return &Error{
			Kind: InvalidState, Op: "bind",
			Err: errors.Errorf("already bound to %s", s.ifname),
		}
	}

	if ifname == "" {
		ifname = s.cfg.DefaultInterface
		s.cfg.Logger.Warn("bind without interface name, use default", slog.String("interface", ifname))
	}

	idx, err := s.ops.ifindex(ifname)
	if err != nil {
		e := osError("bind", err, classifyIfindex).(*Error)
		if e.Errno == 0 {
			e.Kind = NoSuchInterface
		}
		e.Err = errors.WithMessagef(e.Err, "interface %q", ifname)
		return e
	}

	if err := s.ops.bind(s.fd, idx, helper.Htons(proto)); err != nil {
		e := osError("bind", err, classifyBind).(*Error)
		e.Err = errors.WithMessagef(e.Err, "interface %q", ifname)
		return e
	}
	s.state = StateBound
	s.ifindex, s.ifname = idx, ifname
	if proto != 0 {
		// the kernel keeps the Open protocol when binding with 0
		s.networkEndianProto = helper.Htons(proto)
	}
	s.cfg.Logger.Debug("bind",
		slog.Int("fd", s.fd), slog.String("interface", ifname),
		slog.Int("ifindex", idx), slog.Int("proto", int(s.Protocol())),
	)

	if len(s.cfg.Filter) > 0 {
		raw, _ := s.SyscallConn()
		if err := bpf.SetBPF(raw, s.cfg.Filter); err != nil {
			return osError("setsockopt", err, classifyOS)
		}
	}
	return nil
}

// Send transfer b to the kernel with a single send(2) call and return the
// bytes accepted. A short count is not retried, completing the transfer is
// up to the caller. Sending an empty b returns 0 without a syscall.
func (s *Socket) Send(b []byte) (int, error) {
	if s.state == StateClosed {
		return 0, errClosed("send")
	} else if len(b) == 0 {
		return 0, nil
	}

	for {
		n, err := s.ops.send(s.fd, b)
		if err != nil {
			if s.cfg.RetryEINTR && errors.Is(err, syscall.EINTR) {
				continue
			}
			return 0, osError("send", err, classifyIO)
		}
		return n, nil
	}
}

// Recv read at most max bytes with a single recv(2) call, the returned slice
// holds exactly the received bytes. Recv(0) returns an empty slice without
// a syscall.
func (s *Socket) Recv(max int) ([]byte, error) {
	if s.state == StateClosed {
		return nil, errClosed("recv")
	} else if max < 0 {
		return nil, errInvalidArg("recv", "negative length %d", max)
	} else if max == 0 {
		return []byte{}, nil
	}

	var b = make([]byte, max)
	n, err := s.Read(b)
	if err != nil {
		return nil, err
	}
	return b[:n:n], nil
}

// Read implement io.Reader, read one frame into b.
func (s *Socket) Read(b []byte) (int, error) {
	if s.state == StateClosed {
		return 0, errClosed("recv")
	} else if len(b) == 0 {
		return 0, nil
	}

	for {
		n, err := s.ops.recv(s.fd, b)
		if err != nil {
			if s.cfg.RetryEINTR && errors.Is(err, syscall.EINTR) {
				continue
			}
			return 0, osError("recv", err, classifyIO)
		}
		return n, nil
	}
}

// Write implement io.Writer, unlike Send it reports a short write as error.
func (s *Socket) Write(b []byte) (int, error) {
	n, err := s.Send(b)
	if err != nil {
		return n, err
	} else if n < len(b) {
		return n, &Error{Kind: OSError, Op: "send", Err: errorx.ShortWrite(n, len(b))}
	}
	return n, nil
}

// Close release the descriptor, closing a closed socket is a no-op.
func (s *Socket) Close() error {
	if s.state == StateClosed {
		return nil
	}
	s.state = StateClosed

	s.cfg.Logger.Debug("close", slog.Int("fd", s.fd), slog.String("interface", s.ifname))
	if err := s.ops.close(s.fd); err != nil {
		return osError("close", err, classifyOS)
	}
	return nil
}

func (s *Socket) State() State { return s.state }
func (s *Socket) Type() int    { return s.typ }

// Fd return the descriptor, -1 after Close.
func (s *Socket) Fd() int {
	if s.state == StateClosed {
		return -1
	}
	return s.fd
}

// Interface return the bound interface name and index, zero values
// before Bind.
func (s *Socket) Interface() (name string, index int) { return s.ifname, s.ifindex }

// Protocol return the protocol filter in host order.
func (s *Socket) Protocol() uint16 { return helper.Ntohs(s.networkEndianProto) }

// HardwareAddr return the bound interface's hardware address.
func (s *Socket) HardwareAddr() (net.HardwareAddr, error) {
	if s.state == StateClosed {
		return nil, errClosed("hwaddr")
	} else if s.state != StateBound {
		return nil, &Error{Kind: InvalidState, Op: "hwaddr", Err: errors.New("socket not bound")}
	}
	hw, err := helper.IoctlGifhwaddr(s.ifname)
	if err != nil {
		return nil, osError("hwaddr", err, classifyIfindex)
	}
	return hw, nil
}

// SyscallConn expose the descriptor, e.g. to set socket options the Config
// does not cover.
func (s *Socket) SyscallConn() (syscall.RawConn, error) {
	if s.state == StateClosed {
		return nil, errClosed("syscallconn")
	}
	return &rawConn{s: s}, nil
}

type rawConn struct{ s *Socket }

var _ syscall.RawConn = (*rawConn)(nil)

func (c *rawConn) Control(f func(fd uintptr)) error {
	if c.s.state == StateClosed {
		return errClosed("control")
	}
	f(uintptr(c.s.fd))
	return nil
}

// Read call f until it returns true, waiting for the descriptor to become
// readable between calls.
func (c *rawConn) Read(f func(fd uintptr) (done bool)) error {
	return c.run("rawread", false, f)
}

func (c *rawConn) Write(f func(fd uintptr) (done bool)) error {
	return c.run("rawwrite", true, f)
}

func (c *rawConn) run(op string, write bool, f func(fd uintptr) (done bool)) error {
	for {
		if c.s.state == StateClosed {
			return errClosed(op)
		}
		if f(uintptr(c.s.fd)) {
			return nil
		}
		if err := c.s.ops.wait(c.s.fd, write); err != nil {
			return osError(op, err, classifyOS)
		}
	}
}
