package server

import (
	"io"

	"redisd/internal/db"
)

// ServeConn drives one connection's request/reply loop against srv,
// independent of the reactor: it blocks on rw.Read, feeds whatever
// arrived through a Conn, and writes back whatever reply bytes that
// produced. Production never calls this (the epoll wiring in
// listener_linux.go drives Conn.Feed directly from non-blocking reads
// instead); it exists so the six end-to-end scenarios in SPEC_FULL.md §8
// can be driven over a real net.Conn (including net.Pipe in tests)
// without depending on the Linux-only accept/epoll path.
func ServeConn(srv *Server, rw io.ReadWriter) error {
	conn := NewConn(srv)
	buf := make([]byte, 64*1024)
	for {
		n, err := rw.Read(buf)
		if n > 0 {
			out, closeConn := conn.Feed(buf[:n], db.NowMillis())
			if len(out) > 0 {
				if _, werr := rw.Write(out); werr != nil {
					return werr
				}
			}
			if closeConn {
				return nil
			}
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}
