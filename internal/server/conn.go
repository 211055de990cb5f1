package server

import (
	"strconv"
	"strings"
	"time"

	"github.com/c2h5oh/datasize"

	"redisd/internal/command"
	"redisd/internal/rdb"
	"redisd/internal/resp"
)

// Conn is the per-connection protocol state machine: it turns newly
// arrived bytes into replies, independent of however those bytes actually
// reach it. Production wires it to a raw epoll-registered fd (listener_linux.go);
// tests drive it directly or through a blocking net.Pipe read loop, since
// Feed takes only a byte slice and returns one. Grounded on the teacher's
// handler.CommandHandler.Handle, but with the blocking per-connection
// read loop replaced by this push-style Feed, and with REPLICAOF/
// MONITOR/SHUTDOWN/SAVE/BGSAVE/INFO/CONFIG pulled out of the generic
// command table into explicit interception here — mirroring the
// teacher's own comment in internal/handler/handler.go that these are
// "handled via pipeline interception" rather than ordinary commands.
type Conn struct {
	srv    *Server
	client command.Client

	fd     int // set once the server layer registers this Conn with a real socket
	parser *resp.Parser
	inbuf  []byte

	isMonitor  bool
	replicaID  int64 // -1 until attached as a slave or monitor
	lastActive int64
	closeAfter bool // set by SHUTDOWN: close once output drains
}

// NewConn returns a fresh per-connection state machine bound to srv.
func NewConn(srv *Server) *Conn {
	return &Conn{
		srv:        srv,
		client:     command.Client{DBIndex: 0},
		parser:     resp.NewParser(),
		replicaID:  -1,
		lastActive: time.Now().UnixMilli(),
	}
}

// Feed appends newly read bytes to the connection's pending input, parses
// and dispatches as many complete commands as are now available, and
// returns the accumulated reply bytes (possibly empty, possibly covering
// several pipelined commands). closeConn true means the connection must be
// closed after any returned bytes are written (a protocol error or an
// explicit SHUTDOWN).
func (c *Conn) Feed(data []byte, now int64) (out []byte, closeConn bool) {
	c.lastActive = now
	c.inbuf = append(c.inbuf, data...)

	for {
		args, consumed, err := c.parser.Feed(c.inbuf)
		if err == resp.ErrNotEnough {
			break
		}
		if err != nil {
			out = resp.AppendError(out, err.Error())
			return out, true
		}
		c.inbuf = append([]byte(nil), c.inbuf[consumed:]...)
		if len(args) == 0 {
			continue // bare inline newline, e.g. a health-check ping with no content
		}
		out = c.dispatch(args, now, out)
		if c.closeAfter {
			return out, true
		}
	}
	return out, false
}

// dispatch handles the connection-level commands directly and falls back
// to the shared command.Engine for everything else.
func (c *Conn) dispatch(args [][]byte, now int64, buf []byte) []byte {
	name := strings.ToUpper(string(args[0]))
	switch name {
	case "MONITOR":
		return c.cmdMonitor(buf)
	case "SLAVEOF", "REPLICAOF":
		return c.cmdReplicaOf(args, buf)
	case "SHUTDOWN":
		return c.cmdShutdown(buf)
	case "SAVE":
		return c.cmdSave(buf)
	case "BGSAVE":
		return c.cmdBgSave(buf)
	case "LASTSAVE":
		return resp.AppendInt(buf, c.srv.lastSaveUnix())
	case "INFO":
		return c.cmdInfo(buf)
	case "CONFIG":
		return c.cmdConfig(args, buf)
	default:
		return c.srv.engine.Dispatch(&c.client, args, now, buf)
	}
}

func (c *Conn) cmdMonitor(buf []byte) []byte {
	c.replicaID = c.srv.feed.AttachMonitor(func(b []byte) { c.srv.queueOutput(c, b) })
	c.isMonitor = true
	return append(buf, resp.ReplyOK...)
}

// cmdReplicaOf only records the desired role and logs it: initiating the
// actual "sync with master" handshake is a named external collaborator
// out of scope for this implementation (SPEC_FULL.md §1).
func (c *Conn) cmdReplicaOf(args [][]byte, buf []byte) []byte {
	if len(args) != 3 {
		return resp.AppendError(buf, "ERR wrong number of arguments for 'replicaof' command")
	}
	host := string(args[1])
	if strings.EqualFold(host, "no") && strings.EqualFold(string(args[2]), "one") {
		c.srv.cfg.ReplicationRole = "master"
		c.srv.cfg.ReplicationMasterHost = ""
		c.srv.cfg.ReplicationMasterPort = 0
		c.srv.logger.Info().Msg("replicaof no one: reverting to master role")
		return append(buf, resp.ReplyOK...)
	}
	port, err := strconv.Atoi(string(args[2]))
	if err != nil {
		return resp.AppendError(buf, "ERR invalid master port")
	}
	c.srv.cfg.ReplicationRole = "replica"
	c.srv.cfg.ReplicationMasterHost = host
	c.srv.cfg.ReplicationMasterPort = port
	c.srv.logger.Info().Str("master_host", host).Int("master_port", port).
		Msg("replicaof recorded; connect-to-master bootstrap is out of scope")
	return append(buf, resp.ReplyOK...)
}

// cmdShutdown snapshots (if a path is configured) and stops the reactor;
// real Redis never writes a reply here because the process exits first.
func (c *Conn) cmdShutdown(buf []byte) []byte {
	if c.srv.cfg.RDBFilepath != "" {
		if err := rdb.Save(c.srv.engine.Keyspace(), c.srv.cfg.RDBFilepath); err != nil {
			c.srv.logger.Error().Err(err).Msg("shutdown: snapshot save failed")
		} else {
			c.srv.noteSaved()
		}
	}
	c.closeAfter = true
	c.srv.loop.Stop()
	return buf
}

func (c *Conn) cmdSave(buf []byte) []byte {
	if err := rdb.Save(c.srv.engine.Keyspace(), c.srv.cfg.RDBFilepath); err != nil {
		return resp.AppendError(buf, "ERR "+err.Error())
	}
	c.srv.noteSaved()
	return append(buf, resp.ReplyOK...)
}

// cmdBgSave performs the save synchronously (there is no fork in a
// single-threaded reactor) but keeps BGSAVE's traditional reply text,
// documented here rather than silently diverging from client
// expectations about the command being non-blocking.
func (c *Conn) cmdBgSave(buf []byte) []byte {
	if err := rdb.Save(c.srv.engine.Keyspace(), c.srv.cfg.RDBFilepath); err != nil {
		return resp.AppendError(buf, "ERR "+err.Error())
	}
	c.srv.noteSaved()
	return resp.AppendStatus(buf, "Background saving started")
}

func (c *Conn) cmdInfo(buf []byte) []byte {
	info := "# Server\r\n" +
		"redis_version:redisd-1.0\r\n" +
		"role:" + c.srv.cfg.ReplicationRole + "\r\n" +
		"tcp_port:" + strconv.Itoa(c.srv.cfg.Port) + "\r\n" +
		"# Clients\r\n" +
		"connected_clients:" + strconv.Itoa(c.srv.clientCount()) + "\r\n" +
		"# Replication\r\n" +
		"connected_slaves:" + strconv.Itoa(c.srv.feed.Count()) + "\r\n" +
		"# Keyspace\r\n"
	for i := 0; i < c.srv.engine.Keyspace().Count(); i++ {
		if n := c.srv.engine.Keyspace().DB(i).Len(); n > 0 {
			info += "db" + strconv.Itoa(i) + ":keys=" + strconv.Itoa(n) + "\r\n"
		}
	}
	return resp.AppendBulk(buf, []byte(info))
}

// cmdConfig implements the CONFIG GET/SET subset SPEC_FULL.md §4.6 names:
// GET answers maxmemory and databases, SET accepts maxmemory only, enough
// to exercise the config surface without reimplementing the full directive
// grammar over the wire.
func (c *Conn) cmdConfig(args [][]byte, buf []byte) []byte {
	if len(args) < 2 {
		return resp.AppendError(buf, "ERR wrong number of arguments for 'config' command")
	}
	sub := strings.ToUpper(string(args[1]))
	switch sub {
	case "GET":
		if len(args) != 3 {
			return resp.AppendError(buf, "ERR wrong number of arguments for 'config|get' command")
		}
		key := strings.ToLower(string(args[2]))
		switch key {
		case "maxmemory":
			return resp.AppendBulkArray(buf, [][]byte{args[2], []byte(strconv.FormatUint(uint64(c.srv.cfg.MaxMemory), 10))})
		case "databases":
			return resp.AppendBulkArray(buf, [][]byte{args[2], []byte(strconv.Itoa(c.srv.cfg.Databases))})
		default:
			return resp.AppendArrayHeader(buf, 0)
		}
	case "SET":
		if len(args) != 4 {
			return resp.AppendError(buf, "ERR wrong number of arguments for 'config|set' command")
		}
		key := strings.ToLower(string(args[2]))
		if key != "maxmemory" {
			return resp.AppendError(buf, "ERR unsupported CONFIG SET parameter '"+key+"'")
		}
		v, err := strconv.ParseUint(string(args[3]), 10, 64)
		if err != nil {
			return resp.AppendError(buf, "ERR invalid maxmemory value")
		}
		c.srv.cfg.MaxMemory = datasize.ByteSize(v)
		return append(buf, resp.ReplyOK...)
	default:
		return resp.AppendError(buf, "ERR unknown CONFIG subcommand '"+sub+"'")
	}
}
