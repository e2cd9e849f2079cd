package respserver

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/redcon"

	"github.com/yuuhhe/microlog/internal/ringlog"
	"github.com/yuuhhe/microlog/internal/runtime"
	"github.com/yuuhhe/microlog/pkg/log"
)

// Server speaks the Redis protocol so redis-cli and Redis client libraries
// can append to and read the log.
type Server struct {
	rt     *runtime.Runtime
	logger log.Logger

	mu   sync.Mutex
	srv  *redcon.Server
	addr string
	cmds map[string]handlerFunc
}

type handlerFunc func(conn redcon.Conn, args [][]byte)

// New builds a server over rt. Nothing listens until ListenAndServe.
func New(rt *runtime.Runtime, logger log.Logger) *Server {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	s := &Server{rt: rt, logger: logger.WithComponent("resp")}
	s.cmds = map[string]handlerFunc{
		"ping":       s.ping,
		"quit":       s.quit,
		"log.append": s.appendCmd,
		"log.read":   s.read,
		"log.count":  s.count,
		"log.size":   s.size,
		"log.clear":  s.clear,
		"log.drop":   s.drop,
		"log.stores": s.stores,
	}
	return s
}

// ListenAndServe serves on addr until ctx is done. ready, when non-nil,
// receives nil once the listener is bound or the bind error.
func (s *Server) ListenAndServe(ctx context.Context, addr string, ready chan<- error) error {
	srv := redcon.NewServer(addr, s.handle, nil, nil)
	s.mu.Lock()
	s.srv = srv
	s.mu.Unlock()

	signal := make(chan error, 1)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenServeAndSignal(signal) }()
	if err := <-signal; err != nil {
		if ready != nil {
			ready <- err
		}
		return err
	}
	addr = srv.Addr().String()
	s.mu.Lock()
	s.addr = addr
	s.mu.Unlock()
	s.logger.Info("resp listening", log.Str("addr", addr))
	if ready != nil {
		ready <- nil
	}

	select {
	case <-ctx.Done():
		_ = srv.Close()
		<-errCh
		return nil
	case err := <-errCh:
		return err
	}
}

// Addr returns the bound address, or "" before the listener is up.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Close stops the listener.
func (s *Server) Close() {
	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()
	if srv != nil {
		_ = srv.Close()
	}
}

func (s *Server) handle(conn redcon.Conn, cmd redcon.Command) {
	name := strings.ToLower(string(cmd.Args[0]))
	h, ok := s.cmds[name]
	if !ok {
		conn.WriteError("ERR unknown command '" + string(cmd.Args[0]) + "'")
		return
	}
	h(conn, cmd.Args[1:])
}

func (s *Server) ping(conn redcon.Conn, args [][]byte) {
	if len(args) > 0 {
		conn.WriteBulk(args[0])
		return
	}
	conn.WriteString("PONG")
}

func (s *Server) quit(conn redcon.Conn, _ [][]byte) {
	conn.WriteString("OK")
	_ = conn.Close()
}

// LOG.APPEND message [LEVEL level] [NAME name] [TS millis]
func (s *Server) appendCmd(conn redcon.Conn, args [][]byte) {
	if len(args) == 0 || len(args)%2 == 0 {
		conn.WriteError("ERR wrong number of arguments for 'log.append' command")
		return
	}
	level := log.InfoLevel
	var name string
	ts := time.Now().UnixMilli()
	for i := 1; i < len(args); i += 2 {
		val := string(args[i+1])
		switch strings.ToLower(string(args[i])) {
		case "level":
			l, err := log.ParseLevel(val)
			if err != nil {
				conn.WriteError("ERR " + err.Error())
				return
			}
			level = l
		case "name":
			name = val
		case "ts":
			n, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				conn.WriteError("ERR ts is not an integer")
				return
			}
			ts = n
		default:
			conn.WriteError("ERR syntax error")
			return
		}
	}
	app, err := s.rt.OpenAppender()
	if err != nil {
		conn.WriteError("ERR " + err.Error())
		return
	}
	app.DoLog(s.rt.ClientID(), name, ts, level, string(args[0]), nil)
	conn.WriteString("OK")
}

// LOG.READ [STORE name] [ORDER asc|desc] [FILTER expr] [LIMIT n]
func (s *Server) read(conn redcon.Conn, args [][]byte) {
	if len(args)%2 != 0 {
		conn.WriteError("ERR syntax error")
		return
	}
	var store, filter string
	order := ringlog.Ascending
	limit := 0
	for i := 0; i < len(args); i += 2 {
		val := string(args[i+1])
		switch strings.ToLower(string(args[i])) {
		case "store":
			store = val
		case "order":
			o, ok := ringlog.ParseOrder(val)
			if !ok {
				conn.WriteError("ERR unknown order '" + val + "'")
				return
			}
			order = o
		case "filter":
			filter = val
		case "limit":
			n, err := strconv.Atoi(val)
			if err != nil || n < 0 {
				conn.WriteError("ERR limit must be a non-negative integer")
				return
			}
			limit = n
		default:
			conn.WriteError("ERR syntax error")
			return
		}
	}

	loader, err := s.rt.NewLoader(store)
	if err != nil {
		conn.WriteError("ERR " + err.Error())
		return
	}
	loader.SetSortOrder(order)
	if err := loader.SetFilter(filter); err != nil {
		conn.WriteError("ERR " + err.Error())
		return
	}
	entries, err := loader.Entries()
	if err != nil {
		if errors.Is(err, ringlog.ErrStoreUnavailable) {
			conn.WriteArray(0)
			return
		}
		conn.WriteError("ERR " + err.Error())
		return
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	conn.WriteArray(len(entries))
	for _, e := range entries {
		conn.WriteBulkString(e.Text)
	}
}

// LOG.COUNT [store]
func (s *Server) count(conn redcon.Conn, args [][]byte) {
	if len(args) > 1 {
		conn.WriteError("ERR wrong number of arguments for 'log.count' command")
		return
	}
	var store string
	if len(args) == 1 {
		store = string(args[0])
	}
	loader, err := s.rt.NewLoader(store)
	if err != nil {
		conn.WriteError("ERR " + err.Error())
		return
	}
	conn.WriteInt(loader.NumLogItems())
}

func (s *Server) size(conn redcon.Conn, _ [][]byte) {
	conn.WriteInt64(s.rt.Appender().LogSize())
}

// LOG.CLEAR [store]
func (s *Server) clear(conn redcon.Conn, args [][]byte) {
	if len(args) > 1 {
		conn.WriteError("ERR wrong number of arguments for 'log.clear' command")
		return
	}
	var store string
	if len(args) == 1 {
		store = string(args[0])
	}
	loader, err := s.rt.NewLoader(store)
	if err != nil {
		conn.WriteError("ERR " + err.Error())
		return
	}
	app := s.rt.Appender()
	if loader.RecordStoreName() == app.RecordStoreName() && app.IsOpen() {
		app.Clear()
	} else {
		loader.ClearLog()
	}
	conn.WriteString("OK")
}

// LOG.DROP store
func (s *Server) drop(conn redcon.Conn, args [][]byte) {
	if len(args) != 1 {
		conn.WriteError("ERR wrong number of arguments for 'log.drop' command")
		return
	}
	if err := s.rt.DropStore(string(args[0])); err != nil {
		conn.WriteError("ERR " + err.Error())
		return
	}
	conn.WriteString("OK")
}

func (s *Server) stores(conn redcon.Conn, _ [][]byte) {
	names, err := s.rt.Stores()
	if err != nil {
		conn.WriteError("ERR " + err.Error())
		return
	}
	conn.WriteArray(len(names))
	for _, n := range names {
		conn.WriteBulkString(n)
	}
}
