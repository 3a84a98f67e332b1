// Package server implements the TCP accept loop that exposes an Engine
// over the line-oriented protocol described by internal/protocol.
package server

import (
	"bufio"
	"log"
	"net"
	"sync"

	"github.com/google/uuid"

	"mvccd/internal/protocol"
	"mvccd/pkg/mvcc"
)

// Server owns the listener, one goroutine per accepted connection, and a
// sync.WaitGroup + quit channel shutdown path, with bufio.Scanner-based
// line framing in place of a binary header/body wire format.
type Server struct {
	addr   string
	engine *mvcc.Engine

	ln   net.Listener
	wg   sync.WaitGroup
	quit chan struct{}
}

// New creates a Server bound to addr that serves requests against engine.
func New(addr string, engine *mvcc.Engine) *Server {
	return &Server{
		addr:   addr,
		engine: engine,
		quit:   make(chan struct{}),
	}
}

// Start opens the listener and begins accepting connections in the
// background. It returns once the listener is open.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.ln = ln
	log.Printf("[mvccd] listening on %s", s.addr)

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// Stop closes the listener, waits for the accept loop to exit, and then
// waits for every open connection to end before returning. It does not
// close open connections itself: each one ends when its client closes it
// or a read or write on it fails.
func (s *Server) Stop() error {
	close(s.quit)
	if s.ln != nil {
		s.ln.Close()
	}
	s.wg.Wait()
	return nil
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			select {
			case <-s.quit:
				return
			default:
				log.Printf("[mvccd] accept error: %v", err)
				continue
			}
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(conn)
		}()
	}
}

// session holds the per-connection state: at most one bound transaction
// id, set by START and cleared by COMMIT/ROLLBACK.
type session struct {
	id  string
	txn *mvcc.TxnID
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	sess := &session{id: uuid.New().String()}
	log.Printf("[mvccd] conn=%s accepted", sess.id)

	scanner := bufio.NewScanner(conn)
	writer := bufio.NewWriter(conn)

	for scanner.Scan() {
		line := scanner.Text()
		resp := s.dispatch(sess, line)

		b, err := resp.Encode()
		if err != nil {
			log.Printf("[mvccd] conn=%s encode error: %v", sess.id, err)
			return
		}
		if _, err := writer.Write(b); err != nil {
			log.Printf("[mvccd] conn=%s write error: %v", sess.id, err)
			return
		}
		if err := writer.Flush(); err != nil {
			log.Printf("[mvccd] conn=%s flush error: %v", sess.id, err)
			return
		}
	}
	if err := scanner.Err(); err != nil {
		log.Printf("[mvccd] conn=%s read error: %v", sess.id, err)
	}
	log.Printf("[mvccd] conn=%s closed", sess.id)
}

func (s *Server) dispatch(sess *session, line string) protocol.Response {
	req, err := protocol.Parse(line)
	if err != nil {
		return protocol.Err(err.Error())
	}

	switch req.Cmd {
	case protocol.CmdGet:
		value, err := s.engine.Get(req.Key, sess.txn)
		if err != nil {
			return protocol.Err(err.Error())
		}
		if value == nil {
			return protocol.Err(mvcc.ErrKeyNotFound.Error())
		}
		return protocol.OK(string(value))

	case protocol.CmdPut:
		if err := s.engine.Put(req.Key, req.Value, sess.txn); err != nil {
			return protocol.Err(err.Error())
		}
		return protocol.OK("")

	case protocol.CmdDelete:
		if err := s.engine.Delete(req.Key, sess.txn); err != nil {
			return protocol.Err(err.Error())
		}
		return protocol.OK("")

	case protocol.CmdStart:
		if sess.txn != nil {
			return protocol.Err("transaction already in progress")
		}
		id, err := s.engine.Start()
		if err != nil {
			return protocol.Err(err.Error())
		}
		sess.txn = &id
		return protocol.OK("")

	case protocol.CmdCommit:
		if sess.txn == nil {
			return protocol.Err("no transaction in progress")
		}
		err := s.engine.Commit(*sess.txn)
		sess.txn = nil
		if err != nil {
			return protocol.Err(err.Error())
		}
		return protocol.OK("")

	case protocol.CmdRollback:
		if sess.txn == nil {
			return protocol.Err("no transaction in progress")
		}
		err := s.engine.Rollback(*sess.txn)
		sess.txn = nil
		if err != nil {
			return protocol.Err(err.Error())
		}
		return protocol.OK("")

	default:
		return protocol.Err(protocol.ErrInvalidRequest.Error())
	}
}
