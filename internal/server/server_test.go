package server

import (
	"strings"
	"testing"

	"mvccd/pkg/clock"
	"mvccd/pkg/mvcc"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	return New(":0", mvcc.New(clock.NewDeterministic()))
}

func TestDispatchPutThenGetImplicit(t *testing.T) {
	s := testServer(t)
	sess := &session{id: "test"}

	if resp := s.dispatch(sess, "PUT a 1"); resp.Status != "Ok" {
		t.Fatalf("PUT a 1 = %+v, want Ok", resp)
	}
	resp := s.dispatch(sess, "GET a")
	if resp.Status != "Ok" || resp.Result != "1" {
		t.Fatalf("GET a = %+v, want Ok/1", resp)
	}
}

func TestDispatchGetMissingKeyIsError(t *testing.T) {
	s := testServer(t)
	sess := &session{id: "test"}

	resp := s.dispatch(sess, "GET nope")
	if resp.Status != "Error" {
		t.Fatalf("GET nope = %+v, want Error", resp)
	}
}

func TestDispatchStartBindsSessionTransaction(t *testing.T) {
	s := testServer(t)
	sess := &session{id: "test"}

	if resp := s.dispatch(sess, "START"); resp.Status != "Ok" {
		t.Fatalf("START = %+v, want Ok", resp)
	}
	if sess.txn == nil {
		t.Fatal("START did not bind a transaction id to the session")
	}

	if resp := s.dispatch(sess, "PUT k v"); resp.Status != "Ok" {
		t.Fatalf("PUT k v = %+v, want Ok", resp)
	}

	other := &session{id: "other"}
	resp := s.dispatch(other, "GET k")
	if resp.Status != "Error" {
		t.Fatalf("GET k from other session before commit = %+v, want Error (not yet visible)", resp)
	}

	if resp := s.dispatch(sess, "COMMIT"); resp.Status != "Ok" {
		t.Fatalf("COMMIT = %+v, want Ok", resp)
	}
	if sess.txn != nil {
		t.Fatal("COMMIT did not clear the session's bound transaction")
	}

	resp = s.dispatch(other, "GET k")
	if resp.Status != "Ok" || resp.Result != "v" {
		t.Fatalf("GET k after commit = %+v, want Ok/v", resp)
	}
}

func TestDispatchRollbackClearsSessionAndHidesWrites(t *testing.T) {
	s := testServer(t)
	sess := &session{id: "test"}

	s.dispatch(sess, "START")
	s.dispatch(sess, "PUT k v")
	if resp := s.dispatch(sess, "ROLLBACK"); resp.Status != "Ok" {
		t.Fatalf("ROLLBACK = %+v, want Ok", resp)
	}
	if sess.txn != nil {
		t.Fatal("ROLLBACK did not clear the session's bound transaction")
	}

	resp := s.dispatch(sess, "GET k")
	if resp.Status != "Error" {
		t.Fatalf("GET k after rollback = %+v, want Error", resp)
	}
}

func TestDispatchCommitWithoutStartIsError(t *testing.T) {
	s := testServer(t)
	sess := &session{id: "test"}

	resp := s.dispatch(sess, "COMMIT")
	if resp.Status != "Error" {
		t.Fatalf("COMMIT without START = %+v, want Error", resp)
	}
}

func TestDispatchDoubleStartIsError(t *testing.T) {
	s := testServer(t)
	sess := &session{id: "test"}

	s.dispatch(sess, "START")
	resp := s.dispatch(sess, "START")
	if resp.Status != "Error" {
		t.Fatalf("second START = %+v, want Error", resp)
	}
}

func TestDispatchMalformedLineIsError(t *testing.T) {
	s := testServer(t)
	sess := &session{id: "test"}

	resp := s.dispatch(sess, "")
	if resp.Status != "Error" || !strings.Contains(resp.Mesg, "no arguments") {
		t.Fatalf("dispatch(\"\") = %+v, want Error/no arguments specified", resp)
	}
}

func TestStartStopListensAndCloses(t *testing.T) {
	s := testServer(t)
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}
