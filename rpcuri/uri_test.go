package rpcuri

import "testing"

func TestParseTCP(t *testing.T) {
	u, err := Parse("tcp://127.0.0.1:18800")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Scheme != SchemeTCP || u.HostOrPath != "127.0.0.1" || u.Port != 18800 {
		t.Fatalf("unexpected parse result: %+v", u)
	}
	if u.String() != "tcp://127.0.0.1:18800" {
		t.Fatalf("round trip mismatch: %s", u.String())
	}
}

func TestParseTCPIPv6(t *testing.T) {
	u, err := Parse("tcp://[::1]:18800")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.HostOrPath != "::1" || u.Port != 18800 || !u.IsIPv6Bracketed {
		t.Fatalf("unexpected parse result: %+v", u)
	}
	if u.String() != "tcp://[::1]:18800" {
		t.Fatalf("round trip mismatch: %s", u.String())
	}
}

func TestParseUnix(t *testing.T) {
	u, err := Parse("unix:///tmp/msgpackrpc.sock")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Scheme != SchemeUnix || u.HostOrPath != "/tmp/msgpackrpc.sock" {
		t.Fatalf("unexpected parse result: %+v", u)
	}
}

func TestParseShm(t *testing.T) {
	u, err := Parse("shm://myserver")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Scheme != SchemeShm || u.HostOrPath != "myserver" {
		t.Fatalf("unexpected parse result: %+v", u)
	}
}

func TestParseShmRejectsSlash(t *testing.T) {
	if _, err := Parse("shm://my/server"); err == nil {
		t.Fatalf("expected error for shm name containing '/'")
	}
}

func TestParseRejectsUnknownScheme(t *testing.T) {
	if _, err := Parse("http://example.com:80"); err == nil {
		t.Fatalf("expected error for unrecognized scheme")
	}
}

func TestParseTCPMissingPort(t *testing.T) {
	if _, err := Parse("tcp://127.0.0.1"); err == nil {
		t.Fatalf("expected error for missing mandatory tcp port")
	}
}

func TestEqualIsStructural(t *testing.T) {
	a, _ := Parse("tcp://127.0.0.1:1")
	b, _ := Parse("tcp://127.0.0.1:1")
	if !a.Equal(b) {
		t.Fatalf("expected structural equality")
	}
}
