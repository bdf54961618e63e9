// Package rpcuri parses the small URI grammar msgpack-rpc endpoints are named
// with: tcp://HOST:PORT, tcp://[IPv6]:PORT, unix://PATH, shm://NAME. It is a
// thin layer over the core (per spec §1, out-of-scope detail) but still has to
// get every edge case in the grammar right, since Address construction (the
// first real core type, §3) depends on it.
package rpcuri

import (
	"strconv"
	"strings"

	"github.com/msgpack-rpc/msgpackrpc-go/status"
)

// Scheme identifies which transport a URI names.
type Scheme string

const (
	SchemeTCP  Scheme = "tcp"
	SchemeUnix Scheme = "unix"
	SchemeShm  Scheme = "shm"
)

// URI is the parsed triple (scheme, host_or_path, port). Port is only
// meaningful for SchemeTCP.
type URI struct {
	Scheme       Scheme
	HostOrPath   string
	Port         uint16
	IsIPv6Bracketed bool
}

// String renders the URI back to its canonical wire form.
func (u URI) String() string {
	switch u.Scheme {
	case SchemeTCP:
		host := u.HostOrPath
		if u.IsIPv6Bracketed {
			host = "[" + host + "]"
		}
		return string(u.Scheme) + "://" + host + ":" + strconv.Itoa(int(u.Port))
	default:
		return string(u.Scheme) + "://" + u.HostOrPath
	}
}

// Parse validates and decomposes a URI string. Unrecognized schemes or
// grammar violations fail with status.InvalidArgument, per §6.
func Parse(raw string) (URI, error) {
	const sep = "://"
	idx := strings.Index(raw, sep)
	if idx < 0 {
		return URI{}, status.Newf(status.InvalidArgument, "missing scheme separator in uri %q", raw)
	}
	scheme := Scheme(raw[:idx])
	authority := raw[idx+len(sep):]
	if authority == "" {
		return URI{}, status.Newf(status.InvalidArgument, "empty authority in uri %q", raw)
	}

	switch scheme {
	case SchemeTCP:
		return parseTCP(authority)
	case SchemeUnix:
		return URI{Scheme: SchemeUnix, HostOrPath: authority}, nil
	case SchemeShm:
		if strings.Contains(authority, "/") {
			return URI{}, status.Newf(status.InvalidArgument, "shm name %q must not contain '/'", authority)
		}
		return URI{Scheme: SchemeShm, HostOrPath: authority}, nil
	default:
		return URI{}, status.Newf(status.InvalidArgument, "unrecognized scheme %q", scheme)
	}
}

func parseTCP(authority string) (URI, error) {
	if strings.HasPrefix(authority, "[") {
		end := strings.Index(authority, "]")
		if end < 0 {
			return URI{}, status.Newf(status.InvalidArgument, "unterminated ipv6 bracket in %q", authority)
		}
		host := authority[1:end]
		rest := authority[end+1:]
		if !strings.HasPrefix(rest, ":") {
			return URI{}, status.Newf(status.InvalidArgument, "tcp uri %q missing port after ipv6 host", authority)
		}
		port, err := parsePort(rest[1:])
		if err != nil {
			return URI{}, err
		}
		return URI{Scheme: SchemeTCP, HostOrPath: host, Port: port, IsIPv6Bracketed: true}, nil
	}

	last := strings.LastIndex(authority, ":")
	if last < 0 {
		return URI{}, status.Newf(status.InvalidArgument, "tcp uri %q missing mandatory port", authority)
	}
	host := authority[:last]
	if host == "" {
		return URI{}, status.Newf(status.InvalidArgument, "tcp uri %q missing host", authority)
	}
	port, err := parsePort(authority[last+1:])
	if err != nil {
		return URI{}, err
	}
	return URI{Scheme: SchemeTCP, HostOrPath: host, Port: port}, nil
}

func parsePort(s string) (uint16, error) {
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, status.Newf(status.InvalidArgument, "invalid port %q: %v", s, err)
	}
	return uint16(n), nil
}

// Equal reports structural equality, per §3 ("Equality is structural").
func (u URI) Equal(other URI) bool {
	return u == other
}
