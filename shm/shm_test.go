package shm

import (
	"context"
	"testing"
	"time"
)

func TestListenDialAndByteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	name := "test-server"

	ln, err := Listen(dir, name)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()

	serverSock := make(chan *Socket, 1)
	acceptErr := make(chan error, 1)
	go func() {
		sock, err := ln.Accept()
		if err != nil {
			acceptErr <- err
			return
		}
		serverSock <- sock
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	clientSock, err := Dial(ctx, dir, name)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer clientSock.Shutdown()

	var srv *Socket
	select {
	case srv = <-serverSock:
	case err := <-acceptErr:
		t.Fatalf("Accept: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for Accept")
	}
	defer srv.Shutdown()

	if err := clientSock.WriteAll([]byte("ping")); err != nil {
		t.Fatalf("client WriteAll: %v", err)
	}
	buf := make([]byte, 4)
	n, err := srv.ReadSome(buf)
	if err != nil || n != 4 || string(buf[:n]) != "ping" {
		t.Fatalf("server ReadSome: got %q n=%d err=%v", buf[:n], n, err)
	}

	if err := srv.WriteAll([]byte("pong")); err != nil {
		t.Fatalf("server WriteAll: %v", err)
	}
	buf2 := make([]byte, 4)
	n, err = clientSock.ReadSome(buf2)
	if err != nil || n != 4 || string(buf2[:n]) != "pong" {
		t.Fatalf("client ReadSome: got %q n=%d err=%v", buf2[:n], n, err)
	}
}

func TestDialFailsWithoutServer(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	if _, err := Dial(ctx, dir, "nonexistent"); err == nil {
		t.Fatalf("expected an error dialing a server region that does not exist")
	}
}
