/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package testutil

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const waitPollInterval = 10 * time.Millisecond

// GetLocalFreeTCPPort returns a TCP port on 127.0.0.1 that nobody listens on at the moment of the call.
func GetLocalFreeTCPPort() int {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		panic(err)
	}
	defer func() { _ = listener.Close() }()
	return listener.Addr().(*net.TCPAddr).Port
}

// GetLocalAddrWithFreeTCPPort returns 127.0.0.1:<free-tcp-port> address.
func GetLocalAddrWithFreeTCPPort() string {
	return fmt.Sprintf("127.0.0.1:%d", GetLocalFreeTCPPort())
}

// WaitListeningServer waits until a TCP connection to addr can be established.
func WaitListeningServer(addr string, timeout time.Duration) error {
	err := poll(timeout, func() error {
		conn, err := net.DialTimeout("tcp", addr, time.Second)
		if err != nil {
			return err
		}
		return conn.Close()
	})
	if err != nil {
		return fmt.Errorf("wait for server listening on %s: %w", addr, err)
	}
	return nil
}

// WaitPortAndListeningServer waits until getPort reports a non-zero port
// and then until the server accepts connections on host:port.
func WaitPortAndListeningServer(host string, getPort func() int, timeout time.Duration) (int, error) {
	var port int
	err := poll(timeout, func() error {
		if port = getPort(); port == 0 {
			return errors.New("port is not known yet")
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return port, WaitListeningServer(fmt.Sprintf("%s:%d", host, port), timeout)
}

// poll calls fn with a constant interval until it succeeds or the timeout elapses.
func poll(timeout time.Duration, fn func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = waitPollInterval
	b.Multiplier = 1
	b.RandomizationFactor = 0
	b.MaxElapsedTime = timeout
	return backoff.Retry(fn, b)
}
