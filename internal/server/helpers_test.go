package server

import (
	"net"
	"os"
	"strconv"
	"testing"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}
