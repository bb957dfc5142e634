package transport

import (
	"fmt"
	"time"
)

// proxyPollTimeout bounds each poll iteration so every proxy re-checks
// ctx.Done() promptly even with no traffic.
const proxyPollTimeout = 500 * time.Millisecond

func tcpAddr(port int) string {
	return fmt.Sprintf("tcp://*:%d", port)
}

func itoaPort(port int) string {
	return fmt.Sprintf("%d", port)
}
