package service

import (
	"net/http"
	"time"
)

// httpClient is shared by the platform services. Platform publish calls are
// the only network I/O outside a request cycle, and they must not hang a
// dispatcher worker forever.
var httpClient = &http.Client{
	Timeout: 30 * time.Second,
}

func GetExpiresAt(expiresIn int) time.Time {
	return time.Now().Add(time.Duration(expiresIn) * time.Second)
}
