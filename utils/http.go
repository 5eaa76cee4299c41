// utils/http.go
package utils

import (
	"net/http"
	"time"
)

// HTTPClient is shared by outbound API integrations (Telegram).
var HTTPClient = &http.Client{
	Timeout: 30 * time.Second,
}
