package source

import (
	"math/rand"
	"time"
)

var browserUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
}

// randomUserAgent picks one browser UA per fetcher, not per request.
func randomUserAgent() string {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	return browserUserAgents[r.Intn(len(browserUserAgents))]
}
