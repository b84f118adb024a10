package main

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

// relaycheck probes a running relay's health and stats endpoints. Exit code
// is non-zero when the relay is unreachable or unhealthy.
func main() {
	baseURL := strings.TrimRight(os.Getenv("RELAY_BASE_URL"), "/")
	if baseURL == "" {
		baseURL = "http://127.0.0.1:3000"
	}

	client := &fasthttp.Client{
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	body, err := get(client, baseURL+"/healthz")
	if err != nil {
		log.Fatalf("/healthz error: %v", err)
	}
	fmt.Printf("/healthz ok: %s\n", body)

	body, err = get(client, baseURL+"/stats")
	if err != nil {
		log.Fatalf("/stats error: %v", err)
	}
	fmt.Printf("/stats ok: %s\n", body)
}

func get(client *fasthttp.Client, url string) (string, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	if err := client.DoTimeout(req, resp, 5*time.Second); err != nil {
		return "", err
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode())
	}
	return strings.TrimSpace(string(resp.Body())), nil
}
