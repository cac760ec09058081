package handler

import (
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

const defaultGeminiUpstream = "https://generativelanguage.googleapis.com/v1beta/models/gemini-3-flash-preview:generateContent"

// ProxyHandler forwards raw generate requests to the Gemini REST endpoint.
// The API key is appended server side so it never reaches the browser.
type ProxyHandler struct {
	apiKey   string
	upstream string
	client   *http.Client
}

func NewProxyHandler(apiKey, upstream string) *ProxyHandler {
	if upstream == "" {
		upstream = defaultGeminiUpstream
	}
	return &ProxyHandler{
		apiKey:   apiKey,
		upstream: upstream,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
}

func (h *ProxyHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if h.apiKey == "" {
		writeError(w, http.StatusInternalServerError, "API key is not configured")
		return
	}

	target := h.upstream
	if strings.Contains(target, "?") {
		target += "&key=" + h.apiKey
	} else {
		target += "?key=" + h.apiKey
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, target, r.Body)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build upstream request")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		log.Printf("gemini proxy upstream call failed: %v", err)
		writeError(w, http.StatusBadGateway, "upstream request failed")
		return
	}
	defer resp.Body.Close()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		log.Printf("gemini proxy response copy failed: %v", err)
	}
}
