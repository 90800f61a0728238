// Package httpapi exposes the gateway's single downstream HTTP route and
// wires together the router, translators and upstream client.
package httpapi

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/pkoukk/tiktoken-go"

	"github.com/quillhq/claude-gateway/internal/apperror"
	"github.com/quillhq/claude-gateway/internal/config"
	"github.com/quillhq/claude-gateway/internal/protocol"
	"github.com/quillhq/claude-gateway/internal/router"
)

// Handler serves POST /v1/messages, translating each request to the
// configured O-API upstream and translating its response back.
type Handler struct {
	cfg    *config.Manager
	client *http.Client
	logger *slog.Logger
}

// NewHandler builds a Handler. client is the shared outbound HTTP client;
// pass nil to use http.DefaultClient.
func NewHandler(cfg *config.Manager, client *http.Client, logger *slog.Logger) *Handler {
	if client == nil {
		client = http.DefaultClient
	}

	return &Handler{cfg: cfg, client: client, logger: logger}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/v1/messages" {
		http.NotFound(w, r)
		return
	}

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		h.writeError(w, apperror.New(apperror.InvalidRequest, http.StatusMethodNotAllowed, "only POST is supported"))

		return
	}

	cfg := h.cfg.Get()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, apperror.InvalidRequestf("failed to read request body: %v", err))
		return
	}

	var req protocol.AnthropicRequest
	if err := protocolUnmarshal(body, &req); err != nil {
		h.writeError(w, apperror.InvalidRequestf("malformed request body: %v", err))
		return
	}

	if req.Model == "" {
		h.writeError(w, apperror.New(apperror.InvalidRequest, http.StatusBadRequest, "model is required"))
		return
	}

	upstreamModel := router.Route(req.Model, req.ThinkingRequested(), cfg.ReasoningModel, cfg.CompletionModel)

	outbound, err := protocol.TranslateRequest(&req, upstreamModel)
	if err != nil {
		h.writeError(w, apperror.InvalidRequestf("failed to translate request: %v", err))
		return
	}

	inputTokens := countTokens(body, h.logger)

	upstreamBody, err := protocolMarshal(outbound)
	if err != nil {
		h.writeError(w, apperror.Wrap(apperror.UpstreamMalformed, http.StatusBadGateway, "failed to encode upstream request", err))
		return
	}

	ctx := r.Context()
	if cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(cfg.RequestTimeout)*time.Second)

		defer cancel()
	}

	upstreamReq, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(cfg.UpstreamBaseURL, "/")+"/chat/completions", bytes.NewReader(upstreamBody))
	if err != nil {
		h.writeError(w, apperror.Wrap(apperror.ConfigError, http.StatusInternalServerError, "failed to build upstream request", err))
		return
	}

	upstreamReq.Header.Set("Content-Type", "application/json")

	if cfg.UpstreamAPIKey != "" {
		upstreamReq.Header.Set("Authorization", "Bearer "+cfg.UpstreamAPIKey)
	}

	if req.Stream {
		upstreamReq.Header.Set("Accept", "text/event-stream")
	}

	h.logger.Info("proxying request",
		"model", req.Model,
		"upstream_model", upstreamModel,
		"stream", req.Stream,
		"input_tokens", inputTokens,
	)

	resp, err := h.client.Do(upstreamReq)
	if err != nil {
		if ctx.Err() != nil {
			h.writeError(w, apperror.Wrap(apperror.ClientDisconnect, http.StatusRequestTimeout, "request canceled", err))
			return
		}

		h.writeError(w, apperror.Wrap(apperror.UpstreamUnreachable, http.StatusBadGateway, "upstream unreachable", err))

		return
	}
	defer resp.Body.Close()

	if req.Stream {
		h.serveStreaming(w, resp, req.Model)
		return
	}

	h.serveNonStreaming(w, resp, req.Model)
}

func (h *Handler) serveNonStreaming(w http.ResponseWriter, resp *http.Response, requestedModel string) {
	bodyReader, err := decompressReader(resp)
	if err != nil {
		h.writeError(w, apperror.Wrap(apperror.UpstreamMalformed, http.StatusBadGateway, "failed to decompress upstream response", err))
		return
	}

	if closer, ok := bodyReader.(io.Closer); ok {
		defer closer.Close()
	}

	respBody, err := io.ReadAll(bodyReader)
	if err != nil {
		h.writeError(w, apperror.Wrap(apperror.UpstreamUnreachable, http.StatusBadGateway, "failed to read upstream response", err))
		return
	}

	if resp.StatusCode != http.StatusOK {
		h.forwardUpstreamError(w, resp.StatusCode, respBody)
		return
	}

	var upstream protocol.OpenAIResponse
	if err := protocolUnmarshal(respBody, &upstream); err != nil {
		h.writeError(w, apperror.Wrap(apperror.UpstreamMalformed, http.StatusBadGateway, "failed to decode upstream response", err))
		return
	}

	translated, err := protocol.TranslateResponse(&upstream, requestedModel)
	if err != nil {
		h.writeError(w, apperror.Wrap(apperror.UpstreamMalformed, http.StatusBadGateway, "failed to translate upstream response", err))
		return
	}

	out, err := protocolMarshal(translated)
	if err != nil {
		h.writeError(w, apperror.Wrap(apperror.UpstreamMalformed, http.StatusInternalServerError, "failed to encode response", err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(out)
}

func (h *Handler) serveStreaming(w http.ResponseWriter, resp *http.Response, requestedModel string) {
	bodyReader, err := decompressReader(resp)
	if err != nil {
		h.writeError(w, apperror.Wrap(apperror.UpstreamMalformed, http.StatusBadGateway, "failed to decompress upstream response", err))
		return
	}

	if closer, ok := bodyReader.(io.Closer); ok {
		defer closer.Close()
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(bodyReader)
		h.forwardUpstreamError(w, resp.StatusCode, body)

		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)

	idleTimeout := time.Duration(h.cfg.Get().UpstreamIdleTimeoutSeconds) * time.Second
	if idleTimeout <= 0 {
		idleTimeout = 60 * time.Second
	}

	idleTimer := time.AfterFunc(idleTimeout, func() { resp.Body.Close() })
	defer idleTimer.Stop()

	session := protocol.NewStreamSession(requestedModel)
	scanner := bufio.NewScanner(bodyReader)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	for scanner.Scan() {
		idleTimer.Reset(idleTimeout)

		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}

		if line == "data: [DONE]" {
			if closing := session.Complete(); len(closing) > 0 {
				w.Write(closing)

				if flusher != nil {
					flusher.Flush()
				}
			}

			break
		}

		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		events, err := session.ProcessChunk([]byte(strings.TrimPrefix(line, "data: ")))
		if err != nil {
			h.logger.Error("stream chunk translation failed", "error", err)
			continue
		}

		if len(events) > 0 {
			w.Write(events)

			if flusher != nil {
				flusher.Flush()
			}
		}
	}

	if err := scanner.Err(); err != nil {
		h.logger.Error("stream read failed, aborting session", "error", err)
		w.Write(session.Abort())

		if flusher != nil {
			flusher.Flush()
		}
	}
}

func (h *Handler) forwardUpstreamError(w http.ResponseWriter, status int, body []byte) {
	var upstreamErr struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}

	message := string(body)
	errType := ""

	if err := protocolUnmarshal(body, &upstreamErr); err == nil && upstreamErr.Error.Message != "" {
		message = upstreamErr.Error.Message
		errType = upstreamErr.Error.Type
	}

	h.writeError(w, apperror.FromUpstream(status, errType, message))
}

func (h *Handler) writeError(w http.ResponseWriter, appErr *apperror.Error) {
	h.logger.Error("request failed", "status", appErr.Status, "kind", appErr.Kind, "message", appErr.Message, "cause", appErr.Cause)

	body, _ := protocolMarshal(appErr.Envelope())

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.Status)
	w.Write(body)
}

func decompressReader(resp *http.Response) (io.Reader, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		return gzip.NewReader(resp.Body)
	case "br":
		return brotli.NewReader(resp.Body), nil
	default:
		return resp.Body, nil
	}
}

func countTokens(body []byte, logger *slog.Logger) int {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		logger.Warn("failed to load token encoder", "error", err)
		return 0
	}

	return len(enc.Encode(string(body), nil, nil))
}
