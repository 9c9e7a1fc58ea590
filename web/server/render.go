package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/output"
	"github.com/df07/go-pathtracer/pkg/renderer"
	"github.com/df07/go-pathtracer/pkg/scene"
)

const (
	defaultScene = "default"
	defaultSeed  = 42

	minWidth   = 8
	maxWidth   = 2000
	maxSamples = 10000
	maxDepth   = 500
)

// RenderRequest represents a render request from the client
type RenderRequest struct {
	Scene   string        `json:"scene"`   // Scene ID: a built-in name or "file:<name>"
	Width   int           `json:"width"`   // Image width; height follows the scene's aspect ratio
	Samples int           `json:"samples"` // Samples per pixel
	Depth   int           `json:"depth"`   // Maximum ray bounces
	Seed    int64         `json:"seed"`    // Sampling seed
	Format  output.Format `json:"format"`  // png or ppm
	BVH     bool          `json:"bvh"`     // Intersect through a bounding volume hierarchy
}

// Stats represents render statistics
type Stats struct {
	Width         int     `json:"width"`
	Height        int     `json:"height"`
	TotalPixels   int     `json:"totalPixels"`
	TotalSamples  int64   `json:"totalSamples"`
	Workers       int     `json:"workers"`
	MeanLuminance float64 `json:"meanLuminance"`
}

// ProgressUpdate reports scanlines still to be rendered
type ProgressUpdate struct {
	Remaining int   `json:"remaining"`
	Total     int   `json:"total"`
	ElapsedMs int64 `json:"elapsedMs"`
}

// CompleteUpdate carries the finished image
type CompleteUpdate struct {
	ImageData string `json:"imageData"` // Base64 encoded PNG
	Stats     Stats  `json:"stats"`
	ElapsedMs int64  `json:"elapsedMs"`
}

// SSEEvent represents a unified SSE event for thread-safe writing
type SSEEvent struct {
	Type string `json:"type"` // "console", "progress", "error", "complete"
	Data string `json:"data"` // JSON-encoded data
}

// parseRenderRequest parses request parameters
func (s *Server) parseRenderRequest(r *http.Request) (*RenderRequest, error) {
	query := r.URL.Query()
	req := &RenderRequest{Scene: query.Get("scene")}
	if req.Scene == "" {
		req.Scene = defaultScene
	}

	var err error
	if req.Width, err = parseIntParam(query, "width", 200, minWidth, maxWidth); err != nil {
		return nil, err
	}
	if req.Samples, err = parseIntParam(query, "samples", 10, 1, maxSamples); err != nil {
		return nil, err
	}
	if req.Depth, err = parseIntParam(query, "depth", 10, 0, maxDepth); err != nil {
		return nil, err
	}
	if req.Seed, err = parseInt64Param(query, "seed", defaultSeed); err != nil {
		return nil, err
	}

	if bvh := query.Get("bvh"); bvh != "" {
		if req.BVH, err = strconv.ParseBool(bvh); err != nil {
			return nil, fmt.Errorf("invalid bvh: %s", bvh)
		}
	}

	req.Format = output.FormatPNG
	if format := query.Get("format"); format != "" {
		if req.Format, err = output.ParseFormat(format); err != nil {
			return nil, err
		}
	}

	if req.Width*req.Samples > 400*1000 {
		s.logger.WithField("scene", req.Scene).Warn("Large image with high samples may render slowly")
	}

	return req, nil
}

// createRaytracer loads the requested scene and applies the request's overrides
func (s *Server) createRaytracer(req *RenderRequest, options renderer.RenderOptions) (*scene.Scene, *renderer.Raytracer, error) {
	sceneObj, err := scene.Load(req.Scene, s.config.SceneDir, req.Seed)
	if err != nil {
		return nil, nil, err
	}

	sceneObj.Camera.ImageWidth = req.Width
	sceneObj.Camera.SamplesPerPixel = req.Samples
	sceneObj.Camera.MaxDepth = req.Depth
	if req.BVH {
		sceneObj.BuildBVH()
	}

	options.NumWorkers = s.config.Workers
	options.Seed = req.Seed

	rt, err := renderer.NewRaytracer(sceneObj, options)
	if err != nil {
		return nil, nil, err
	}
	return sceneObj, rt, nil
}

// requestStatus maps an error to an HTTP status and a metrics label
func requestStatus(err error) (int, string) {
	if errors.Is(err, scene.ErrUnknownScene) || errors.Is(err, scene.ErrInvalidScene) ||
		errors.Is(err, renderer.ErrInvalidCamera) {
		return http.StatusBadRequest, statusInvalid
	}
	return http.StatusInternalServerError, statusError
}

// handleRender renders synchronously and responds with the encoded image
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseRenderRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	logger := s.logger.WithField("scene", req.Scene)
	sceneObj, rt, err := s.createRaytracer(req, renderer.RenderOptions{Logger: logger})
	if err != nil {
		status, label := requestStatus(err)
		s.metrics.observeRender(req.Scene, label, 0, 0)
		writeError(w, status, err.Error())
		return
	}

	done := s.metrics.renderStarted()
	defer done()

	var buf bytes.Buffer
	var stats renderer.RenderStats
	switch req.Format {
	case output.FormatPPM:
		sink := output.NewPPMWriter(&buf)
		if stats, err = rt.Render(r.Context(), sink); err == nil {
			err = sink.Close()
		}
	default:
		sink := output.NewImageSink()
		if stats, err = rt.Render(r.Context(), sink); err == nil {
			err = output.EncodePNG(&buf, sink.Image())
		}
	}

	if err != nil {
		logger.WithError(err).Error("Render failed")
		s.metrics.observeRender(sceneObj.Name, statusError, 0, 0)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.metrics.observeRender(sceneObj.Name, statusSuccess, stats.Duration, stats.TotalSamples)
	logger.WithFields(logrus.Fields{
		"size":     fmt.Sprintf("%dx%d", stats.Width, stats.Height),
		"samples":  stats.TotalSamples,
		"duration": stats.Duration,
	}).Info("Render completed")

	w.Header().Set("Content-Type", req.Format.ContentType())
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// handleRenderStream renders while streaming progress and console output via SSE,
// finishing with a base64 PNG of the image
func (s *Server) handleRenderStream(w http.ResponseWriter, r *http.Request) {
	s.setSSEHeaders(w)
	ctx := r.Context()

	// Single writer goroutine keeps SSE writes ordered and thread-safe
	sseEventChan := make(chan SSEEvent, 100)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeSSEEvents(ctx, w, sseEventChan)
	}()
	defer func() {
		close(sseEventChan)
		<-writerDone
	}()

	req, err := s.parseRenderRequest(r)
	if err != nil {
		s.sendEvent(ctx, sseEventChan, "error", fmt.Sprintf("Invalid request: %v", err))
		return
	}

	consoleChan, webLogger := s.setupConsoleLogging()
	var consoleWG sync.WaitGroup
	consoleWG.Add(1)
	go func() {
		defer consoleWG.Done()
		s.streamConsoleMessages(ctx, consoleChan, sseEventChan)
	}()

	startTime := time.Now()
	var total int
	options := renderer.RenderOptions{
		Logger: webLogger,
		Progress: func(remaining int) {
			data, _ := json.Marshal(ProgressUpdate{
				Remaining: remaining,
				Total:     total,
				ElapsedMs: time.Since(startTime).Milliseconds(),
			})
			s.sendEvent(ctx, sseEventChan, "progress", string(data))
		},
	}

	sceneObj, rt, err := s.createRaytracer(req, options)
	if err != nil {
		close(consoleChan)
		consoleWG.Wait()
		_, label := requestStatus(err)
		s.metrics.observeRender(req.Scene, label, 0, 0)
		s.sendEvent(ctx, sseEventChan, "error", err.Error())
		return
	}
	total = rt.Camera().ImageHeight()

	done := s.metrics.renderStarted()
	sink := output.NewImageSink()
	stats, err := rt.Render(ctx, sink)
	done()

	close(consoleChan)
	consoleWG.Wait()

	if err != nil {
		s.metrics.observeRender(sceneObj.Name, statusError, 0, 0)
		s.sendEvent(ctx, sseEventChan, "error", fmt.Sprintf("Render error: %v", err))
		return
	}
	s.metrics.observeRender(sceneObj.Name, statusSuccess, stats.Duration, stats.TotalSamples)

	imageData, err := imageToBase64PNG(sink)
	if err != nil {
		s.sendEvent(ctx, sseEventChan, "error", err.Error())
		return
	}

	data, err := json.Marshal(CompleteUpdate{
		ImageData: imageData,
		Stats: Stats{
			Width:         stats.Width,
			Height:        stats.Height,
			TotalPixels:   stats.TotalPixels,
			TotalSamples:  int64(stats.TotalSamples),
			Workers:       stats.NumWorkers,
			MeanLuminance: stats.MeanLuminance,
		},
		ElapsedMs: time.Since(startTime).Milliseconds(),
	})
	if err != nil {
		s.sendEvent(ctx, sseEventChan, "error", err.Error())
		return
	}
	s.sendEvent(ctx, sseEventChan, "complete", string(data))
}

// imageToBase64PNG converts the collected image to base64-encoded PNG
func imageToBase64PNG(sink *output.ImageSink) (string, error) {
	var buf bytes.Buffer
	if err := output.EncodePNG(&buf, sink.Image()); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// setSSEHeaders sets the required headers for Server-Sent Events
func (s *Server) setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

// setupConsoleLogging creates console channel and web logger for a render
func (s *Server) setupConsoleLogging() (chan ConsoleMessage, core.Logger) {
	consoleChan := make(chan ConsoleMessage, 50)
	renderID := fmt.Sprintf("render-%d", time.Now().UnixNano())
	webLogger := NewWebLogger(s.logger, renderID, consoleChan)
	return consoleChan, webLogger
}

// sendEvent queues an SSE event unless the client has gone away
func (s *Server) sendEvent(ctx context.Context, sseEventChan chan<- SSEEvent, eventType, data string) {
	select {
	case sseEventChan <- SSEEvent{Type: eventType, Data: data}:
	case <-ctx.Done():
	}
}

// writeSSEEvents handles writing all SSE events in a single goroutine.
// After a client disconnect it keeps draining so senders never block.
func (s *Server) writeSSEEvents(ctx context.Context, w http.ResponseWriter, sseEventChan <-chan SSEEvent) {
	for event := range sseEventChan {
		if ctx.Err() != nil {
			continue
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Data); err != nil {
			continue
		}
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}
	}
}

// streamConsoleMessages forwards console messages as SSE events until consoleChan is closed
func (s *Server) streamConsoleMessages(ctx context.Context, consoleChan <-chan ConsoleMessage, sseEventChan chan<- SSEEvent) {
	for consoleMsg := range consoleChan {
		data, err := json.Marshal(consoleMsg)
		if err != nil {
			continue
		}
		s.sendEvent(ctx, sseEventChan, "console", string(data))
	}
}
