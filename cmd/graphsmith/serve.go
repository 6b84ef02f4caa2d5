package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/randalmurphal/graphsmith/pkg/graphsmith"
	"github.com/randalmurphal/graphsmith/pkg/graphsmith/history"
	"github.com/randalmurphal/graphsmith/pkg/graphsmith/workflow"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the workflow generation HTTP server",
	Long: `Starts an HTTP server exposing the generation pipeline as a JSON API.
POST /v1/workflows generates a graph; with ?stream=1 the response is a
server-sent event stream of progress, synthesis chunks, and the result.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetString("port")

		pipeline, store, closeStore, err := buildPipeline(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		srv := &http.Server{
			Addr:    ":" + port,
			Handler: newHandler(pipeline, store),
		}

		serverErrors := make(chan error, 1)
		go func() {
			fmt.Fprintf(os.Stderr, "graphsmith listening on %s\n", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			return err
		case sig := <-shutdown:
			fmt.Fprintf(os.Stderr, "\nshutting down (%v)\n", sig)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				srv.Close()
				return err
			}
			return nil
		}
	},
}

// server carries the handlers' shared dependencies.
type server struct {
	pipeline *graphsmith.Pipeline
	store    history.Store
}

func newHandler(pipeline *graphsmith.Pipeline, store history.Store) http.Handler {
	s := &server{pipeline: pipeline, store: store}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/v1/workflows", s.handleGenerate)
	r.Get("/v1/runs", s.handleListRuns)
	r.Get("/v1/runs/{runID}", s.handleGetRun)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return r
}

// generateRequest is the POST /v1/workflows body.
type generateRequest struct {
	Request  string          `json:"request"`
	Existing *workflow.Graph `json:"existing,omitempty"`
}

func (s *server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var body generateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if r.URL.Query().Get("stream") != "" {
		s.generateStream(w, r, body)
		return
	}

	result, err := s.pipeline.Run(r.Context(), graphsmith.Request{
		Text:     body.Request,
		Existing: body.Existing,
	})
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"runId":    result.RunID,
		"workflow": result.Workflow,
		"usage":    result.Usage,
	})
}

// generateStream runs the pipeline while relaying progress and chunk
// events as server-sent events, ending with a result or error event.
func (s *server) generateStream(w http.ResponseWriter, r *http.Request, body generateRequest) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	events := make(chan graphsmith.Event, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range events {
			writeSSE(w, flusher, string(ev.Type), ev)
		}
	}()

	result, err := s.pipeline.Run(r.Context(), graphsmith.Request{
		Text:     body.Request,
		Existing: body.Existing,
		Progress: events,
	})
	close(events)
	<-done

	if err != nil {
		writeSSE(w, flusher, "error", map[string]string{"error": err.Error()})
		return
	}
	writeSSE(w, flusher, "result", map[string]any{
		"runId":    result.RunID,
		"workflow": result.Workflow,
		"usage":    result.Usage,
	})
}

func (s *server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, "run history is not enabled")
		return
	}
	limit := 50
	if q := r.URL.Query().Get("limit"); q != "" {
		fmt.Sscanf(q, "%d", &limit)
	}
	records, err := s.store.List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": records})
}

func (s *server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, "run history is not enabled")
		return
	}
	rec, err := s.store.Get(chi.URLParam(r, "runID"))
	if err == history.ErrNotFound {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func statusFor(err error) int {
	if err == graphsmith.ErrEmptyRequest {
		return http.StatusBadRequest
	}
	return http.StatusUnprocessableEntity
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeSSE(w http.ResponseWriter, flusher http.Flusher, event string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	flusher.Flush()
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
}
