// Package api exposes a seeding run over HTTP so a web form can trigger it.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/doc-seeding/internal/config"
	"github.com/doc-seeding/internal/docstore"
	"github.com/doc-seeding/internal/runner"
)

const maxBodySize = 1 << 20

// OpenFunc opens the document store for a run.
type OpenFunc func(ctx context.Context, cfg config.Config, logger *slog.Logger) (docstore.Client, error)

// Deps configures the handler.
type Deps struct {
	Open   OpenFunc
	Tuning config.Tuning
	Logger *slog.Logger
	// RunOptions are passed to every run (used by tests).
	RunOptions []runner.Option
}

// GenerateRequest mirrors the web form fields.
type GenerateRequest struct {
	APIEndpoint  string      `json:"apiEndpoint"`
	ProjectID    string      `json:"projectId"`
	APIKey       string      `json:"apiKey"`
	DatabaseID   string      `json:"databaseId"`
	CollectionID string      `json:"collectionId"`
	RecordAmount json.Number `json:"recordAmount"`
	Threading    string      `json:"threading"`
}

// args returns the request as the CLI's positional arguments.
func (r GenerateRequest) args() []string {
	return []string{
		r.APIEndpoint, r.ProjectID, r.APIKey, r.DatabaseID, r.CollectionID,
		r.RecordAmount.String(), r.Threading,
	}
}

// GenerateResponse carries the run's log output.
type GenerateResponse struct {
	Output string `json:"output"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// NewHandler returns the router serving POST /api/generate.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, messageResponse{Message: "Method not allowed"})
	})
	r.Post("/api/generate", handleGenerate(deps))
	return r
}

func handleGenerate(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := decodeRequest(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, messageResponse{Message: err.Error()})
			return
		}
		cfg, err := config.FromArgs(req.args(), deps.Tuning)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, messageResponse{Message: err.Error()})
			return
		}

		var out bytes.Buffer
		runLogger := slog.New(slog.NewTextHandler(&out, nil))
		deps.Logger.Info("Generate request", "records", cfg.RecordCount, "level", cfg.LevelName)

		client, err := deps.Open(r.Context(), cfg, runLogger)
		if err != nil {
			runLogger.Error("Failed to open document store", "error", err)
			writeJSON(w, http.StatusOK, GenerateResponse{Output: out.String()})
			return
		}
		defer client.Close()

		res := runner.Run(r.Context(), cfg, client, runLogger, deps.RunOptions...)
		deps.Logger.Info("Generate finished", "inserted", len(res.Inserted), "verified", res.Verified)
		writeJSON(w, http.StatusOK, GenerateResponse{Output: out.String()})
	}
}

func decodeRequest(r *http.Request) (GenerateRequest, error) {
	var req GenerateRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		return req, fmt.Errorf("invalid JSON body: %w", err)
	}
	// Form posts send recordAmount as a string; json.Number accepts both.
	if _, err := strconv.Atoi(req.RecordAmount.String()); err != nil {
		return req, errors.New("recordAmount must be an integer")
	}
	fields := []struct{ name, value string }{
		{"apiEndpoint", req.APIEndpoint},
		{"projectId", req.ProjectID},
		{"databaseId", req.DatabaseID},
		{"collectionId", req.CollectionID},
		{"threading", req.Threading},
	}
	var missing []string
	for _, f := range fields {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return req, fmt.Errorf("missing fields: %s", strings.Join(missing, ", "))
	}
	return req, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
