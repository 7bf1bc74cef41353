package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/encodeous/rankd/perf"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewDiagHandler exposes the read-only snapshot and the metrics of a manager
func NewDiagHandler(m *Manager) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /neighbours", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		err := json.NewEncoder(w).Encode(m.Snapshot())
		if err != nil {
			m.Env.Log.Debug("failed to write snapshot", "error", err)
		}
	})
	mux.Handle("/metrics", promhttp.Handler())
	perf.Register(mux)
	return mux
}

// ServeDiag serves h on bind until ctx is cancelled
func ServeDiag(ctx context.Context, bind string, h http.Handler) error {
	srv := &http.Server{
		Addr:              bind,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errs := make(chan error, 1)
	go func() {
		errs <- srv.ListenAndServe()
	}()
	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		<-errs
		return err
	}
}

// FetchSnapshot reads the snapshot of a running rankd through its diagnostics listener
func FetchSnapshot(ctx context.Context, bind string) (*Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("http://%s/neighbours", bind), nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("unexpected status: " + resp.Status)
	}
	var snap Snapshot
	err = json.NewDecoder(resp.Body).Decode(&snap)
	if err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snap, nil
}
