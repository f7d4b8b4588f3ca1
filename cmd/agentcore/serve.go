package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/agentcore/core/internal/config"
	"github.com/agentcore/core/internal/session"
)

// buildServeCmd exposes task submission/status/cancel over HTTP and a
// task's event stream over WebSocket. This binding is explicitly outside
// the core's scope (§1 of the design) — it exists so the module is a
// runnable service, not as the authoritative client-facing API.
func buildServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "run a thin HTTP/WebSocket front door over the session manager",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, _, cleanup, err := buildManager(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			addr := cfg.Server.Addr
			if addr == "" {
				addr = ":8088"
			}

			router := chi.NewRouter()
			router.Post("/tasks", func(w http.ResponseWriter, r *http.Request) {
				var body struct {
					Description string `json:"description"`
				}
				if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
					http.Error(w, err.Error(), http.StatusBadRequest)
					return
				}
				taskID, err := mgr.Create(body.Description)
				if err != nil {
					http.Error(w, err.Error(), http.StatusBadRequest)
					return
				}
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(map[string]string{"task_id": taskID})
			})
			router.Get("/tasks/{id}", func(w http.ResponseWriter, r *http.Request) {
				snapshot, err := mgr.Status(chi.URLParam(r, "id"))
				if err != nil {
					http.Error(w, err.Error(), http.StatusNotFound)
					return
				}
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(snapshot)
			})
			router.Post("/tasks/{id}/cancel", func(w http.ResponseWriter, r *http.Request) {
				if err := mgr.Cancel(chi.URLParam(r, "id")); err != nil {
					http.Error(w, err.Error(), http.StatusNotFound)
					return
				}
				w.WriteHeader(http.StatusNoContent)
			})
			router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
				report := mgr.Health(r.Context())
				w.Header().Set("Content-Type", "application/json")
				if !report.IsHealthy() {
					w.WriteHeader(http.StatusServiceUnavailable)
				}
				_ = json.NewEncoder(w).Encode(report)
			})
			router.Get("/tasks/{id}/events", func(w http.ResponseWriter, r *http.Request) {
				streamTaskEvents(w, r, mgr, chi.URLParam(r, "id"))
			})

			cmd.Printf("agentcore serve listening on %s\n", addr)
			server := &http.Server{Addr: addr, Handler: router}
			return server.ListenAndServe()
		},
	}
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// streamTaskEvents upgrades the connection and forwards taskID's event
// stream until the client disconnects or the task's stream closes.
func streamTaskEvents(w http.ResponseWriter, r *http.Request, mgr *session.Manager, taskID string) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	history, live, err := mgr.Attach(taskID)
	if err != nil {
		_ = conn.WriteJSON(map[string]string{"error": err.Error()})
		return
	}
	for _, e := range history {
		if err := conn.WriteJSON(e); err != nil {
			return
		}
	}
	for e := range live {
		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(e); err != nil {
			return
		}
	}
}
