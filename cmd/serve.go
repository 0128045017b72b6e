package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quotewell/placement-cli/internal/model"
	"github.com/quotewell/placement-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the placement matching API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		engine, err := initEngine(st)
		if err != nil {
			return err
		}

		mux := http.NewServeMux()

		mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		mux.HandleFunc("POST /match", func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Risk  model.RiskProfile `json:"risk"`
				State string            `json:"state"`
				Lines []string          `json:"lines"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}

			state := req.State
			if state == "" {
				state = req.Risk.State
			}
			lines := req.Lines
			if len(lines) == 0 {
				lines = req.Risk.Lines
			}

			matches, err := engine.Match(r.Context(), &req.Risk, state, lines)
			if err != nil {
				zap.L().Error("match request failed", zap.Error(err))
				writeError(w, http.StatusUnprocessableEntity, eris.Cause(err).Error())
				return
			}

			writeJSON(w, http.StatusOK, map[string]any{
				"state":   state,
				"lines":   lines,
				"matches": matches,
			})
		})

		mux.HandleFunc("GET /market", func(w http.ResponseWriter, r *http.Request) {
			state := r.URL.Query().Get("state")
			line := r.URL.Query().Get("line")
			if state == "" || line == "" {
				writeError(w, http.StatusBadRequest, "state and line are required")
				return
			}

			mi, err := engine.MarketOverview(r.Context(), state, line)
			if err != nil {
				zap.L().Error("market request failed", zap.Error(err))
				writeError(w, http.StatusInternalServerError, "market overview failed")
				return
			}
			if mi == nil {
				writeJSON(w, http.StatusOK, map[string]any{
					"state": state,
					"line":  line,
					"data":  nil,
				})
				return
			}
			writeJSON(w, http.StatusOK, mi)
		})

		mux.HandleFunc("GET /signals", func(w http.ResponseWriter, r *http.Request) {
			carrierID, err := parseCarrierID(r.URL.Query().Get("carrier_id"))
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid carrier_id")
				return
			}
			state := r.URL.Query().Get("state")
			line := r.URL.Query().Get("line")
			if state == "" || line == "" {
				writeError(w, http.StatusBadRequest, "state and line are required")
				return
			}

			lookback := cfg.Match.SignalLookbackDays
			if lookback <= 0 {
				lookback = store.DefaultSignalLookbackDays
			}
			signals, err := st.LoadRecentSignals(r.Context(), carrierID, state, line, lookback)
			if err != nil {
				zap.L().Error("signals request failed", zap.Error(err))
				writeError(w, http.StatusInternalServerError, "load signals failed")
				return
			}
			if signals == nil {
				signals = []model.AppetiteSignal{}
			}
			writeJSON(w, http.StatusOK, signals)
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
