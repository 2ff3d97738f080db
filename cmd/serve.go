package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/phenotype-cli/internal/model"
	"github.com/sells-group/phenotype-cli/internal/pipeline"
)

var servePort int

// extractRequest is the POST /extract body.
type extractRequest struct {
	Text      string `json:"text"`
	PatientID string `json:"patient_id"`
	NoteID    string `json:"note_id"`
	NoteDate  string `json:"note_date"`
	NoteType  string `json:"note_type"`
}

// runRequest is the POST /runs body: inline notes with their assignments.
type runRequest struct {
	Notes []struct {
		NoteID    string `json:"note_id"`
		Text      string `json:"text"`
		PatientID string `json:"patient_id"`
		NoteDate  string `json:"note_date"`
		NoteType  string `json:"note_type"`
	} `json:"notes"`
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the phenotyping HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		rec, err := newRecognizer()
		if err != nil {
			return eris.Wrap(err, "serve: build recognizer")
		}
		defer rec.Close()

		st, err := openStore(cmd)
		if err != nil {
			return eris.Wrap(err, "serve: open store")
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		p := pipeline.New(rec, cfg.Pipeline.Concurrency)
		limiter := rate.NewLimiter(rate.Limit(cfg.Server.RateLimitRPS), cfg.Server.RateLimitBurst)

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
		}))
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				if !limiter.Allow() {
					http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
					return
				}
				next.ServeHTTP(w, req)
			})
		})

		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Post("/extract", func(w http.ResponseWriter, req *http.Request) {
			var body extractRequest
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
				return
			}
			if body.Text == "" {
				http.Error(w, `{"error":"text is required"}`, http.StatusBadRequest)
				return
			}
			noteType := body.NoteType
			if noteType == "" {
				noteType = "Unknown"
			}
			record, evidence := p.ExtractNote(body.Text, pipeline.NoteMeta{
				PatientID: body.PatientID,
				NoteID:    body.NoteID,
				NoteDate:  body.NoteDate,
				NoteType:  noteType,
			})
			writeJSON(w, http.StatusOK, struct {
				Record   model.NoteRecord `json:"record"`
				Evidence []model.Evidence `json:"evidence"`
			}{record, evidence})
		})

		r.Post("/runs", func(w http.ResponseWriter, req *http.Request) {
			var body runRequest
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
				return
			}
			if len(body.Notes) == 0 {
				http.Error(w, `{"error":"notes are required"}`, http.StatusBadRequest)
				return
			}

			notes := make([]pipeline.NoteFile, 0, len(body.Notes))
			entries := make(map[string]pipeline.MappingEntry, len(body.Notes))
			for i, n := range body.Notes {
				id := n.NoteID
				if id == "" {
					id = fmt.Sprintf("note-%d", i)
				}
				notes = append(notes, pipeline.NoteFile{NoteID: id, Name: id, Text: n.Text})
				entries[id] = pipeline.MappingEntry{
					PatientID: n.PatientID,
					NoteDate:  n.NoteDate,
					NoteType:  n.NoteType,
				}
			}

			result, err := p.Run(req.Context(), notes, pipeline.NewMapping(entries))
			if err != nil {
				zap.L().Error("serve: run failed", zap.Error(err))
				http.Error(w, `{"error":"run failed"}`, http.StatusInternalServerError)
				return
			}
			if err := st.SaveRun(req.Context(), result); err != nil {
				zap.L().Error("serve: save run failed", zap.Error(err))
				http.Error(w, `{"error":"persist failed"}`, http.StatusInternalServerError)
				return
			}
			writeJSON(w, http.StatusCreated, result)
		})

		r.Get("/runs", func(w http.ResponseWriter, req *http.Request) {
			runs, err := st.ListRuns(req.Context(), 50)
			if err != nil {
				zap.L().Error("serve: list runs failed", zap.Error(err))
				http.Error(w, `{"error":"list failed"}`, http.StatusInternalServerError)
				return
			}
			writeJSON(w, http.StatusOK, runs)
		})

		r.Get("/runs/{id}/patients.csv", func(w http.ResponseWriter, req *http.Request) {
			patients, err := st.GetPatients(req.Context(), chi.URLParam(req, "id"))
			if err != nil {
				http.Error(w, `{"error":"fetch failed"}`, http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "text/csv")
			w.Header().Set("Content-Disposition", `attachment; filename="patient_phenotypes_v1.csv"`)
			if err := pipeline.WritePatientCSV(w, patients); err != nil {
				zap.L().Error("serve: write patient csv failed", zap.Error(err))
			}
		})

		r.Get("/runs/{id}/evidence.csv", func(w http.ResponseWriter, req *http.Request) {
			evidence, err := st.GetEvidence(req.Context(), chi.URLParam(req, "id"))
			if err != nil {
				http.Error(w, `{"error":"fetch failed"}`, http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "text/csv")
			w.Header().Set("Content-Disposition", `attachment; filename="extraction_evidence.csv"`)
			if err := pipeline.WriteEvidenceCSV(w, evidence); err != nil {
				zap.L().Error("serve: write evidence csv failed", zap.Error(err))
			}
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "serve: listen")
		}
		return nil
	},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
