// Package api exposes the normalization pipeline over HTTP: multipart
// uploads in, result bundles and rendered exports out. Job outputs live in
// a TTL cache; nothing here persists across restarts.
package api

import (
	"bytes"
	"fmt"
	"log/slog"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/insightdelivered/statement-normalizer/internal/license"
	"github.com/insightdelivered/statement-normalizer/internal/models"
	"github.com/insightdelivered/statement-normalizer/internal/pipeline"
	"github.com/insightdelivered/statement-normalizer/internal/writer"
)

// Job bundles the outputs produced for one upload batch.
type Job struct {
	ID      string
	Created time.Time
	Bundles []models.ResultBundle
	// Files maps output filename to rendered bytes (CSV/XLSX).
	Files map[string][]byte
}

// BundleResult is the per-statement slice of the extract response.
type BundleResult struct {
	JobID   string               `json:"jobId"`
	Meta    models.StatementMeta `json:"meta"`
	Summary models.Summary       `json:"summary"`
	CSV     string               `json:"csv"`
	XLSX    string               `json:"xlsx"`
}

// Server wires the pipeline and the access gate into fiber handlers.
type Server struct {
	Pipeline  *pipeline.Pipeline
	Verifier  *license.Verifier
	Log       *slog.Logger
	MaxUpload int64

	jobs *gocache.Cache
}

// NewServer builds a server whose job outputs expire after ttl.
func NewServer(p *pipeline.Pipeline, v *license.Verifier, log *slog.Logger, ttl time.Duration, maxUpload int64) *Server {
	return &Server{
		Pipeline:  p,
		Verifier:  v,
		Log:       log,
		MaxUpload: maxUpload,
		jobs:      gocache.New(ttl, ttl/2),
	}
}

// App assembles the fiber application with all routes registered.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit: int(s.MaxUpload),
	})
	app.Get("/api/health", s.HandleHealth)
	app.Post("/api/extract", s.RequireLicense, s.HandleExtract)
	app.Get("/api/jobs/:id", s.RequireLicense, s.HandleJob)
	app.Get("/download/:job/:file", s.RequireLicense, s.HandleDownload)
	return app
}

// RequireLicense rejects requests without a valid X-License token.
func (s *Server) RequireLicense(c *fiber.Ctx) error {
	if s.Verifier == nil || s.Verifier.Verify(c.Get("X-License")) {
		return c.Next()
	}
	return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{
		"error": "Valid license required",
	})
}

// HandleHealth reports liveness.
func (s *Server) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok", "engine": "fiber"})
}

// HandleExtract accepts one or more uploaded statements, runs the pipeline
// over them, renders CSV and XLSX outputs, and returns the bundles plus
// download links under a fresh job id.
func (s *Server) HandleExtract(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("failed to parse form: %v", err),
		})
	}
	uploads := form.File["files"]
	if len(uploads) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "no files uploaded; use form field 'files'",
		})
	}

	tmpDir, err := os.MkdirTemp("", "statements-*")
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to stage uploads",
		})
	}
	defer os.RemoveAll(tmpDir)

	paths, err := s.saveUploads(c, tmpDir, uploads)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	bundles, err := s.Pipeline.ProcessFiles(c.Context(), paths)
	if err != nil {
		// The only pipeline-level failure is an unreadable document.
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	job := &Job{
		ID:      uuid.NewString(),
		Created: time.Now(),
		Bundles: bundles,
		Files:   make(map[string][]byte),
	}
	results := make([]BundleResult, 0, len(bundles))
	for i, bundle := range bundles {
		csvName := fmt.Sprintf("bundle_%d.csv", i)
		xlsxName := fmt.Sprintf("bundle_%d.xlsx", i)

		var csvBuf bytes.Buffer
		cw := &writer.CSVWriter{IncludeMeta: true}
		if err := cw.Write(&csvBuf, bundle); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		job.Files[csvName] = csvBuf.Bytes()

		var xlsxBuf bytes.Buffer
		xw := &writer.XLSXWriter{}
		if err := xw.Write(&xlsxBuf, bundle); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		job.Files[xlsxName] = xlsxBuf.Bytes()

		results = append(results, BundleResult{
			JobID:   job.ID,
			Meta:    bundle.Meta,
			Summary: bundle.Summary,
			CSV:     fmt.Sprintf("/download/%s/%s", job.ID, csvName),
			XLSX:    fmt.Sprintf("/download/%s/%s", job.ID, xlsxName),
		})
	}
	s.jobs.SetDefault(job.ID, job)

	s.Log.Info("extract job complete", "job", job.ID, "statements", len(bundles))
	return c.JSON(results)
}

// HandleJob lists the output files of a job.
func (s *Server) HandleJob(c *fiber.Ctx) error {
	job, ok := s.lookupJob(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "job not found"})
	}
	files := make([]string, 0, len(job.Files))
	for name := range job.Files {
		files = append(files, name)
	}
	return c.JSON(fiber.Map{"jobId": job.ID, "files": files})
}

// HandleDownload streams one rendered output file.
func (s *Server) HandleDownload(c *fiber.Ctx) error {
	job, ok := s.lookupJob(c.Params("job"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "job not found"})
	}
	name := c.Params("file")
	data, ok := job.Files[name]
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "file not found"})
	}
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	if filepath.Ext(name) == ".csv" {
		c.Set(fiber.HeaderContentType, "text/csv")
	} else {
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	}
	return c.Send(data)
}

func (s *Server) lookupJob(id string) (*Job, bool) {
	v, ok := s.jobs.Get(id)
	if !ok {
		return nil, false
	}
	job, ok := v.(*Job)
	return job, ok
}

func (s *Server) saveUploads(c *fiber.Ctx, dir string, uploads []*multipart.FileHeader) ([]string, error) {
	paths := make([]string, 0, len(uploads))
	for _, upload := range uploads {
		name := filepath.Base(upload.Filename)
		if name == "" || name == "." {
			return nil, fmt.Errorf("upload has no filename")
		}
		dest := filepath.Join(dir, name)
		if err := c.SaveFile(upload, dest); err != nil {
			return nil, fmt.Errorf("failed to save %s: %w", name, err)
		}
		paths = append(paths, dest)
	}
	return paths, nil
}
