// Package api serves dataset samples over HTTP.
//
// Samples are regenerated on demand from their index, so a seeded server
// returns exactly what `spatialbench generate` writes for the same options.
//
// Routes:
//
//	GET /healthz
//	GET /v1/settings
//	GET /v1/{mode}/samples/{index}              record and ground truth as JSON
//	GET /v1/{mode}/samples/{index}/image.png    rendered image
//	GET /v1/{mode}/samples/{index}/image.svg
//	GET /v1/{mode}/samples/{index}/prompt       question text (?setting=rel_imgVp_aP)
//
// The query parameters seed and seeding override the server defaults.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/spatialbench/pkg/bench"
	"github.com/matzehuels/spatialbench/pkg/buildinfo"
	"github.com/matzehuels/spatialbench/pkg/errors"
	"github.com/matzehuels/spatialbench/pkg/pipeline"
	"github.com/matzehuels/spatialbench/pkg/record"
	"github.com/matzehuels/spatialbench/pkg/relation"
	"github.com/matzehuels/spatialbench/pkg/render"
	"github.com/matzehuels/spatialbench/pkg/sink"
)

// MaxIndex bounds the sample index accepted by the API.
const MaxIndex = 1 << 20

// Config configures a Server.
type Config struct {
	// Options are the generation defaults. Mode and Format are set per request.
	Options pipeline.Options
	// Render options applied to every image.
	Render []render.Option
	Logger *log.Logger
}

// Server serves samples.
type Server struct {
	cfg    Config
	logger *log.Logger
	router chi.Router
}

// New validates the generation defaults and builds the router.
func New(cfg Config) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	check := cfg.Options
	check.Logger = logger
	if err := check.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	s := &Server{cfg: cfg, logger: logger}
	s.router = s.routes()
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.health)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/settings", s.settings)
		r.Route("/{mode}/samples/{index}", func(r chi.Router) {
			r.Get("/", s.sample)
			r.Get("/prompt", s.prompt)
			for _, f := range render.Formats {
				r.Get("/image."+f.Ext(), s.image(f))
			}
		})
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status string         `json:"status"`
		Build  buildinfo.Info `json:"build"`
	}{"ok", buildinfo.Get()})
}

func (s *Server) settings(w http.ResponseWriter, r *http.Request) {
	names := make([]string, len(bench.StandardSuite))
	for i, st := range bench.StandardSuite {
		names[i] = st.String()
	}
	writeJSON(w, http.StatusOK, map[string]any{"settings": names})
}

type sampleResponse struct {
	Mode   string        `json:"mode"`
	Index  int           `json:"index"`
	Seed   *uint64       `json:"seed,omitempty"`
	Record record.Record `json:"record"`
	Truth  record.Truth  `json:"truth"`
	Image  string        `json:"image"`
}

func (s *Server) sample(w http.ResponseWriter, r *http.Request) {
	opts, index, err := s.request(r, render.PNG)
	if err != nil {
		writeError(w, err)
		return
	}
	it, err := s.generate(opts, index)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := sampleResponse{
		Mode:   opts.Mode.String(),
		Index:  index,
		Record: it.Record,
		Truth:  it.Truth(),
		Image:  fmt.Sprintf("/v1/%s/samples/%d/image.png", opts.Mode, index),
	}
	if !opts.Unseeded {
		seed := opts.BaseSeed() + uint64(index)
		resp.Seed = &seed
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) prompt(w http.ResponseWriter, r *http.Request) {
	opts, index, err := s.request(r, render.PNG)
	if err != nil {
		writeError(w, err)
		return
	}
	setting := bench.Setting{Mode: opts.Mode, Variant: record.Symbolic}
	if name := r.URL.Query().Get("setting"); name != "" {
		if setting, err = bench.ParseSetting(name); err != nil {
			writeError(w, err)
			return
		}
		if setting.Mode != opts.Mode {
			writeError(w, errors.New(errors.ErrCodeInvalidInput,
				"setting %s does not apply to %s samples", setting, opts.Mode))
			return
		}
	}
	it, err := s.generate(opts, index)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(setting.Prompt(it.Record)))
}

func (s *Server) image(f render.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts, index, err := s.request(r, f)
		if err != nil {
			writeError(w, err)
			return
		}
		it, err := s.generate(opts, index)
		if err != nil {
			writeError(w, err)
			return
		}
		data, err := render.Render(it.Scene, f, s.cfg.Render...)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", f.ContentType())
		if !opts.Unseeded {
			w.Header().Set("Cache-Control", "public, max-age=86400")
		}
		_, _ = w.Write(data)
	}
}

// request resolves the generation options and index of a sample route.
func (s *Server) request(r *http.Request, f render.Format) (pipeline.Options, int, error) {
	mode, err := relation.ParseMode(chi.URLParam(r, "mode"))
	if err != nil {
		return pipeline.Options{}, 0, err
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 || index >= MaxIndex {
		return pipeline.Options{}, 0, errors.New(errors.ErrCodeInvalidInput,
			"sample index must be an integer in [0, %d), got %q", MaxIndex, chi.URLParam(r, "index"))
	}

	opts := s.cfg.Options
	opts.Mode = mode
	opts.Format = f
	opts.Count = max(opts.Count, index+1)

	q := r.URL.Query()
	if v := q.Get("seed"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return pipeline.Options{}, 0, errors.New(errors.ErrCodeInvalidInput, "invalid seed %q", v)
		}
		opts.Seed = &seed
		opts.Unseeded = false
	}
	if v := q.Get("seeding"); v != "" {
		opts.Seeding = pipeline.Seeding(v)
	}
	opts.Logger = s.logger
	opts.SetDefaults()
	return opts, index, nil
}

func (s *Server) generate(opts pipeline.Options, index int) (pipeline.Item, error) {
	runner := pipeline.NewRunner(sink.Discard{F: opts.Format}, s.logger)
	return runner.Sample(opts, index)
}

// =============================================================================
// Responses
// =============================================================================

type errorBody struct {
	Error struct {
		Code    errors.Code `json:"code"`
		Message string      `json:"message"`
	} `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	var body errorBody
	body.Error.Code = errors.GetCode(err)
	body.Error.Message = errors.UserMessage(err)
	if body.Error.Code == "" {
		body.Error.Code = errors.ErrCodeInternal
	}
	writeJSON(w, statusFor(body.Error.Code), body)
}

func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidConfig, errors.ErrCodeInvalidMode,
		errors.ErrCodeInvalidRelation, errors.ErrCodeInvalidFormat:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeCapacityExceeded, errors.ErrCodeRetryExhausted:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
