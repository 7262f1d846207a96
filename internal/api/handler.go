package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"musicfestival/m/domain"
	"musicfestival/m/internal/auth"
	"musicfestival/m/internal/band"
)

type ctxKey string

const (
	ctxSubject ctxKey = "subject"
	ctxRole    ctxKey = "role"
)

// defaultRole is the tag assigned to newly registered users.
const defaultRole = "Dev"

const defaultPageSize = 10

// PasswordHasher hashes and verifies stored credentials.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) auth.Verification
}

// TokenIssuer mints signed bearer tokens for authenticated users.
type TokenIssuer interface {
	Issue(subject, role string) (string, time.Time, error)
}

// TokenValidator checks bearer tokens presented by clients.
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// BandStore is the persistence surface the band handlers need.
type BandStore interface {
	GetByID(ctx context.Context, id int) (*domain.Band, error)
	Create(ctx context.Context, b *domain.Band) error
	Update(ctx context.Context, b *domain.Band) error
	Delete(ctx context.Context, id int) error
	List(ctx context.Context, spec band.FilterSpec) (*band.Page, error)
}

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	db       *sqlx.DB
	bands    BandStore
	hasher   PasswordHasher
	issuer   TokenIssuer
	verifier TokenValidator
	validate *validator.Validate
	log      *logrus.Logger
	devMode  bool
}

// New constructs a Handler. In dev mode internal errors carry their cause
// in the response body; otherwise callers get a generic message only.
func New(db *sqlx.DB, bands BandStore, hasher PasswordHasher, issuer TokenIssuer, verifier TokenValidator, log *logrus.Logger, devMode bool) *Handler {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Handler{
		db:       db,
		bands:    bands,
		hasher:   hasher,
		issuer:   issuer,
		verifier: verifier,
		validate: validate,
		log:      log,
		devMode:  devMode,
	}
}

// Router wires up the HTTP API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.register)
			r.Post("/login", h.login)
		})

		r.Route("/bands", func(r chi.Router) {
			r.Get("/", h.listBands)
			r.Get("/{id}", h.getBand)
			r.Group(func(protected chi.Router) {
				protected.Use(h.authMiddleware)
				protected.Post("/", h.createBand)
				protected.Put("/{id}", h.updateBand)
				protected.Delete("/{id}", h.deleteBand)
			})
		})
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Middleware

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.log.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"duration":   time.Since(start).String(),
			"request_id": middleware.GetReqID(r.Context()),
		}).Info("request completed")
	})
}

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		tokenString := strings.TrimSpace(header[len("Bearer "):])
		claims, err := h.verifier.Validate(tokenString)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		ctx := context.WithValue(r.Context(), ctxSubject, claims.Subject)
		ctx = context.WithValue(ctx, ctxRole, claims.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Auth handlers

type registerRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if errs := h.checkStruct(req); errs != nil {
		respondValidation(w, errs)
		return
	}

	// Best-effort pre-check; the UNIQUE constraint on the insert below is
	// the final arbiter under concurrent registrations.
	var existing int
	if err := h.db.GetContext(r.Context(), &existing, `SELECT COUNT(*) FROM users WHERE username = $1`, req.Username); err != nil {
		h.internalError(w, err, "unable to register user")
		return
	}
	if existing > 0 {
		respondError(w, http.StatusConflict, "username already exists")
		return
	}

	hash, err := h.hasher.Hash(req.Password)
	if err != nil {
		h.internalError(w, err, "unable to secure password")
		return
	}

	if _, err := h.db.ExecContext(r.Context(), `INSERT INTO users (username, password_hash, role) VALUES ($1, $2, $3)`,
		req.Username, hash, defaultRole); err != nil {
		if isUniqueViolation(err) {
			respondError(w, http.StatusConflict, "username already exists")
			return
		}
		h.internalError(w, err, "unable to register user")
		return
	}

	h.log.WithField("username", req.Username).Info("user registered")
	respondJSON(w, http.StatusCreated, map[string]string{"status": "created"})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token        string `json:"token"`
	ExpiresAtUtc string `json:"expiresAtUtc"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Unknown username and wrong password must be indistinguishable.
	var user domain.User
	err := h.db.GetContext(r.Context(), &user, `SELECT id, username, password_hash, role FROM users WHERE username = $1`, req.Username)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	verification := h.hasher.Verify(user.PasswordHash, req.Password)
	if !verification.Match {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if verification.Stale {
		h.log.WithField("username", user.Username).Info("password hash uses outdated parameters")
	}

	token, expiresAt, err := h.issuer.Issue(user.Username, user.Role)
	if err != nil {
		h.internalError(w, err, "unable to generate token")
		return
	}

	h.log.WithField("username", user.Username).Info("user logged in")
	respondJSON(w, http.StatusOK, loginResponse{
		Token:        token,
		ExpiresAtUtc: expiresAt.UTC().Format(time.RFC3339),
	})
}

// Band handlers

type bandRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Genre       string `json:"genre" validate:"max=100"`
	Stage       string `json:"stage" validate:"max=100"`
	ScheduledAt string `json:"scheduledAt"`
}

// checkBand validates the payload and builds the band record. A non-empty
// scheduledAt must parse; list-side date filters are lenient but writes are
// not.
func (h *Handler) checkBand(req bandRequest) (*domain.Band, map[string][]string) {
	errs := h.checkStruct(req)

	var scheduledAt *string
	if strings.TrimSpace(req.ScheduledAt) != "" {
		normalized, ok := band.ParseSchedule(req.ScheduledAt)
		if !ok {
			if errs == nil {
				errs = map[string][]string{}
			}
			errs["scheduledAt"] = append(errs["scheduledAt"], "scheduledAt must be a valid date/time.")
		} else {
			scheduledAt = &normalized
		}
	}
	if errs != nil {
		return nil, errs
	}

	return &domain.Band{
		Name:        req.Name,
		Genre:       nullIfEmpty(req.Genre),
		Stage:       nullIfEmpty(req.Stage),
		ScheduledAt: scheduledAt,
	}, nil
}

func (h *Handler) listBands(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := band.ListParams{
		Genre:    q.Get("genre"),
		Stage:    q.Get("stage"),
		DateFrom: q.Get("dateFrom"),
		DateTo:   q.Get("dateTo"),
		SortBy:   "date",
		Page:     intQuery(q.Get("page"), 1),
		PageSize: intQuery(q.Get("pageSize"), defaultPageSize),
	}
	if q.Has("sortBy") {
		params.SortBy = q.Get("sortBy")
	}

	page, err := h.bands.List(r.Context(), band.Normalize(params))
	if err != nil {
		h.internalError(w, err, "unable to list bands")
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *Handler) getBand(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid band id")
		return
	}
	b, err := h.bands.GetByID(r.Context(), id)
	if errors.Is(err, band.ErrNotFound) {
		respondError(w, http.StatusNotFound, "band not found")
		return
	}
	if err != nil {
		h.internalError(w, err, "unable to fetch band")
		return
	}
	respondJSON(w, http.StatusOK, b.Read())
}

func (h *Handler) createBand(w http.ResponseWriter, r *http.Request) {
	var req bandRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	b, errs := h.checkBand(req)
	if errs != nil {
		respondValidation(w, errs)
		return
	}
	if err := h.bands.Create(r.Context(), b); err != nil {
		h.internalError(w, err, "unable to create band")
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/api/bands/%d", b.ID))
	respondJSON(w, http.StatusCreated, b.Read())
}

func (h *Handler) updateBand(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid band id")
		return
	}
	var req bandRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	b, errs := h.checkBand(req)
	if errs != nil {
		respondValidation(w, errs)
		return
	}
	b.ID = id
	if err := h.bands.Update(r.Context(), b); err != nil {
		if errors.Is(err, band.ErrNotFound) {
			respondError(w, http.StatusNotFound, "band not found")
			return
		}
		h.internalError(w, err, "unable to update band")
		return
	}
	respondJSON(w, http.StatusOK, b.Read())
}

func (h *Handler) deleteBand(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid band id")
		return
	}
	if err := h.bands.Delete(r.Context(), id); err != nil {
		if errors.Is(err, band.ErrNotFound) {
			respondError(w, http.StatusNotFound, "band not found")
			return
		}
		h.internalError(w, err, "unable to delete band")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Helpers

// checkStruct runs validator tags and flattens failures into a field-keyed
// message map.
func (h *Handler) checkStruct(v interface{}) map[string][]string {
	err := h.validate.Struct(v)
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return map[string][]string{"request": {err.Error()}}
	}
	errs := map[string][]string{}
	for _, fieldErr := range validationErrs {
		field := fieldErr.Field()
		var msg string
		switch fieldErr.Tag() {
		case "required":
			msg = fmt.Sprintf("%s is required.", field)
		case "max":
			msg = fmt.Sprintf("%s can't be longer than %s characters.", field, fieldErr.Param())
		default:
			msg = fmt.Sprintf("%s is invalid.", field)
		}
		errs[field] = append(errs[field], msg)
	}
	return errs
}

func (h *Handler) internalError(w http.ResponseWriter, err error, message string) {
	h.log.WithError(err).Error(message)
	if h.devMode {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("%s: %v", message, err))
		return
	}
	respondError(w, http.StatusInternalServerError, message)
}

// isUniqueViolation detects the SQLite unique-constraint error by message;
// the modernc driver exposes no typed constraint error.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func intQuery(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func nullIfEmpty(val string) *string {
	trimmed := strings.TrimSpace(val)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func decodeJSON(r *http.Request, dest interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func respondValidation(w http.ResponseWriter, errs map[string][]string) {
	respondJSON(w, http.StatusBadRequest, map[string]interface{}{"errors": errs})
}
