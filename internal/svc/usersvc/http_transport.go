package usersvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mkrupp/homecase-users/internal/domain"
	"github.com/mkrupp/homecase-users/internal/infra/logging"
	http_ "github.com/mkrupp/homecase-users/internal/infra/transport/http"
)

// Error codes reported by the user endpoints.
const (
	CodeInvalidUserID         = "INVALID_USER_ID"
	CodeUserNotFound          = "USER_NOT_FOUND"
	CodeMissingRequiredFields = "MISSING_REQUIRED_FIELDS"
	CodeInvalidEmailFormat    = "INVALID_EMAIL_FORMAT"
	CodeUserCreationFailed    = "USER_CREATION_FAILED"
	CodeInvalidRequestBody    = "INVALID_REQUEST_BODY"
)

var (
	// ErrInvalidUserID is returned when the id path parameter is not a positive integer.
	ErrInvalidUserID = errors.New("invalid user id")
	// ErrMissingFields is returned when username or email is missing from the request.
	ErrMissingFields = errors.New("missing required fields")
	// ErrInvalidEmail is returned when the email does not look like an address.
	ErrInvalidEmail = errors.New("invalid email format")
	// ErrInvalidBody is returned when the request body is not a JSON object.
	ErrInvalidBody = errors.New("invalid request body")
)

// HTTPTransportConfig contains configuration parameters for the HTTP transport layer.
type HTTPTransportConfig struct {
	http_.HTTPTransportConfig

	// MaxBodyBytes caps the size of request bodies
	MaxBodyBytes int64 `env:"HTTP_MAX_BODY_BYTES" envDefault:"1048576"`
}

// CreateUserRequest is the JSON body of POST /users.
type CreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// HealthResponse is the JSON body of the liveness and readiness probes.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp,omitempty"`
}

// HTTPTransport handles HTTP requests for the user service.
type HTTPTransport struct {
	userSvc Service
	log     logging.Logger
	cfg     HTTPTransportConfig
	router  chi.Router
	now     func() time.Time
}

var _ http_.HTTPTransport = (*HTTPTransport)(nil)

// NewHTTPTransport creates a new HTTPTransport serving the following routes:
// - GET /health: liveness probe
// - GET /ready: readiness probe, pings storage
// - GET /users/{id}: fetch a user
// - POST /users: create a user.
func NewHTTPTransport(userSvc Service, cfg HTTPTransportConfig) *HTTPTransport {
	ht := &HTTPTransport{
		userSvc: userSvc,
		log:     logging.GetLogger("svc.usersvc.http_transport"),
		cfg:     cfg,
		now:     time.Now,
	}

	router := chi.NewRouter()
	router.NotFound(http_.NotFoundHandler)
	router.MethodNotAllowed(http_.MethodNotAllowedHandler)

	router.Get("/health", ht.HandleHealth)
	router.Get("/ready", ht.HandleReady)
	router.Post("/users", ht.HandleCreateUser)
	router.Get("/users/{id}", ht.HandleGetUser)

	ht.router = router

	return ht
}

// ServeHTTP implements http.Handler.
func (ht *HTTPTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ht.router.ServeHTTP(w, r)
}

// HandleHealth reports liveness with the current time.
func (ht *HTTPTransport) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	_ = http_.WriteJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: ht.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	})
}

// HandleReady reports whether the storage backend is reachable.
func (ht *HTTPTransport) HandleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := ht.userSvc.Ping(ctx); err != nil {
		ht.log.WarnContext(ctx, "readiness check failed", "error", err)
		_ = http_.WriteJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable"})

		return
	}

	_ = http_.WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// HandleGetUser processes GET /users/{id}.
func (ht *HTTPTransport) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleGetUser(w, r)
}

func (ht *HTTPTransport) handleGetUser(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "get user failed", "error", err)
		} else {
			log.DebugContext(ctx, "user fetched")
		}
	}(r.Context())

	id, err := ParseUserID(chi.URLParam(r, "id"))
	if errors.Is(err, domain.ErrUserNotFound) {
		_ = http_.WriteError(w, http.StatusNotFound, "User not found", CodeUserNotFound, nil)

		return nil
	} else if err != nil {
		_ = http_.WriteError(w, http.StatusBadRequest, "Invalid user ID", CodeInvalidUserID, nil)

		return nil
	}

	log = log.With(logging.Group("user", "id", id))

	u, found, err := ht.userSvc.GetUserByID(r.Context(), id)
	if err != nil {
		_ = http_.WriteInternalError(w)

		return fmt.Errorf("get user: %w", err)
	}

	if !found {
		_ = http_.WriteError(w, http.StatusNotFound, "User not found", CodeUserNotFound, nil)

		return nil
	}

	if err := http_.WriteJSON(w, http.StatusOK, u); err != nil {
		return fmt.Errorf("write response: %w", err)
	}

	return nil
}

// HandleCreateUser processes POST /users.
// Expects a JSON body with username and email.
func (ht *HTTPTransport) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleCreateUser(w, r)
}

//nolint:funlen
func (ht *HTTPTransport) handleCreateUser(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "create user failed", "error", err)
		} else {
			log.DebugContext(ctx, "user created")
		}
	}(r.Context())

	req, err := decodeCreateUserRequest(r, ht.cfg.MaxBodyBytes)
	if err != nil {
		_ = http_.WriteError(w, http.StatusBadRequest, "Request body must be a JSON object", CodeInvalidRequestBody, nil)

		return err
	}

	if req.Username == "" || req.Email == "" {
		_ = http_.WriteError(w, http.StatusBadRequest, "Username and email are required", CodeMissingRequiredFields,
			map[string][]string{"required": {"username", "email"}})

		return nil
	}

	log = log.With(logging.Group("user", "username", req.Username, "email", req.Email))

	if !domain.IsValidEmail(req.Email) {
		_ = http_.WriteError(w, http.StatusBadRequest, "Invalid email format", CodeInvalidEmailFormat, nil)

		return nil
	}

	u, err := ht.userSvc.CreateUser(r.Context(), req.Username, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidUser) || errors.Is(err, domain.ErrUserCreationFailed) {
			_ = http_.WriteError(w, http.StatusBadRequest, "Failed to create user", CodeUserCreationFailed, nil)
		} else {
			_ = http_.WriteInternalError(w)
		}

		return fmt.Errorf("create user: %w", err)
	}

	if err := http_.WriteJSON(w, http.StatusCreated, u); err != nil {
		return fmt.Errorf("write response: %w", err)
	}

	return nil
}

func decodeCreateUserRequest(r *http.Request, maxBytes int64) (CreateUserRequest, error) {
	var req CreateUserRequest

	body := io.Reader(r.Body)
	if maxBytes > 0 {
		body = io.LimitReader(r.Body, maxBytes+1)
	}

	buf, err := io.ReadAll(body)
	if err != nil {
		return req, fmt.Errorf("%w: read: %w", ErrInvalidBody, err)
	}

	if maxBytes > 0 && int64(len(buf)) > maxBytes {
		return req, fmt.Errorf("%w: body exceeds %d bytes", ErrInvalidBody, maxBytes)
	}

	if len(buf) == 0 {
		return req, nil
	}

	if err := json.Unmarshal(buf, &req); err != nil {
		return req, fmt.Errorf("%w: %w", ErrInvalidBody, err)
	}

	return req, nil
}

// ParseUserID parses a user id path or flag value.
// Only base-10 integers greater than zero are accepted; anything else yields ErrInvalidUserID.
// A positive integer too large for int64 is a well-formed id that no user can have
// and yields domain.ErrUserNotFound.
func ParseUserID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(s, "-") {
			return 0, fmt.Errorf("%w: id %s out of range", domain.ErrUserNotFound, s)
		}

		return 0, fmt.Errorf("%w: %q", ErrInvalidUserID, s)
	}

	if id <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidUserID, s)
	}

	return id, nil
}
