package server

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/forensight/forensight/internal/forensics"
	"github.com/forensight/forensight/internal/index"
	"github.com/forensight/forensight/internal/progress"
	"github.com/forensight/forensight/internal/storage"
	"github.com/forensight/forensight/internal/store"
)

// VerifyHandler exposes the single-file and multi-file verification
// pipelines over HTTP.
type VerifyHandler struct {
	Orch    *forensics.Orchestrator
	Uploads *storage.Uploads
	Tracker *progress.Tracker
	Store   *store.Store
	Index   *index.Index
	Logger  *log.Logger
}

func (h *VerifyHandler) Register(api *echo.Group) {
	api.POST("/verify", h.verify)
	api.POST("/sessions", h.createSession)
	api.GET("/sessions/:id/status", h.sessionStatus)
	api.GET("/cases/:id", h.getCase)
	api.GET("/cases", h.listCases)
	api.GET("/evidence/search", h.searchEvidence)
}

// verify runs the single-file pipeline and returns the stamped report.
func (h *VerifyHandler) verify(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	src, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	defer src.Close()

	sessionID := uuid.NewString()
	path, err := h.Uploads.Save(sessionID, fh.Filename, src)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	report, err := h.Orch.VerifyFile(c.Request().Context(), path)
	if err != nil {
		if errors.Is(err, forensics.ErrUnsupportedFile) {
			return echo.NewHTTPError(http.StatusBadRequest, "unsupported file type")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, report)
}

// createSession runs the multi-file pipeline synchronously and returns the
// stamped final bundle. Progress snapshots are mirrored for status polling
// while the request is in flight.
func (h *VerifyHandler) createSession(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	uploads := form.File["files"]
	if len(uploads) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "at least one file is required")
	}
	instructions := c.FormValue("instructions")

	sessionID := uuid.NewString()
	req := forensics.SessionRequest{SessionID: sessionID, Instructions: instructions}
	for _, fh := range uploads {
		src, err := fh.Open()
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		path, err := h.Uploads.Save(sessionID, fh.Filename, src)
		src.Close()
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		req.Paths = append(req.Paths, path)
		req.Files = append(req.Files, forensics.FileMeta{
			Filename: fh.Filename,
			URL:      h.Uploads.URL(sessionID, fh.Filename),
		})
	}

	bundle, err := h.Orch.ProcessSession(c.Request().Context(), req)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if userID, ok := c.Get("user_id").(string); ok && userID != "" && h.Store != nil {
		if err := h.Store.SetCaseUser(c.Request().Context(), sessionID, userID); err != nil {
			h.Logger.Printf("attaching user %s to case %s failed: %v", userID, sessionID, err)
		}
	}
	return c.JSON(http.StatusOK, bundle)
}

func (h *VerifyHandler) sessionStatus(c echo.Context) error {
	if h.Tracker == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "status tracking not configured")
	}
	status, err := h.Tracker.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, progress.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "session not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, status)
}

func (h *VerifyHandler) getCase(c echo.Context) error {
	rec, ok, err := h.Store.GetCase(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "case not found")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"id":         rec.ID,
		"files":      rec.Files,
		"report":     rec.Report,
		"created_at": rec.CreatedAt,
	})
}

func (h *VerifyHandler) listCases(c echo.Context) error {
	userID, _ := c.Get("user_id").(string)
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	cases, err := h.Store.ListCases(c.Request().Context(), userID, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	out := make([]map[string]interface{}, 0, len(cases))
	for _, rec := range cases {
		out = append(out, map[string]interface{}{
			"id":         rec.ID,
			"files":      rec.Files,
			"created_at": rec.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, out)
}

func (h *VerifyHandler) searchEvidence(c echo.Context) error {
	if h.Index == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "evidence search not configured")
	}
	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q is required")
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	hits, err := h.Index.Search(c.Request().Context(), q, c.QueryParam("case_id"), limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, SearchResponse{Query: q, Hits: hits})
}
