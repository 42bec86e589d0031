package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agriflow/reporting/internal/domain/models"
	"github.com/agriflow/reporting/internal/repository/artifacts"
)

// Context keys populated by the bearer middleware.
const (
	ContextToken  = "auth_token"
	ContextUserID = "auth_user_id"
)

// Dispatcher enqueues a report job for background execution.
type Dispatcher interface {
	Enqueue(req models.ReportRequest)
}

// ReportHandler serves the report endpoints: one POST per report family that
// returns a fresh report id immediately, and one GET that either streams the
// finished PDF or answers 202 while the artifact does not exist yet.
type ReportHandler struct {
	dispatcher Dispatcher
	store      artifacts.Store
	remoteOK   bool
	logger     *zap.Logger
}

// NewReportHandler constructs the HTTP handler adapter. remoteOK mirrors the
// gatekeeper flag: when false, a POST without an uploaded graph has nothing
// to ingest and is rejected up front.
func NewReportHandler(dispatcher Dispatcher, store artifacts.Store, remoteOK bool, logger *zap.Logger) *ReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportHandler{dispatcher: dispatcher, store: store, remoteOK: remoteOK, logger: logger}
}

// CreateIrrigation queues an irrigation report.
func (h *ReportHandler) CreateIrrigation(c *gin.Context) {
	h.create(c, models.ReportIrrigation, "irrigation_id")
}

// CreateFertilization queues a fertilization report.
func (h *ReportHandler) CreateFertilization(c *gin.Context) {
	h.create(c, models.ReportFertilization, "operation_id")
}

// CreatePesticides queues a crop-protection report.
func (h *ReportHandler) CreatePesticides(c *gin.Context) {
	h.create(c, models.ReportPesticides, "operation_id")
}

// CreateCompost queues a farm-calendar composite report.
func (h *ReportHandler) CreateCompost(c *gin.Context) {
	h.create(c, models.ReportCompost, "operation_id")
}

// CreateAnimal queues an animal-records report.
func (h *ReportHandler) CreateAnimal(c *gin.Context) {
	h.create(c, models.ReportAnimals, "farm_animal_id")
}

func (h *ReportHandler) create(c *gin.Context, kind models.ReportKind, idParam string) {
	req, ok := h.buildRequest(c, kind, idParam)
	if !ok {
		return
	}

	h.dispatcher.Enqueue(req)
	h.logger.Info("report queued",
		zap.String("report_id", req.ReportID),
		zap.String("kind", string(kind)),
		zap.String("user_id", req.UserID))
	c.JSON(http.StatusOK, gin.H{"uuid": req.ReportID})
}

// buildRequest assembles one ReportRequest from the query string and the
// optional multipart graph upload. It writes the error response itself and
// returns ok=false when the input is unusable.
func (h *ReportHandler) buildRequest(c *gin.Context, kind models.ReportKind, idParam string) (models.ReportRequest, bool) {
	req := models.ReportRequest{
		ReportID:     uuid.NewString(),
		UserID:       c.GetString(ContextUserID),
		Kind:         kind,
		Token:        c.GetString(ContextToken),
		OperationID:  c.Query(idParam),
		ParcelID:     c.Query("parcel_id"),
		ActivityType: c.Query("calendar_activity_type"),
	}

	var ok bool
	if req.FromDate, ok = h.dateParam(c, "from_date"); !ok {
		return req, false
	}
	if req.ToDate, ok = h.dateParam(c, "to_date"); !ok {
		return req, false
	}

	if kind == models.ReportAnimals {
		req.Animal = models.AnimalFilters{
			Group:  c.Query("animal_group"),
			Name:   c.Query("name"),
			Parcel: c.Query("parcel"),
		}
		if raw := c.Query("status"); raw != "" {
			status, err := strconv.Atoi(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"detail": "status must be an integer"})
				return req, false
			}
			req.Animal.Status = &status
		}
	}

	upload, ok := h.uploadParam(c)
	if !ok {
		return req, false
	}
	req.Upload = upload

	if !h.remoteOK && len(req.Upload) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Remote lookup is disabled and no data file was uploaded."})
		return req, false
	}

	return req, true
}

func (h *ReportHandler) dateParam(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	parsed, err := time.Parse(models.QueryDateLayout, raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": fmt.Sprintf("%s must be an ISO date (YYYY-MM-DD)", name)})
		return nil, false
	}
	return &parsed, true
}

func (h *ReportHandler) uploadParam(c *gin.Context) ([]byte, bool) {
	header, err := c.FormFile("data")
	if err != nil {
		// No file field at all is the common remote-fetch case.
		return nil, true
	}
	file, err := header.Open()
	if err != nil {
		h.logger.Warn("failed to open uploaded graph", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"detail": "uploaded data file could not be read"})
		return nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.logger.Warn("failed to read uploaded graph", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"detail": "uploaded data file could not be read"})
		return nil, false
	}
	return data, true
}

// Download serves the finished PDF artifact. Absence only means the report
// is not ready yet; generation failures never change this signal (they are
// logged and recorded in the job registry instead).
func (h *ReportHandler) Download(c *gin.Context) {
	reportID := c.Param("report_id")
	userID := c.GetString(ContextUserID)

	if !h.store.Exists(userID, reportID, ".pdf") {
		c.JSON(http.StatusAccepted, gin.H{"detail": "The report is still being generated. Try again later."})
		return
	}

	c.FileAttachment(h.store.Path(userID, reportID, ".pdf"), reportID+".pdf")
}
