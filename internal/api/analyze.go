package api

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/snapdish/snapdish-backend/internal/imaging"
	"github.com/snapdish/snapdish-backend/internal/service"
	"github.com/snapdish/snapdish-backend/internal/types"
)

// AnalyzeResponse is returned for a successful photo analysis
type AnalyzeResponse struct {
	Result    *types.VisionResult     `json:"result"`
	FromCache bool                    `json:"from_cache"`
	Image     *imaging.ProcessedImage `json:"image"`
	PhotoURL  string                  `json:"photo_url,omitempty"`
}

type AnalyzeHandler struct {
	processor *imaging.Processor
	vision    service.IVisionService
	photos    service.IPhotoService
}

func NewAnalyzeHandler(processor *imaging.Processor, vision service.IVisionService, photos service.IPhotoService) *AnalyzeHandler {
	return &AnalyzeHandler{
		processor: processor,
		vision:    vision,
		photos:    photos,
	}
}

func (h *AnalyzeHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/analyze", h.Analyze)
}

// Analyze accepts a multipart dish photo, recognizes its ingredients and
// optionally stores the processed photo when store=true is passed
func (h *AnalyzeHandler) Analyze(c *gin.Context) {
	file, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo file is required"})
		return
	}
	if file.Size > imaging.MaxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo exceeds the 4MB upload limit"})
		return
	}

	// spool the upload so the processor can fingerprint and decode it
	tmpDir, err := os.MkdirTemp("", "snapdish-upload-")
	if err != nil {
		_ = c.Error(err)
		return
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	path := filepath.Join(tmpDir, uuid.New().String()+filepath.Ext(file.Filename))
	if err := c.SaveUploadedFile(file, path); err != nil {
		_ = c.Error(err)
		return
	}

	img, err := h.processor.Process(c.Request.Context(), path)
	if err != nil {
		_ = c.Error(err)
		return
	}

	result, fromCache, err := h.vision.Analyze(c.Request.Context(), img)
	if err != nil {
		_ = c.Error(err)
		return
	}

	resp := AnalyzeResponse{
		Result:    result,
		FromCache: fromCache,
		Image:     img,
	}

	if h.photos != nil && c.PostForm("store") == "true" {
		url, err := h.photos.UploadDishPhoto(c.Request.Context(), c.GetString("user_id"), img)
		if err == nil {
			resp.PhotoURL = url
		}
	}

	c.JSON(http.StatusOK, resp)
}
