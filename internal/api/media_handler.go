package api

import (
	"alcyxob/fitcoach/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// MediaHandler serves the presigned S3 flow for progress photos.
type MediaHandler struct {
	mediaService service.MediaService
}

func NewMediaHandler(mediaService service.MediaService) *MediaHandler {
	return &MediaHandler{mediaService: mediaService}
}

type RequestUploadURLRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

type ConfirmUploadRequest struct {
	ObjectKey   string `json:"objectKey" binding:"required"`
	FileName    string `json:"fileName" binding:"required"`
	FileSize    int64  `json:"fileSize" binding:"required,min=1"`
	ContentType string `json:"contentType" binding:"required"`
}

// RequestUploadURL godoc
// @Summary Request a pre-signed URL to upload a progress photo
// @Tags Media
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param taskId path string true "Task's ObjectID Hex"
// @Param uploadRequest body RequestUploadURLRequest true "Upload content type"
// @Success 200 {object} service.UploadURLResponse "Pre-signed URL and object key"
// @Failure 400 {object} gin.H "Not an open progress_photo task, or not an image"
// @Failure 404 {object} gin.H "Task not found"
// @Router /trainee/tasks/{taskId}/photos/upload-url [post]
func (h *MediaHandler) RequestUploadURL(c *gin.Context) {
	var req RequestUploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	traineeID, _, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "taskId")
	if !ok {
		return
	}

	resp, err := h.mediaService.RequestPhotoUploadURL(c.Request.Context(), traineeID, taskID, req.ContentType)
	if err != nil {
		respondError(c, err, "Failed to get upload URL.")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ConfirmUpload godoc
// @Summary Confirm a progress photo upload
// @Description The trainee reports that the S3 upload finished; the object is checked and an upload record is stored.
// @Tags Media
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param taskId path string true "Task's ObjectID Hex"
// @Param confirmRequest body ConfirmUploadRequest true "Upload confirmation details"
// @Success 201 {object} domain.Upload
// @Router /trainee/tasks/{taskId}/photos/confirm [post]
func (h *MediaHandler) ConfirmUpload(c *gin.Context) {
	var req ConfirmUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	traineeID, _, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "taskId")
	if !ok {
		return
	}

	upload, err := h.mediaService.ConfirmPhotoUpload(c.Request.Context(), traineeID, taskID, req.ObjectKey, req.FileName, req.FileSize, req.ContentType)
	if err != nil {
		respondError(c, err, "Failed to confirm upload.")
		return
	}
	c.JSON(http.StatusCreated, upload)
}

func (h *MediaHandler) GetDownloadURL(c *gin.Context) {
	userID, role, ok := currentUser(c)
	if !ok {
		return
	}
	uploadID, ok := pathID(c, "uploadId")
	if !ok {
		return
	}
	url, err := h.mediaService.GetPhotoDownloadURL(c.Request.Context(), userID, role, uploadID)
	if err != nil {
		respondError(c, err, "Failed to get download URL.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"downloadUrl": url})
}
