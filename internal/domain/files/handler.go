package files

import (
	"errors"
	"io"
	"log"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"filevault/internal/middleware"
	"filevault/internal/pkg/response"
	"filevault/internal/pkg/validator"
)

const DefaultMaxUploadSize = 1 << 30

// Handler exposes the file engine over HTTP. The tenant always comes from
// the authenticated context.
type Handler struct {
	service       *Service
	maxUploadSize int64
}

func NewHandler(service *Service, maxUploadSize int64) *Handler {
	if maxUploadSize <= 0 {
		maxUploadSize = DefaultMaxUploadSize
	}
	return &Handler{service: service, maxUploadSize: maxUploadSize}
}

// List godoc
// @Summary List a directory
// @Tags Files
// @Produce json
// @Security BearerAuth
// @Param path query string false "Tenant-relative directory"
// @Success 200 {object} map[string]interface{}
// @Router /files [get]
func (h *Handler) List(c *gin.Context) {
	tenant := mustTenant(c)
	if tenant == "" {
		return
	}

	dir := c.Query("path")
	entries, err := h.service.List(c.Request.Context(), tenant, dir)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, ListResponse{Path: dir, Entries: entries})
}

// Stat godoc
// @Summary Get one entry
// @Tags Files
// @Produce json
// @Security BearerAuth
// @Param path query string true "Tenant-relative path"
// @Success 200 {object} map[string]interface{}
// @Failure 400,404 {object} map[string]interface{}
// @Router /files/stat [get]
func (h *Handler) Stat(c *gin.Context) {
	tenant := mustTenant(c)
	if tenant == "" {
		return
	}

	e, err := h.service.Stat(c.Request.Context(), tenant, c.Query("path"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, e)
}

// CreateFolder godoc
// @Summary Create a folder
// @Tags Files
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 201 {object} map[string]interface{}
// @Failure 400,409 {object} map[string]interface{}
// @Router /files/folders [post]
func (h *Handler) CreateFolder(c *gin.Context) {
	tenant := mustTenant(c)
	if tenant == "" {
		return
	}

	var req CreateFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		code := "VALIDATION_ERROR"
		if _, bad := errs["Path"]; bad {
			code = Code(ErrInvalidPath)
		} else if _, bad := errs["Name"]; bad {
			code = Code(ErrInvalidName)
		}
		response.ErrorWithDetails(c, http.StatusBadRequest, code, "invalid request", errs)
		return
	}

	e, err := h.service.CreateFolder(c.Request.Context(), tenant, req.Path, req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, e)
}

// Delete godoc
// @Summary Move to trash, or delete permanently when already in trash
// @Tags Files
// @Produce json
// @Security BearerAuth
// @Param path query string true "Tenant-relative path"
// @Success 200 {object} map[string]interface{}
// @Failure 400,404 {object} map[string]interface{}
// @Router /files [delete]
func (h *Handler) Delete(c *gin.Context) {
	tenant := mustTenant(c)
	if tenant == "" {
		return
	}

	res, err := h.service.Remove(c.Request.Context(), tenant, c.Query("path"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// Content godoc
// @Summary Stream a file inline
// @Tags Files
// @Security BearerAuth
// @Param path query string true "Tenant-relative path"
// @Router /files/content [get]
func (h *Handler) Content(c *gin.Context) {
	h.serve(c, false)
}

// Download godoc
// @Summary Stream a file as an attachment
// @Tags Files
// @Security BearerAuth
// @Param path query string true "Tenant-relative path"
// @Router /files/download [get]
func (h *Handler) Download(c *gin.Context) {
	h.serve(c, true)
}

func (h *Handler) serve(c *gin.Context, attachment bool) {
	tenant := mustTenant(c)
	if tenant == "" {
		return
	}

	content, err := h.service.Read(c.Request.Context(), tenant, c.Query("path"))
	if err != nil {
		writeError(c, err)
		return
	}
	defer content.Close()

	c.DataFromReader(http.StatusOK, content.Size, content.ContentType, content, map[string]string{
		"Content-Disposition": content.Disposition(attachment),
		"Cache-Control":       content.CacheControl(),
		"Last-Modified":       content.ModTime.Format(http.TimeFormat),
	})
}

// Upload godoc
// @Summary Upload files or a whole folder
// @Description Repeat the "files" field; a filename may carry a relative sub-path.
// @Tags Files
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param path query string false "Target directory"
// @Success 201 {object} map[string]interface{}
// @Failure 400,413 {object} map[string]interface{}
// @Router /files/upload [post]
func (h *Handler) Upload(c *gin.Context) {
	tenant := mustTenant(c)
	if tenant == "" {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize)
	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, http.StatusRequestEntityTooLarge, "UPLOAD_TOO_LARGE", "upload exceeds maximum allowed size")
			return
		}
		writeError(c, ErrNoFilesProvided)
		return
	}

	headers := form.File["files"]
	items := make([]UploadItem, 0, len(headers))
	for _, fh := range headers {
		items = append(items, UploadItem{Name: uploadName(fh), Open: openPart(fh)})
	}

	res, err := h.service.Upload(c.Request.Context(), tenant, c.Query("path"), items)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, res)
}

// Archive godoc
// @Summary Download several files as one zip
// @Tags Files
// @Accept json
// @Produce application/zip
// @Security BearerAuth
// @Router /files/archive [post]
func (h *Handler) Archive(c *gin.Context) {
	tenant := mustTenant(c)
	if tenant == "" {
		return
	}

	var req ArchiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, ErrNoFilesProvided)
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, Code(ErrNoFilesProvided), "invalid request", errs)
		return
	}

	a, err := h.service.Export(c.Request.Context(), tenant, req.Paths)
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Disposition", (&Content{Name: a.Name}).Disposition(true))
	c.Header("Content-Length", strconv.Itoa(len(a.Data)))
	c.Header("X-Archive-Skipped", strconv.Itoa(len(a.Skipped)))
	c.Data(http.StatusOK, "application/zip", a.Data)
}

// uploadName prefers the raw part filename: multipart.FileHeader.Filename
// is reduced to its basename, which would drop folder-upload sub-paths.
func uploadName(fh *multipart.FileHeader) string {
	if _, params, err := mime.ParseMediaType(fh.Header.Get("Content-Disposition")); err == nil {
		if name := params["filename"]; name != "" {
			return name
		}
	}
	return fh.Filename
}

func openPart(fh *multipart.FileHeader) func() (io.ReadCloser, error) {
	return func() (io.ReadCloser, error) {
		return fh.Open()
	}
}

func writeError(c *gin.Context, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Printf("files_internal_error tenant=%s method=%s path=%s error=%v",
			middleware.TenantID(c), c.Request.Method, c.Request.URL.Path, err)
		_ = c.Error(err)
	}
	response.Error(c, status, Code(err), PublicMessage(err))
}

func mustTenant(c *gin.Context) string {
	tenant := middleware.TenantID(c)
	if tenant == "" {
		writeError(c, ErrTenantRequired)
	}
	return tenant
}
