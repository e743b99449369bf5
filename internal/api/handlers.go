package api

import (
	"encoding/base64"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gsinghjay/mvp-qr-gen-sub001/internal/encoder"
	qrerrors "github.com/gsinghjay/mvp-qr-gen-sub001/internal/errors"
	"github.com/gsinghjay/mvp-qr-gen-sub001/internal/models"
	"github.com/gsinghjay/mvp-qr-gen-sub001/internal/repository"
	"github.com/gsinghjay/mvp-qr-gen-sub001/internal/services"
)

// SetupRoutes configures all Gin API routes and injects the services.
// The handlers are thin translation glue: they parse parameters, call the
// lifecycle service or the resolver, and map typed errors to HTTP statuses.
func SetupRoutes(router *gin.Engine, qrService *services.QRService, resolver *services.RedirectResolver) {
	// Health check route, used by load balancers and monitoring.
	router.GET("/health", HealthCheckHandler)

	// API routes group - all lifecycle endpoints under /api/v1.
	api := router.Group("/api/v1")
	{
		api.POST("/qrcodes/static", CreateStaticHandler(qrService))
		api.POST("/qrcodes/dynamic", CreateDynamicHandler(qrService))
		api.GET("/qrcodes", ListHandler(qrService))
		api.GET("/qrcodes/:id", GetHandler(qrService))
		api.PATCH("/qrcodes/:id", UpdateDestinationHandler(qrService))
		api.GET("/qrcodes/:id/stats", GetStatsHandler(qrService))
		api.GET("/qrcodes/:id/image", ImageHandler(qrService))
		api.DELETE("/qrcodes/:id", DeleteHandler(qrService))
	}

	// Redirect route - this is what dynamic code images encode
	// (e.g. localhost:8080/r/Ab3xY9kQ).
	router.GET("/r/:id", RedirectHandler(resolver))
}

// HealthCheckHandler handles the /health route to verify service status.
func HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// CreateStaticRequest is the JSON body for minting a static code.
// Border is a pointer so an omitted border can default to the standard quiet
// zone while an explicit 0 disables it.
type CreateStaticRequest struct {
	Content   string `json:"content" binding:"required"`
	FillColor string `json:"fill_color"`
	BackColor string `json:"back_color"`
	Size      int    `json:"size"`
	Border    *int   `json:"border"`
}

// CreateDynamicRequest is the JSON body for minting a dynamic code.
type CreateDynamicRequest struct {
	RedirectURL string `json:"redirect_url" binding:"required"`
	FillColor   string `json:"fill_color"`
	BackColor   string `json:"back_color"`
	Size        int    `json:"size"`
	Border      *int   `json:"border"`
}

// UpdateDestinationRequest is the JSON body for repointing a dynamic code.
type UpdateDestinationRequest struct {
	RedirectURL string `json:"redirect_url" binding:"required"`
}

// toStyle builds encoder options from the optional request fields.
func toStyle(fillColor, backColor string, size int, border *int) encoder.StyleOptions {
	b := encoder.DefaultBorder
	if border != nil {
		b = *border
	}
	return encoder.StyleOptions{
		FillColor: fillColor,
		BackColor: backColor,
		Size:      size,
		Border:    b,
	}
}

// codeResponse renders a QRCode record as the API's JSON shape. The PNG is
// inlined base64 when present (creation responses); list/get responses skip it.
func codeResponse(code *models.QRCode, png []byte) gin.H {
	resp := gin.H{
		"id":           code.ID,
		"type":         code.Type,
		"fill_color":   code.FillColor,
		"back_color":   code.BackColor,
		"size":         code.Size,
		"border":       code.Border,
		"scan_count":   code.ScanCount,
		"last_scan_at": code.LastScanAt,
		"created_at":   code.CreatedAt,
		"updated_at":   code.UpdatedAt,
	}
	if code.Type == models.TypeStatic {
		resp["content"] = code.Content
	} else {
		resp["redirect_url"] = code.RedirectURL
	}
	if png != nil {
		resp["image_base64"] = base64.StdEncoding.EncodeToString(png)
	}
	return resp
}

// CreateStaticHandler mints a static code: the payload is baked into the
// image and immutable afterwards.
func CreateStaticHandler(qrService *services.QRService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateStaticRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}

		code, png, err := qrService.CreateStatic(c.Request.Context(), req.Content,
			toStyle(req.FillColor, req.BackColor, req.Size, req.Border))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, codeResponse(code, png))
	}
}

// CreateDynamicHandler mints a dynamic code whose image encodes the resolver
// URL, so the destination can be repointed later without reprinting.
func CreateDynamicHandler(qrService *services.QRService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateDynamicRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}

		code, png, err := qrService.CreateDynamic(c.Request.Context(), req.RedirectURL,
			toStyle(req.FillColor, req.BackColor, req.Size, req.Border))
		if err != nil {
			writeError(c, err)
			return
		}

		resp := codeResponse(code, png)
		resp["resolver_url"] = qrService.ResolverURL(code.ID)
		c.JSON(http.StatusCreated, resp)
	}
}

// UpdateDestinationHandler repoints an existing dynamic code.
func UpdateDestinationHandler(qrService *services.QRService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateDestinationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}

		code, err := qrService.UpdateDynamicDestination(c.Request.Context(), c.Param("id"), req.RedirectURL)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, codeResponse(code, nil))
	}
}

// GetHandler returns a single code's record without the image.
func GetHandler(qrService *services.QRService) gin.HandlerFunc {
	return func(c *gin.Context) {
		code, err := qrService.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, codeResponse(code, nil))
	}
}

// ListHandler returns codes newest first, filtered by type and creation time.
// Query parameters: type, created_after, created_before (RFC 3339), limit, offset.
func ListHandler(qrService *services.QRService) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := repository.ListFilter{Type: c.Query("type")}

		if v := c.Query("created_after"); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid created_after timestamp"})
				return
			}
			filter.CreatedAfter = &t
		}
		if v := c.Query("created_before"); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid created_before timestamp"})
				return
			}
			filter.CreatedBefore = &t
		}
		if v := c.Query("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
				return
			}
			filter.Limit = n
		}
		if v := c.Query("offset"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid offset"})
				return
			}
			filter.Offset = n
		}

		codes, err := qrService.List(c.Request.Context(), filter)
		if err != nil {
			writeError(c, err)
			return
		}

		results := make([]gin.H, 0, len(codes))
		for i := range codes {
			results = append(results, codeResponse(&codes[i], nil))
		}
		c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
	}
}

// GetStatsHandler returns the scan statistics for a code.
func GetStatsHandler(qrService *services.QRService) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := qrService.GetStats(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

// ImageHandler re-renders a code's image as PNG bytes. Style query parameters
// (fill_color, back_color, size, border) override the stored options for this
// render only; the record itself is never mutated.
func ImageHandler(qrService *services.QRService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var style *encoder.StyleOptions

		if c.Query("fill_color") != "" || c.Query("back_color") != "" ||
			c.Query("size") != "" || c.Query("border") != "" {
			override := encoder.StyleOptions{
				FillColor: c.Query("fill_color"),
				BackColor: c.Query("back_color"),
				Border:    encoder.DefaultBorder,
			}
			if v := c.Query("size"); v != "" {
				n, err := strconv.Atoi(v)
				if err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid size"})
					return
				}
				override.Size = n
			}
			if v := c.Query("border"); v != "" {
				n, err := strconv.Atoi(v)
				if err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid border"})
					return
				}
				override.Border = n
			}
			style = &override
		}

		png, err := qrService.RegenerateImage(c.Request.Context(), c.Param("id"), style)
		if err != nil {
			writeError(c, err)
			return
		}
		c.Data(http.StatusOK, "image/png", png)
	}
}

// DeleteHandler removes a code and its scan events.
func DeleteHandler(qrService *services.QRService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := qrService.Delete(c.Request.Context(), c.Param("id")); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// RedirectHandler resolves a scanned dynamic code and issues the redirect.
// This is the hot path users hit when scanning a printed code; scan recording
// happens asynchronously and never delays the 302.
func RedirectHandler(resolver *services.RedirectResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		meta := services.ScanMetadata{
			UserAgent: c.GetHeader("User-Agent"),
			IPAddress: c.ClientIP(),
			Referrer:  c.GetHeader("Referer"),
		}

		redirectURL, err := resolver.Resolve(c.Request.Context(), id, meta)
		if err != nil {
			switch {
			case errors.Is(err, qrerrors.ErrNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "QR code not found"})
			case errors.Is(err, qrerrors.ErrTypeMismatch):
				c.JSON(http.StatusBadRequest, gin.H{"error": "QR code is not resolvable"})
			case errors.Is(err, qrerrors.ErrStorageTimeout):
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Temporarily unavailable, please retry"})
			default:
				log.Printf("Error resolving %s: %v", id, err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			}
			return
		}

		c.Redirect(http.StatusFound, redirectURL)
	}
}

// writeError maps the service error taxonomy to HTTP statuses:
// NotFound→404, TypeMismatch→400, validation failures→422,
// identifier collisions→409, storage timeout→503, everything else→500.
func writeError(c *gin.Context, err error) {
	var (
		invalidDestination qrerrors.ErrInvalidDestination
		invalidContent     qrerrors.ErrInvalidContent
		invalidStyle       qrerrors.ErrInvalidStyle
		encodingFailed     qrerrors.ErrEncodingFailed
	)

	switch {
	case errors.Is(err, qrerrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "QR code not found"})
	case errors.Is(err, qrerrors.ErrTypeMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Operation not valid for this code type"})
	case errors.Is(err, qrerrors.ErrDuplicateIdentifier), errors.Is(err, qrerrors.ErrIdentifierExhausted):
		c.JSON(http.StatusConflict, gin.H{"error": "Unable to allocate identifier. Please try again later."})
	case errors.Is(err, qrerrors.ErrStorageTimeout):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Temporarily unavailable, please retry"})
	case errors.As(err, &invalidDestination), errors.As(err, &invalidContent), errors.As(err, &invalidStyle):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.As(err, &encodingFailed):
		log.Printf("Encoding error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render QR image"})
	default:
		log.Printf("Unexpected error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
