package controller

import (
	"creative_learning_backend/internal/service"
	"creative_learning_backend/internal/util"
	"creative_learning_backend/pkg/logger"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ImageController struct {
	imageService *service.ImageService
}

func NewImageController(imageService *service.ImageService) *ImageController {
	return &ImageController{imageService: imageService}
}

type analyzeImageJSON struct {
	Image  string `json:"image"`
	Prompt string `json:"prompt"`
}

var errImageParse = errors.New("Error parsing file")

const imageFailureMessage = "Image analysis failed"

// Analyze 图生图推理
// @Summary 图片分析
// @Description 接收 multipart 的 file 字段或 JSON 的 base64 image，转发给图生图推理接口并原样返回结果
// @Tags AI
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "图片"
// @Param prompt formData string false "提示词"
// @Success 200 {object} map[string]interface{}
// @Router /api/analyze-image [post]
func (c *ImageController) Analyze(ctx *gin.Context) {
	settings := c.imageService.Settings()
	if !settings.Enabled {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": util.ErrImageDisabled.Error()})
		return
	}

	maxBytes := int64(settings.MaxUploadMB) << 20
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, maxBytes)

	image, prompt, err := readImage(ctx, maxBytes)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := c.imageService.Analyze(ctx.Request.Context(), image, prompt)
	if err != nil {
		// 上游返回体只写日志，不回给客户端
		logger.Log.Error("Image analysis failed", zap.Error(err))
		status := http.StatusInternalServerError
		if s := util.UpstreamStatus(err); s != 0 {
			status = s
		}
		ctx.JSON(status, gin.H{"error": imageFailureMessage})
		return
	}

	ctx.Data(http.StatusOK, util.MimeJSON, result)
}

func readImage(ctx *gin.Context, maxBytes int64) ([]byte, string, error) {
	contentType := ctx.ContentType()

	if strings.HasPrefix(contentType, "multipart/") {
		if err := ctx.Request.ParseMultipartForm(maxBytes); err != nil {
			return nil, "", errImageParse
		}
		file, _, err := ctx.Request.FormFile("file")
		if errors.Is(err, http.ErrMissingFile) {
			return nil, "", util.ErrImageRequired
		}
		if err != nil {
			return nil, "", errImageParse
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			return nil, "", errImageParse
		}
		if len(data) == 0 {
			return nil, "", util.ErrImageRequired
		}
		return data, ctx.Request.FormValue("prompt"), nil
	}

	if contentType == util.MimeJSON {
		var body analyzeImageJSON
		if err := ctx.ShouldBindJSON(&body); err != nil {
			return nil, "", errImageParse
		}
		encoded := body.Image
		if i := strings.Index(encoded, ";base64,"); strings.HasPrefix(encoded, "data:") && i >= 0 {
			encoded = encoded[i+len(";base64,"):]
		}
		if encoded == "" {
			return nil, "", util.ErrImageRequired
		}
		data, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, "", errImageParse
		}
		return data, body.Prompt, nil
	}

	return nil, "", errImageParse
}
