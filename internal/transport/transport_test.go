package transport

import (
	"bytes"
	"context"
	"errors"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ds124wfegd/WB_L3/position/config"
	"github.com/ds124wfegd/WB_L3/position/internal/entity"
	"github.com/ds124wfegd/WB_L3/position/internal/pkg/events"
	"github.com/ds124wfegd/WB_L3/position/internal/pkg/pool"
	"github.com/ds124wfegd/WB_L3/position/internal/pkg/processor"
	"github.com/ds124wfegd/WB_L3/position/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T, maxUpload int64) *gin.Engine {
	t.Helper()

	procCfg := processor.DefaultConfig()
	procCfg.MaxUploadBytes = maxUpload
	return newRouter(t, processor.NewImageProcessor(procCfg), nil, maxUpload, 10*time.Second)
}

func newRouter(t *testing.T, proc processor.ImageProcessor, producer events.Producer, maxUpload int64, timeout time.Duration) *gin.Engine {
	t.Helper()

	svc := service.NewImageService(proc, pool.New(2), producer)
	t.Cleanup(func() { _ = svc.Close() })

	cfg := &config.Config{}
	cfg.Server.AppVersion = "test"
	cfg.Server.RequestTimeout = timeout
	return InitRoutes(NewImageHandler(svc, maxUpload), cfg)
}

// stalledProcessor never finishes before the request deadline.
type stalledProcessor struct {
	processor.ImageProcessor
}

func (stalledProcessor) Process(ctx context.Context, raw []byte, mode entity.AnchorMode) (*entity.EncodedResult, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type downProducer struct{}

func (downProducer) SendMessage(ctx context.Context, key string, message interface{}) error {
	return errors.New("broker unreachable")
}
func (downProducer) HealthCheck() error { return errors.New("broker unreachable") }
func (downProducer) Close() error       { return nil }

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func multipartRequest(t *testing.T, path, field string, file []byte, position string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if file != nil {
		fw, err := mw.CreateFormFile(field, "upload.png")
		require.NoError(t, err)
		_, err = fw.Write(file)
		require.NoError(t, err)
	}
	if position != "" {
		require.NoError(t, mw.WriteField("position", position))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) entity.ErrorResponse {
	t.Helper()
	var resp entity.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestOriginReturnsJPEG(t *testing.T) {
	router := newTestRouter(t, 8<<20)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, multipartRequest(t, "/api/origin", "file", pngBytes(t, 100, 400), ""))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	img, format, err := image.Decode(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 65, img.Bounds().Dx())
	assert.Equal(t, 260, img.Bounds().Dy())
}

func TestResizeAcceptsImageFieldAlias(t *testing.T) {
	router := newTestRouter(t, 8<<20)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, multipartRequest(t, "/api/resize", "image", pngBytes(t, 200, 100), "right top"))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cfg, _, err := image.DecodeConfig(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 1080, cfg.Width)
	assert.Equal(t, 1080, cfg.Height)
}

func TestTransformJSONReturnsDataURL(t *testing.T) {
	router := newTestRouter(t, 8<<20)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, multipartRequest(t, "/api/transform", "file", pngBytes(t, 160, 90), "entropy"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp entity.TransformResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "image/jpeg", resp.MediaType)
	assert.Equal(t, 1080, resp.Width)
	assert.Equal(t, 1080, resp.Height)
	assert.Equal(t, "entropy", resp.Position)

	require.True(t, strings.HasPrefix(resp.Image, "data:image/jpeg;base64,"))
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(resp.Image, "data:image/jpeg;base64,"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xd8}, raw[:2])
}

func TestRequestErrors(t *testing.T) {
	tests := []struct {
		name     string
		maxBytes int64
		req      func(t *testing.T) *http.Request
		status   int
		kind     entity.ErrorKind
	}{
		{
			name:     "missing position",
			maxBytes: 8 << 20,
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/api/resize", "file", pngBytes(t, 20, 20), "")
			},
			status: http.StatusBadRequest,
			kind:   entity.KindMissingInput,
		},
		{
			name:     "unknown position",
			maxBytes: 8 << 20,
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/api/transform", "file", pngBytes(t, 20, 20), "diagonal")
			},
			status: http.StatusBadRequest,
			kind:   entity.KindMissingInput,
		},
		{
			name:     "missing file",
			maxBytes: 8 << 20,
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/api/resize", "file", nil, "center")
			},
			status: http.StatusBadRequest,
			kind:   entity.KindMissingInput,
		},
		{
			name:     "not multipart",
			maxBytes: 8 << 20,
			req: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/api/origin", strings.NewReader("{}"))
			},
			status: http.StatusBadRequest,
			kind:   entity.KindMissingInput,
		},
		{
			name:     "oversized upload",
			maxBytes: 1024,
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/api/origin", "file", make([]byte, 128<<10), "")
			},
			status: http.StatusRequestEntityTooLarge,
			kind:   entity.KindPayloadTooLarge,
		},
		{
			name:     "file over limit inside small body",
			maxBytes: 1024,
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/api/origin", "file", make([]byte, 4096), "")
			},
			status: http.StatusRequestEntityTooLarge,
			kind:   entity.KindPayloadTooLarge,
		},
		{
			name:     "not an image",
			maxBytes: 8 << 20,
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/api/origin", "file", []byte("just some text, definitely not pixels"), "")
			},
			status: http.StatusUnsupportedMediaType,
			kind:   entity.KindUnsupportedFormat,
		},
		{
			name:     "truncated png",
			maxBytes: 8 << 20,
			req: func(t *testing.T) *http.Request {
				data := pngBytes(t, 64, 64)
				return multipartRequest(t, "/api/resize", "file", data[:len(data)/3], "center")
			},
			status: http.StatusUnprocessableEntity,
			kind:   entity.KindCorruptImage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, tt.maxBytes)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, tt.req(t))

			require.Equal(t, tt.status, w.Code, w.Body.String())
			resp := decodeError(t, w)
			assert.Equal(t, string(tt.kind), resp.ErrorKind)
			assert.Equal(t, tt.status, resp.Status)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestPositionsAndHealth(t *testing.T) {
	router := newTestRouter(t, 8<<20)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/positions", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var positions struct {
		Positions []string `json:"positions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &positions))
	assert.Contains(t, positions.Positions, "center")
	assert.Contains(t, positions.Positions, "attention")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
	assert.Contains(t, w.Body.String(), `"events":"ok"`)
}

func TestHealthReportsUnreachableBroker(t *testing.T) {
	router := newRouter(t, stalledProcessor{}, downProducer{}, 8<<20, time.Second)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "broker unreachable", body["events"])
}

func TestExpiredDeadlineReturnsTimeout(t *testing.T) {
	router := newRouter(t, stalledProcessor{}, nil, 8<<20, 20*time.Millisecond)

	for _, path := range []string{"/api/origin", "/api/resize", "/api/transform"} {
		t.Run(path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, multipartRequest(t, path, "file", pngBytes(t, 32, 32), "center"))

			require.Equal(t, http.StatusGatewayTimeout, w.Code, w.Body.String())
			resp := decodeError(t, w)
			assert.Equal(t, string(entity.KindTimeout), resp.ErrorKind)
			assert.Equal(t, http.StatusGatewayTimeout, resp.Status)
			assert.Equal(t, entity.ErrTimeout.Error(), resp.Error)
		})
	}
}

func TestPreflight(t *testing.T) {
	router := newTestRouter(t, 8<<20)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/resize", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestPanicBecomesInternalFailure(t *testing.T) {
	router := newTestRouter(t, 8<<20)
	router.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, string(entity.KindInternalFailure), resp.ErrorKind)
	assert.Equal(t, entity.ErrInternal.Error(), resp.Error)
}
