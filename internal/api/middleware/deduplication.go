package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"nutriguard/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Deduplicator 在時間窗內拒絕相同的 POST 請求
type Deduplicator struct {
	mu       sync.Mutex
	window   time.Duration
	requests map[string]time.Time
	now      func() time.Time
}

// NewDeduplicator 創建去重器
func NewDeduplicator(window time.Duration) *Deduplicator {
	if window <= 0 {
		window = time.Second
	}
	return &Deduplicator{
		window:   window,
		requests: make(map[string]time.Time),
		now:      time.Now,
	}
}

// seen 記錄指紋並回傳記錄時間與是否在時間窗內出現過
func (d *Deduplicator) seen(fingerprint string) (time.Time, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if last, ok := d.requests[fingerprint]; ok && now.Sub(last) <= d.window {
		return last, true
	}
	d.requests[fingerprint] = now

	// 順便清理過期指紋
	for k, t := range d.requests {
		if now.Sub(t) > 10*d.window {
			delete(d.requests, k)
		}
	}
	return now, false
}

// forget 移除指定時間記錄的指紋，讓失敗的請求可以立即重試
func (d *Deduplicator) forget(fingerprint string, at time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if last, ok := d.requests[fingerprint]; ok && last.Equal(at) {
		delete(d.requests, fingerprint)
	}
}

// Middleware 請求去重中間件，指紋包含使用者、路徑與請求體
func (d *Deduplicator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		bodyHash := ""
		if c.Request.Body != nil {
			body, err := io.ReadAll(c.Request.Body)
			if err != nil {
				common.LogError("Failed to read request body", zap.Error(err))
				common.Respond(c, common.BadRequest("could not read request body"))
				return
			}
			hash := sha256.Sum256(body)
			bodyHash = hex.EncodeToString(hash[:])
			c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
		}

		fingerprint := fmt.Sprintf("%v:%s:%s", c.Value(UserIDKey), c.Request.URL.Path, bodyHash)
		at, dup := d.seen(fingerprint)
		if dup {
			common.LogWarn("重複請求", zap.String("path", c.Request.URL.Path))
			common.RespondDetail(c, http.StatusTooManyRequests, "duplicate request")
			return
		}

		c.Next()

		// 只有成功的請求才佔用指紋
		if status := c.Writer.Status(); status < 200 || status >= 300 {
			d.forget(fingerprint, at)
		}
	}
}
