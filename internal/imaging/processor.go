package imaging

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"log"
	"os"
	"time"

	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
	"golang.org/x/sync/semaphore"

	"github.com/snapdish/snapdish-backend/internal/cache"
	"github.com/snapdish/snapdish-backend/internal/types"
)

const (
	// MaxUploadBytes is the largest dish photo accepted for analysis
	MaxUploadBytes = 4 << 20
	// MinDimension is the smallest accepted width/height in pixels
	MinDimension = 100
	// MaxDimension is the largest dimension kept after downscaling
	MaxDimension = 1024
	// JPEGQuality is the fixed re-encode quality factor
	JPEGQuality = 85

	// inlineThreshold is the size above which processing moves to the
	// background worker. Purely a scheduling concern; the result is the
	// same either way.
	inlineThreshold = 1 << 20
)

// ProcessedImage is the transmission-ready form of a captured photo
type ProcessedImage struct {
	Payload            []byte `json:"-"`
	OriginalSizeBytes  int64  `json:"original_size_bytes"`
	ProcessedSizeBytes int64  `json:"processed_size_bytes"`
	Width              int    `json:"width"`
	Height             int    `json:"height"`
	CacheKey           string `json:"cache_key"`
}

// Processor validates, downscales and re-encodes captured photos. Large
// inputs are handed to a single background worker so one CPU-heavy resize
// at a time runs off the request path. Finished encodings are kept in a
// bounded hot store so the same photo is decoded and resized once.
type Processor struct {
	worker *semaphore.Weighted
	reuse  cache.Store
}

// NewProcessor creates a new Processor instance
func NewProcessor() *Processor {
	return &Processor{
		worker: semaphore.NewWeighted(1),
		reuse:  cache.NewMemoryStore(cache.MemoryCapacity),
	}
}

// Fingerprint derives the cache key for a photo from its content, so the
// same bytes keep their key no matter where an upload was spooled
func Fingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", types.NewValidationError("image", fmt.Sprintf("file not accessible: %v", err))
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", types.NewValidationError("image", fmt.Sprintf("failed to read file: %v", err))
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func fingerprintBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Process validates and converts the photo at path. Inputs over 1MB run
// on the background worker; the contract is identical regardless of where
// the work ran.
func (p *Processor) Process(ctx context.Context, path string) (*ProcessedImage, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, types.NewValidationError("image", fmt.Sprintf("file not accessible: %v", err))
	}
	if info.Size() == 0 {
		return nil, types.NewValidationError("image", "file is empty")
	}
	if info.Size() > MaxUploadBytes {
		return nil, types.NewValidationError("image", fmt.Sprintf("file exceeds %d bytes", MaxUploadBytes))
	}

	if info.Size() > inlineThreshold {
		return p.processOnWorker(ctx, path, info.Size())
	}
	return p.process(path, info.Size())
}

// processOnWorker runs process on the single background worker slot
func (p *Processor) processOnWorker(ctx context.Context, path string, size int64) (*ProcessedImage, error) {
	if err := p.worker.Acquire(ctx, 1); err != nil {
		return nil, err
	}

	type outcome struct {
		img *ProcessedImage
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		defer p.worker.Release(1)
		img, err := p.process(path, size)
		done <- outcome{img, err}
	}()

	select {
	case out := <-done:
		return out.img, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Processor) process(path string, originalSize int64) (*ProcessedImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.NewValidationError("image", fmt.Sprintf("failed to read file: %v", err))
	}

	key := fingerprintBytes(data)
	if img := p.cachedEncoding(key); img != nil {
		log.Printf("[ImageProcessor] reusing encoding for %s", key[:12])
		return img, nil
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, types.NewValidationError("image", fmt.Sprintf("not a decodable image: %v", err))
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width < MinDimension || height < MinDimension {
		return nil, types.NewValidationError("image",
			fmt.Sprintf("image %dx%d below minimum %dpx", width, height, MinDimension))
	}

	if width > MaxDimension || height > MaxDimension {
		src = downscale(src, width, height)
		resized := src.Bounds()
		width, height = resized.Dx(), resized.Dy()
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	log.Printf("[ImageProcessor] processed %s (%s): %d -> %d bytes, %dx%d",
		path, format, originalSize, buf.Len(), width, height)

	img := &ProcessedImage{
		Payload:            buf.Bytes(),
		OriginalSizeBytes:  originalSize,
		ProcessedSizeBytes: int64(buf.Len()),
		Width:              width,
		Height:             height,
		CacheKey:           key,
	}
	p.storeEncoding(img)
	return img, nil
}

// storedEncoding is the serialized form of a finished encoding. Payload
// has to travel here because ProcessedImage keeps it out of API JSON.
type storedEncoding struct {
	Payload            []byte `json:"payload"`
	OriginalSizeBytes  int64  `json:"original_size_bytes"`
	ProcessedSizeBytes int64  `json:"processed_size_bytes"`
	Width              int    `json:"width"`
	Height             int    `json:"height"`
}

// cachedEncoding returns the stored encoding for key if one exists and
// is younger than the encoding TTL
func (p *Processor) cachedEncoding(key string) *ProcessedImage {
	entry, err := p.reuse.Get(context.Background(), key)
	if err != nil {
		return nil
	}
	if entry.Expired(cache.ProcessedImageTTL, time.Now()) {
		_ = p.reuse.Delete(context.Background(), key)
		return nil
	}

	var stored storedEncoding
	if err := json.Unmarshal(entry.Value, &stored); err != nil {
		return nil
	}
	return &ProcessedImage{
		Payload:            stored.Payload,
		OriginalSizeBytes:  stored.OriginalSizeBytes,
		ProcessedSizeBytes: stored.ProcessedSizeBytes,
		Width:              stored.Width,
		Height:             stored.Height,
		CacheKey:           key,
	}
}

func (p *Processor) storeEncoding(img *ProcessedImage) {
	value, err := json.Marshal(storedEncoding{
		Payload:            img.Payload,
		OriginalSizeBytes:  img.OriginalSizeBytes,
		ProcessedSizeBytes: img.ProcessedSizeBytes,
		Width:              img.Width,
		Height:             img.Height,
	})
	if err != nil {
		return
	}
	_ = p.reuse.Put(context.Background(), &cache.Entry{
		Key:      img.CacheKey,
		Value:    value,
		CachedAt: time.Now(),
	})
}

// downscale shrinks the image preserving aspect ratio so the larger
// dimension equals MaxDimension, using bilinear interpolation
func downscale(src image.Image, width, height int) image.Image {
	var dw, dh int
	if width >= height {
		dw = MaxDimension
		dh = height * MaxDimension / width
	} else {
		dh = MaxDimension
		dw = width * MaxDimension / height
	}
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}
