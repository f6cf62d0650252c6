package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ownly/go-vault-backend/internal/domain"
	"github.com/ownly/go-vault-backend/internal/imaging"
)

// newTestDB opens a fresh in-memory SQLite database with the catalog schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// Unique DSN per call to avoid cross-test contamination
	dsn := fmt.Sprintf("file:services_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.InventoryRecord{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// pngBytes renders a small solid PNG, a valid upload for Processor.Prepare.
func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 7), G: uint8(y * 7), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// testPhoto runs a generated image through the processor, yielding a Prepared
// the way the capture flow would.
func testPhoto(t *testing.T, proc *imaging.Processor, w, h int) *imaging.Prepared {
	t.Helper()
	p, err := proc.Prepare(bytes.NewReader(pngBytes(t, w, h)))
	if err != nil {
		t.Fatalf("prepare photo: %v", err)
	}
	return p
}

// fakeAI is a scriptable ai.Client.
type fakeAI struct {
	detections []domain.RawDetection
	detectErr  error

	advice     string
	adviceErr  error
	gotSummary string

	reply    string
	chatErr  error
	gotQuery string
	gotCtx   string

	// detectStarted/detectRelease let tests hold a detection open to probe
	// the single-flight guard.
	detectStarted chan struct{}
	startedOnce   sync.Once
	detectRelease chan struct{}
}

func (f *fakeAI) DetectItems(ctx context.Context, jpegData []byte) ([]domain.RawDetection, error) {
	if f.detectStarted != nil {
		f.startedOnce.Do(func() { close(f.detectStarted) })
	}
	if f.detectRelease != nil {
		<-f.detectRelease
	}
	return f.detections, f.detectErr
}

func (f *fakeAI) ShoppingAdvice(ctx context.Context, jpegData []byte, inventorySummary string) (string, error) {
	f.gotSummary = inventorySummary
	return f.advice, f.adviceErr
}

func (f *fakeAI) Chat(ctx context.Context, query, inventoryContext string) (string, error) {
	f.gotQuery = query
	f.gotCtx = inventoryContext
	return f.reply, f.chatErr
}

// record builds a minimal saved catalog record.
func record(name, brand string) domain.InventoryRecord {
	return domain.InventoryRecord{
		ID:              uuid.NewString(),
		Name:            name,
		Brand:           brand,
		Category:        domain.CategoryOther,
		StorageLocation: DefaultStorageLocation,
		DateAdded:       "2025-01-01",
	}
}
