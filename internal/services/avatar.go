package services

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"os"
	"strings"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"

	"github.com/suresight/suresight-backend/internal/pkg/logger"
	"github.com/suresight/suresight-backend/internal/platform/gcs"

	types "github.com/suresight/suresight-backend/internal/domain"
)

type AvatarService interface {
	// CreateAndUploadUserAvatar renders an initials avatar and uploads it,
	// updating user.AvatarKey in place. The caller persists the user.
	CreateAndUploadUserAvatar(ctx context.Context, user *types.User) error
	GenerateUserAvatar(user *types.User) (bytes.Buffer, error)
}

type avatarService struct {
	log           *logger.Logger
	bucketService gcs.BucketService
	bgColors      []color.NRGBA
	fontFace      font.Face
}

func NewAvatarService(log *logger.Logger, bucketService gcs.BucketService) (AvatarService, error) {
	serviceLog := log.With("service", "AvatarService")

	fontPath := strings.TrimSpace(os.Getenv("AVATAR_FONT"))
	if fontPath == "" {
		return nil, fmt.Errorf("missing AVATAR_FONT")
	}
	face, err := loadFontFace(fontPath, 206)
	if err != nil {
		return nil, fmt.Errorf("load avatar font: %w", err)
	}

	return &avatarService{
		log:           serviceLog,
		bucketService: bucketService,
		bgColors: []color.NRGBA{
			{R: 0x1F, G: 0x6F, B: 0xEB, A: 0xFF},
			{R: 0x8B, G: 0x5C, B: 0xF6, A: 0xFF},
			{R: 0x05, G: 0x96, B: 0x69, A: 0xFF},
			{R: 0xD9, G: 0x77, B: 0x06, A: 0xFF},
			{R: 0xDC, G: 0x26, B: 0x26, A: 0xFF},
			{R: 0x0E, G: 0x74, B: 0x90, A: 0xFF},
		},
		fontFace: face,
	}, nil
}

func (as *avatarService) CreateAndUploadUserAvatar(ctx context.Context, user *types.User) error {
	buf, err := as.GenerateUserAvatar(user)
	if err != nil {
		return err
	}

	oldKey := strings.TrimSpace(user.AvatarKey)

	// Versioned key so stale CDN entries never survive a regeneration.
	newKey := fmt.Sprintf("user/%s/%d.png", user.ID.String(), time.Now().UnixNano())
	if err := as.bucketService.UploadFile(ctx, gcs.BucketCategoryAvatar, newKey, "image/png", bytes.NewReader(buf.Bytes())); err != nil {
		return fmt.Errorf("upload avatar: %w", err)
	}
	user.AvatarKey = newKey

	if oldKey != "" && oldKey != newKey {
		if err := as.bucketService.DeleteFile(ctx, gcs.BucketCategoryAvatar, oldKey); err != nil {
			as.log.Warn("Failed to delete old avatar", "key", oldKey, "error", err)
		}
	}
	return nil
}

func (as *avatarService) GenerateUserAvatar(user *types.User) (bytes.Buffer, error) {
	const size = 512

	dc := gg.NewContext(size, size)
	dc.DrawCircle(float64(size)/2, float64(size)/2, float64(size)/2)
	dc.Clip()

	dc.SetColor(as.pickColor(user))
	dc.DrawRectangle(0, 0, float64(size), float64(size))
	dc.Fill()

	initials := computeInitials(user.FirstName, user.LastName)
	dc.SetFontFace(as.fontFace)
	tw, th := dc.MeasureString(initials)
	cx, cy := float64(size)/2, float64(size)/2

	dc.SetColor(color.White)
	dc.DrawString(initials, cx-(tw/2)+5, cy+(th/2)-10)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return buf, fmt.Errorf("encode avatar png: %w", err)
	}
	return buf, nil
}

// pickColor is stable per user so regenerated avatars keep their background.
func (as *avatarService) pickColor(user *types.User) color.NRGBA {
	var sum int
	for _, b := range user.ID {
		sum += int(b)
	}
	return as.bgColors[sum%len(as.bgColors)]
}

func computeInitials(first, last string) string {
	fInit := "?"
	if len(first) > 0 {
		fInit = strings.ToUpper(first[:1])
	}
	lInit := "?"
	if len(last) > 0 {
		lInit = strings.ToUpper(last[:1])
	}
	return fInit + lInit
}

func loadFontFace(fontPath string, size float64) (font.Face, error) {
	fontBytes, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("read font file: %w", err)
	}
	parsedFont, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("parse TTF: %w", err)
	}
	return truetype.NewFace(parsedFont, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	}), nil
}
