package services

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"

	"github.com/yungbote/deelicious-bakes-backend/internal/data/repos"
	types "github.com/yungbote/deelicious-bakes-backend/internal/domain"
	"github.com/yungbote/deelicious-bakes-backend/internal/pkg/dbctx"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/apierr"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/logger"
)

const (
	avatarSize     = 256
	maxAvatarBytes = 5 << 20
)

// Brand palette for generated avatars.
var avatarPalette = []string{
	"#E8A0BF", "#B0476A", "#F4B183", "#C9A66B", "#8FBC8F",
	"#7BA7BC", "#A48BC4", "#D98880", "#6B2D3C", "#E5B25D",
}

type AvatarService interface {
	PickColor() string
	Get(ctx context.Context, user *types.User) ([]byte, error)
	Upload(ctx context.Context, user *types.User, raw []byte) error
	Generate(user *types.User) ([]byte, error)
}

type avatarService struct {
	log        *logger.Logger
	avatarRepo repos.UserAvatarRepo

	colorByHex map[string]color.NRGBA
	colorHexes []string

	fontOnce sync.Once
	fontFace font.Face
	fontErr  error
	drawMu   sync.Mutex
}

func NewAvatarService(log *logger.Logger, avatarRepo repos.UserAvatarRepo) AvatarService {
	colorByHex := make(map[string]color.NRGBA, len(avatarPalette))
	hexes := make([]string, 0, len(avatarPalette))
	for _, h := range avatarPalette {
		r, g, b, err := parseHexRGB(h)
		if err != nil {
			continue
		}
		n := normalizeHex(h)
		colorByHex[n] = color.NRGBA{R: r, G: g, B: b, A: 255}
		hexes = append(hexes, n)
	}
	return &avatarService{
		log:        log.With("service", "AvatarService"),
		avatarRepo: avatarRepo,
		colorByHex: colorByHex,
		colorHexes: hexes,
	}
}

func (as *avatarService) PickColor() string {
	return as.colorHexes[rand.Intn(len(as.colorHexes))]
}

func (as *avatarService) Get(ctx context.Context, user *types.User) ([]byte, error) {
	if user == nil || user.ID == uuid.Nil {
		return nil, fmt.Errorf("user required")
	}
	stored, err := as.avatarRepo.Get(dbctx.New(ctx), user.ID)
	if err != nil {
		return nil, fmt.Errorf("load avatar: %w", err)
	}
	if stored != nil && len(stored.PNG) > 0 {
		return stored.PNG, nil
	}
	return as.Generate(user)
}

func (as *avatarService) Upload(ctx context.Context, user *types.User, raw []byte) error {
	if user == nil || user.ID == uuid.Nil {
		return fmt.Errorf("user required")
	}
	if len(raw) == 0 {
		return apierr.BadRequest("invalid_image", "Image file is empty")
	}
	if len(raw) > maxAvatarBytes {
		return apierr.BadRequest("image_too_large", "Image must be 5MB or smaller")
	}
	processed, err := processUploadedAvatar(raw, avatarSize)
	if err != nil {
		return apierr.New(http.StatusBadRequest, "invalid_image", err)
	}
	if err := as.avatarRepo.Upsert(dbctx.New(ctx), user.ID, processed.Bytes()); err != nil {
		return fmt.Errorf("store avatar: %w", err)
	}
	return nil
}

// Generate draws the user's initials on their avatar color.
func (as *avatarService) Generate(user *types.User) ([]byte, error) {
	face, err := as.face()
	if err != nil {
		return nil, err
	}
	dc := gg.NewContext(avatarSize, avatarSize)
	dc.DrawCircle(avatarSize/2, avatarSize/2, avatarSize/2)
	dc.Clip()
	dc.SetColor(as.pickColor(user.AvatarColor))
	dc.DrawRectangle(0, 0, avatarSize, avatarSize)
	dc.Fill()

	// font.Face is not safe for concurrent use.
	as.drawMu.Lock()
	dc.SetFontFace(face)
	dc.SetColor(color.White)
	dc.DrawStringAnchored(computeInitials(user.FirstName, user.LastName), avatarSize/2, avatarSize/2, 0.5, 0.35)
	as.drawMu.Unlock()

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func (as *avatarService) face() (font.Face, error) {
	as.fontOnce.Do(func() {
		parsed, err := truetype.Parse(gobold.TTF)
		if err != nil {
			as.fontErr = fmt.Errorf("parse avatar font: %w", err)
			return
		}
		as.fontFace = truetype.NewFace(parsed, &truetype.Options{
			Size:    avatarSize * 0.4,
			DPI:     72,
			Hinting: font.HintingNone,
		})
	})
	return as.fontFace, as.fontErr
}

func processUploadedAvatar(raw []byte, size int) (bytes.Buffer, error) {
	var out bytes.Buffer

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return out, fmt.Errorf("decode image: %w", err)
	}

	// Center-crop to square
	b := img.Bounds()
	side := b.Dx()
	if b.Dy() < side {
		side = b.Dy()
	}
	x0 := b.Min.X + (b.Dx()-side)/2
	y0 := b.Min.Y + (b.Dy()-side)/2
	cropped := image.NewRGBA(image.Rect(0, 0, side, side))
	draw.Draw(cropped, cropped.Bounds(), img, image.Point{X: x0, Y: y0}, draw.Src)

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), cropped, cropped.Bounds(), draw.Over, nil)

	dc := gg.NewContext(size, size)
	dc.DrawCircle(float64(size)/2, float64(size)/2, float64(size)/2)
	dc.Clip()
	dc.DrawImage(dst, 0, 0)

	if err := dc.EncodePNG(&out); err != nil {
		return out, fmt.Errorf("encode png: %w", err)
	}
	return out, nil
}

func (as *avatarService) pickColor(hexStr string) color.NRGBA {
	if c, ok := as.colorByHex[normalizeHex(hexStr)]; ok {
		return c
	}
	if r, g, b, err := parseHexRGB(hexStr); err == nil {
		return color.NRGBA{R: r, G: g, B: b, A: 255}
	}
	return as.colorByHex[as.colorHexes[0]]
}

func normalizeHex(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	if _, _, _, err := parseHexRGB(s); err != nil {
		return ""
	}
	return s
}

func parseHexRGB(s string) (r, g, b uint8, err error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return 0, 0, 0, fmt.Errorf("expected 6 hex chars")
	}
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != 3 {
		return 0, 0, 0, fmt.Errorf("invalid hex")
	}
	return raw[0], raw[1], raw[2], nil
}

func computeInitials(first, last string) string {
	initial := func(s string) string {
		r, _ := utf8.DecodeRuneInString(strings.TrimSpace(s))
		if r == utf8.RuneError {
			return ""
		}
		return string(unicode.ToUpper(r))
	}
	out := initial(first) + initial(last)
	if out == "" {
		return "?"
	}
	return out
}
