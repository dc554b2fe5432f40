package forms

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// MaxImageSize bounds uploads read into memory
const MaxImageSize = 10 << 20

// ErrInvalidImage is returned for uploads that are not decodable images
var ErrInvalidImage = errors.New(MsgInvalidImage)

// Upload is a validated image ready to be stored
type Upload struct {
	Filename string
	MIME     string
	Width    int
	Height   int
	Data     []byte
}

// ReadImage loads and validates an uploaded file
func ReadImage(fh *multipart.FileHeader) (*Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) > MaxImageSize {
		return nil, ErrInvalidImage
	}
	return ValidateImage(fh.Filename, data)
}

// ValidateImage checks that data is an image in one of the supported
// formats and that its header decodes
func ValidateImage(filename string, data []byte) (*Upload, error) {
	if len(data) == 0 {
		return nil, ErrInvalidImage
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, ErrInvalidImage
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, ErrInvalidImage
	}

	return &Upload{
		Filename: filename,
		MIME:     mt.String(),
		Width:    cfg.Width,
		Height:   cfg.Height,
		Data:     data,
	}, nil
}
