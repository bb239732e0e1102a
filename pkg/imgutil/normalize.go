package imgutil

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"net/http"
	"strings"
)

// DefaultQuality は再圧縮時の JPEG 品質です。
const DefaultQuality = 85

// ErrNotImage は入力が画像として判定できなかったことを示します。
var ErrNotImage = errors.New("data is not an image")

// Options は Normalize の挙動を制御します。
type Options struct {
	// MaxBytes を超える画像は JPEG へ再圧縮します。0 以下なら再圧縮しません。
	MaxBytes int
	Quality  int
}

// DetectMIME はバイト列から MIME タイプを判定します。画像でなければ ErrNotImage を返します。
func DetectMIME(data []byte) (string, error) {
	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return "", fmt.Errorf("%w: detected %s", ErrNotImage, mimeType)
	}
	return mimeType, nil
}

// Normalize は添付画像の MIME を確定し、必要に応じて JPEG に再圧縮します。
// 再圧縮しても小さくならない場合や、デコードできない形式(webp 等)は元のデータを返します。
func Normalize(data []byte, opts Options) ([]byte, string, error) {
	mimeType, err := DetectMIME(data)
	if err != nil {
		return nil, "", err
	}
	if opts.MaxBytes <= 0 || len(data) <= opts.MaxBytes {
		return data, mimeType, nil
	}

	quality := opts.Quality
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	compressed, err := CompressToJPEG(data, quality)
	if err != nil || len(compressed) >= len(data) {
		return data, mimeType, nil
	}
	return compressed, "image/jpeg", nil
}

// CompressToJPEG は画像データ（PNG, GIF, JPEG）を JPEG に変換します。
// 透過部分は白背景に合成されます。
func CompressToJPEG(data []byte, quality int) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	// JPEG はアルファを持てないため、白で塗りつぶしてから描画する
	flat := image.NewRGBA(src.Bounds())
	draw.Draw(flat, flat.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(flat, flat.Bounds(), src, src.Bounds().Min, draw.Over)

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, flat, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
