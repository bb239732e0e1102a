package generator

import (
	"crypto/sha256"
	"encoding/hex"
	"mime"
	"net/http"
	"strconv"
	"strings"
)

// contentKey はデータ内容から決まるキャッシュキーを返すのだ。
func contentKey(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// detectMIME は MIME 不明の添付に対して内容から推定するのだ。
func detectMIME(data []byte) string {
	return http.DetectContentType(data)
}

// sampleRateFromMIME は "audio/L16;codec=pcm;rate=24000" のような MIME から
// サンプルレートを取り出します。見つからない場合は fallback を返します。
func sampleRateFromMIME(mimeType string, fallback int) int {
	_, params, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return fallback
	}
	rate, err := strconv.Atoi(strings.TrimSpace(params["rate"]))
	if err != nil || rate <= 0 {
		return fallback
	}
	return rate
}
