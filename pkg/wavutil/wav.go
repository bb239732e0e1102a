package wavutil

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// HeaderSize は PCM 形式の WAV ヘッダーのバイト数です。
	HeaderSize = 44
	// BitsPerSample は TTS が返す PCM のサンプル幅です。
	BitsPerSample = 16

	// Gemini TTS の出力は 24kHz / mono / 16bit の生 PCM です。
	SpeechSampleRate = 24000
	SpeechChannels   = 1
)

// EncodePCM は生の 16bit PCM を WAV コンテナに包みます。
// サンプルはそのままコピーされ、奇数長やサンプル幅の検証は行いません。
func EncodePCM(samples []byte, sampleRate, channels int) []byte {
	blockAlign := channels * BitsPerSample / 8
	byteRate := sampleRate * blockAlign

	out := make([]byte, HeaderSize+len(samples))
	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+len(samples)))
	copy(out[8:12], "WAVE")
	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16)
	binary.LittleEndian.PutUint16(out[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(out[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:36], BitsPerSample)
	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(len(samples)))
	copy(out[HeaderSize:], samples)
	return out
}

// PCM は WAV から取り出した生データとそのフォーマットです。
type PCM struct {
	Samples       []byte
	SampleRate    int
	Channels      int
	BitsPerSample int
}

var ErrInvalidWAV = errors.New("invalid wav data")

// DecodeWAV は EncodePCM が出力する 44 バイトヘッダー形式の WAV を解析します。
func DecodeWAV(data []byte) (*PCM, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the header", ErrInvalidWAV, len(data))
	}
	if !bytes.Equal(data[0:4], []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WAVE")) {
		return nil, fmt.Errorf("%w: missing RIFF/WAVE signature", ErrInvalidWAV)
	}
	if !bytes.Equal(data[12:16], []byte("fmt ")) || !bytes.Equal(data[36:40], []byte("data")) {
		return nil, fmt.Errorf("%w: unexpected chunk layout", ErrInvalidWAV)
	}
	if format := binary.LittleEndian.Uint16(data[20:22]); format != 1 {
		return nil, fmt.Errorf("%w: unsupported audio format %d", ErrInvalidWAV, format)
	}

	size := int(binary.LittleEndian.Uint32(data[40:44]))
	if riff := int(binary.LittleEndian.Uint32(data[4:8])); riff != 36+size {
		return nil, fmt.Errorf("%w: riff size %d does not match data size %d", ErrInvalidWAV, riff, size)
	}
	if HeaderSize+size > len(data) {
		return nil, fmt.Errorf("%w: data chunk declares %d bytes, only %d present", ErrInvalidWAV, size, len(data)-HeaderSize)
	}

	return &PCM{
		Samples:       data[HeaderSize : HeaderSize+size],
		SampleRate:    int(binary.LittleEndian.Uint32(data[24:28])),
		Channels:      int(binary.LittleEndian.Uint16(data[22:24])),
		BitsPerSample: int(binary.LittleEndian.Uint16(data[34:36])),
	}, nil
}
