// Package encoding provides text decoding for names stored in SGM model files.
package encoding

import (
	"errors"
	"fmt"
	"strings"

	xenc "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

// Encoding errors.
var (
	ErrInvalidUTF8     = errors.New("invalid UTF-8 sequence")
	ErrInvalidEUCKR    = errors.New("invalid EUC-KR sequence")
	ErrUnknownEncoding = errors.New("unknown name encoding")
)

// NameDecoder converts a raw name byte run into a Go string.
type NameDecoder func(data []byte) (string, error)

// DecodeUTF8 validates data as UTF-8 and returns it as a string.
func DecodeUTF8(data []byte) (string, error) {
	if _, _, err := transform.Bytes(xenc.UTF8Validator, data); err != nil {
		return "", fmt.Errorf("%w: % x", ErrInvalidUTF8, data)
	}
	return string(data), nil
}

// DecodeEUCKR converts EUC-KR encoded bytes to a UTF-8 string.
// Assets exported by older Korean toolchains store texture names this way.
func DecodeEUCKR(data []byte) (string, error) {
	result, _, err := transform.Bytes(korean.EUCKR.NewDecoder(), data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidEUCKR, err)
	}
	return string(result), nil
}

// NameDecoderFor returns the decoder registered under name.
// An empty name selects strict UTF-8.
func NameDecoderFor(name string) (NameDecoder, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return DecodeUTF8, nil
	case "euc-kr", "euckr", "cp949":
		return DecodeEUCKR, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
	}
}
