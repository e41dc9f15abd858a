package conversations

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ulikunitz/xz"
)

// compressThreshold is the largest UTF-8 payload stored uncompressed.
// Any stored value longer than this is an xz stream.
const compressThreshold = 25

// EncodeText converts text into its stored form. Payloads longer than
// compressThreshold bytes are xz-compressed.
func EncodeText(s string) ([]byte, error) {
	raw := []byte(s)
	if len(raw) <= compressThreshold {
		return raw, nil
	}

	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("create xz writer: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		return nil, fmt.Errorf("compress text: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finish xz stream: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeText reverses EncodeText using the same length rule.
func DecodeText(stored []byte) (string, error) {
	if len(stored) <= compressThreshold {
		return string(stored), nil
	}

	r, err := xz.NewReader(bytes.NewReader(stored))
	if err != nil {
		return "", fmt.Errorf("open xz stream: %w", err)
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("decompress text: %w", err)
	}
	return string(raw), nil
}
