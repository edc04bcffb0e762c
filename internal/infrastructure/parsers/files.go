package parsers

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	apperrors "github.com/aimat-lab/xrdpattern-sub000/internal/pkg/errors"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// checkSize fails with FileTooLarge when the file exceeds maxSize
func checkSize(path string, maxSize int64) error {
	stat, err := os.Stat(path)
	if err != nil {
		return apperrors.FileParseError(err, "failed to stat file")
	}
	if maxSize > 0 && stat.Size() > maxSize {
		return apperrors.FileTooLarge(stat.Size(), maxSize).WithDetails("path", path)
	}
	return nil
}

// readFile reads the whole file after the size guard
func readFile(path string, maxSize int64) ([]byte, error) {
	if err := checkSize(path, maxSize); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.FileParseError(err, "failed to read file")
	}
	return data, nil
}

// readPeek returns up to n leading bytes of the file
func readPeek(path string, n int) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	buf := make([]byte, n)
	read, err := io.ReadFull(file, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("failed to read file header: %w", err)
	}
	return buf[:read], nil
}

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16BE = []byte{0xFE, 0xFF}
	bomUTF16LE = []byte{0xFF, 0xFE}
)

func hasBOM(data []byte) bool {
	return bytes.HasPrefix(data, bomUTF8) ||
		bytes.HasPrefix(data, bomUTF16BE) ||
		bytes.HasPrefix(data, bomUTF16LE)
}

// decodeText normalizes instrument text exports to UTF-8. A BOM selects
// UTF-8 or UTF-16; without one, invalid UTF-8 is read as Windows-1252.
func decodeText(data []byte) (string, error) {
	var fallback transform.Transformer = unicode.UTF8.NewDecoder()
	if !hasBOM(data) && !utf8.Valid(data) {
		fallback = charmap.Windows1252.NewDecoder()
	}

	out, _, err := transform.Bytes(unicode.BOMOverride(fallback), data)
	if err != nil {
		return "", apperrors.FileParseError(err, "failed to decode text encoding")
	}
	return string(out), nil
}

// readText reads and normalizes a text file
func readText(path string, maxSize int64) (string, error) {
	data, err := readFile(path, maxSize)
	if err != nil {
		return "", err
	}
	return decodeText(data)
}

// normalizeHeader folds compatibility characters in a column header, so a
// superscript unit such as "Å⁻¹" reads as "å-1"
func normalizeHeader(header string) string {
	h := norm.NFKC.String(header)
	h = strings.ReplaceAll(h, "\u2212", "-")
	return strings.ToLower(strings.TrimSpace(h))
}
