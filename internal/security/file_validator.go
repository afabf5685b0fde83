package security

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// FileValidator checks that a content file is text of the kind its
// extension claims before it is decoded. An image or archive renamed to
// .json is rejected with a clear error instead of a confusing decode error.
type FileValidator struct {
	HeaderSize int // bytes inspected at the start of the file
}

func NewFileValidator() *FileValidator {
	return &FileValidator{HeaderSize: 64 * 1024}
}

// binary signatures that never start a text record file
var magicBytes = map[string][]byte{
	"png":  {0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A},
	"jpeg": {0xFF, 0xD8, 0xFF},
	"gif":  {0x47, 0x49, 0x46, 0x38},
	"pdf":  {0x25, 0x50, 0x44, 0x46, 0x2D},
	"zip":  {0x50, 0x4B, 0x03, 0x04},
	"gzip": {0x1F, 0x8B},
	"exe":  {0x4D, 0x5A},
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ValidateContent inspects the header of data read from path
func (fv *FileValidator) ValidateContent(path string, data []byte) error {
	header := data
	if fv.HeaderSize > 0 && len(header) > fv.HeaderSize {
		header = header[:fv.HeaderSize]
	}

	if err := fv.checkMagicBytes(header); err != nil {
		return err
	}
	if fv.isBinaryData(header) {
		return errors.New("file appears to be binary (content extension on binary file)")
	}
	return fv.validateContentFile(path, header)
}

// checkMagicBytes rejects headers carrying a known binary signature
func (fv *FileValidator) checkMagicBytes(header []byte) error {
	for kind, magic := range magicBytes {
		if bytes.HasPrefix(header, magic) {
			return fmt.Errorf("file starts with %s magic bytes (file may be disguised)", kind)
		}
	}
	return nil
}

// isBinaryData checks if file contains binary data
func (fv *FileValidator) isBinaryData(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return true
	}

	// Control characters (0-31 except tab, LF, CR) and DEL
	nonPrintable := 0
	for _, b := range data {
		if b < 9 || (b > 13 && b < 32) || b == 127 {
			nonPrintable++
		}
	}

	// If more than 30% non-printable, consider binary
	ratio := float64(nonPrintable) / float64(len(data))
	return ratio > 0.3
}

// validateContentFile checks the header matches the extension
func (fv *FileValidator) validateContentFile(path string, header []byte) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return fv.validateJSONFile(header)
	case ".yaml", ".yml":
		return fv.validateYAMLFile(header)
	}
	return nil
}

// validateJSONFile requires an object or array as the first value. An
// empty file holds no records and passes.
func (fv *FileValidator) validateJSONFile(header []byte) error {
	trimmed := bytes.TrimLeft(bytes.TrimPrefix(header, utf8BOM), " \t\r\n")
	if len(trimmed) == 0 {
		return nil
	}
	if trimmed[0] != '{' && trimmed[0] != '[' {
		return fmt.Errorf("JSON content must start with an object or array, found %q", trimmed[0])
	}
	return nil
}

// validateYAMLFile rejects tab indentation, which YAML does not allow
func (fv *FileValidator) validateYAMLFile(header []byte) error {
	for i, line := range bytes.Split(bytes.TrimPrefix(header, utf8BOM), []byte("\n")) {
		indent := line[:len(line)-len(bytes.TrimLeft(line, " \t"))]
		if bytes.IndexByte(indent, '\t') >= 0 && len(bytes.TrimSpace(line)) > 0 {
			return fmt.Errorf("line %d is indented with a tab", i+1)
		}
	}
	return nil
}
