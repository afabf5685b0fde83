package security

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateContent_AcceptsRecordFiles(t *testing.T) {
	fv := NewFileValidator()

	assert.NoError(t, fv.ValidateContent("adhd.json", []byte(`{"id": "condition-adhd"}`)))
	assert.NoError(t, fv.ValidateContent("many.json", []byte("\n  [ {}, {} ]")))
	assert.NoError(t, fv.ValidateContent("bom.json", append([]byte{0xEF, 0xBB, 0xBF}, '{', '}')))
	assert.NoError(t, fv.ValidateContent("adhd.yaml", []byte("# ADHD\n---\nid: condition-adhd\n")))
	assert.NoError(t, fv.ValidateContent("notes.yml", []byte("name: Trastorno por déficit de atención\n")))
}

func TestValidateContent_RejectsDisguisedBinaries(t *testing.T) {
	fv := NewFileValidator()

	png := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00}
	err := fv.ValidateContent("ecg.json", png)
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "png")
	}

	err = fv.ValidateContent("slides.yaml", []byte{0x25, 0x50, 0x44, 0x46, 0x2D, '1', '.', '7'})
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "pdf")
	}

	assert.Error(t, fv.ValidateContent("blob.json", []byte{'{', 0x00, 0x01, 0x02}))
}

func TestValidateContent_ShapeByExtension(t *testing.T) {
	fv := NewFileValidator()

	assert.NoError(t, fv.ValidateContent("empty.json", []byte("  \n")), "an empty file holds no records")
	assert.Error(t, fv.ValidateContent("scalar.json", []byte(`"condition-adhd"`)))

	err := fv.ValidateContent("tabs.yaml", []byte("id: condition-adhd\nkeywords:\n\t- focus\n"))
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "line 3")
	}
	assert.NoError(t, fv.ValidateContent("comment.yaml", []byte("# only a comment\n---\n")))
	assert.NoError(t, fv.ValidateContent("README", []byte("anything")))
}

func TestIsBinaryData(t *testing.T) {
	fv := NewFileValidator()

	assert.False(t, fv.isBinaryData(nil))
	assert.False(t, fv.isBinaryData([]byte("plain text\twith tabs\r\n")))
	assert.True(t, fv.isBinaryData(bytes.Repeat([]byte{0x01, 0x02, 'a'}, 10)))
}

func TestValidateContent_HeaderOnly(t *testing.T) {
	fv := &FileValidator{HeaderSize: 4}
	data := append([]byte(`{"a"`), 0x00)
	assert.NoError(t, fv.ValidateContent("big.json", data), "bytes past the header are not inspected")
}
