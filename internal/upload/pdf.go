package upload

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var pdfMagic = []byte("%PDF-")

// PreparePDF validates and optimizes a PDF and returns the optimized bytes
// with its page count.
func PreparePDF(data []byte) ([]byte, int, error) {
	if err := CheckSize(data, MaxDocumentBytes); err != nil {
		return nil, 0, err
	}
	if !bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), pdfMagic) {
		return nil, 0, fmt.Errorf("%w: not a PDF", ErrUnsupportedType)
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	var optimized bytes.Buffer
	if err := api.Optimize(bytes.NewReader(data), &optimized, conf); err != nil {
		return nil, 0, fmt.Errorf("%w: failed to validate/optimize PDF: %v", ErrUnsupportedType, err)
	}
	pages, err := api.PageCount(bytes.NewReader(optimized.Bytes()), conf)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get page count: %w", err)
	}
	return optimized.Bytes(), pages, nil
}
