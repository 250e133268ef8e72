package handler

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	csvimport "github.com/qm/backend/internal/infrastructure/import"
	"github.com/qm/backend/internal/interfaces/http/dto"
)

const uploadField = "file"

// uploadFile opens the sheet of a multipart import request. The optional
// encoding form field forces utf-8 or gb18030 instead of sniffing.
func (h *BaseHandler) uploadFile(c *gin.Context, maxSize int64) (multipart.File, []csvimport.ParserOption, bool) {
	header, err := c.FormFile(uploadField)
	if err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			h.HandleError(c, err)
			return nil, nil, false
		}
		h.Error(c, "INVALID_FILE", "a CSV file is required in the "+uploadField+" field")
		return nil, nil, false
	}
	if maxSize > 0 && header.Size > maxSize {
		h.Error(c, dto.ErrCodeTooLarge, "file exceeds the upload limit")
		return nil, nil, false
	}

	var opts []csvimport.ParserOption
	switch enc := c.PostForm("encoding"); enc {
	case "":
	case csvimport.EncodingUTF8, csvimport.EncodingGB18030:
		opts = append(opts, csvimport.WithEncoding(enc))
	default:
		h.Error(c, "INVALID_ENCODING", "encoding must be utf-8 or gb18030")
		return nil, nil, false
	}

	file, err := header.Open()
	if err != nil {
		h.HandleError(c, err)
		return nil, nil, false
	}
	return file, opts, true
}

// handleImportError answers sheet-level failures with 400
func (h *BaseHandler) handleImportError(c *gin.Context, err error) {
	for _, sheetErr := range []error{
		csvimport.ErrEmptyFile,
		csvimport.ErrInvalidEncoding,
		csvimport.ErrMissingHeader,
		csvimport.ErrMissingColumns,
		csvimport.ErrNoDataRows,
	} {
		if errors.Is(err, sheetErr) {
			h.Error(c, "INVALID_FILE", err.Error())
			return
		}
	}
	h.HandleError(c, err)
}
