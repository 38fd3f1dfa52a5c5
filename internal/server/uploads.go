package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"idportal/internal/models"
	"idportal/internal/service"

	"github.com/gofiber/fiber/v2"
)

// submission is a parsed create request: the form values and any uploads.
type submission struct {
	fields     map[string]string
	supporting string
	uploads    []service.Upload
}

// parseSubmission reads a JSON body or a multipart form. JSON submissions
// carry no files. Values are flattened to strings; supportingDocuments keeps
// its JSON encoding.
func (s *Server) parseSubmission(c *fiber.Ctx) (*submission, error) {
	out := &submission{fields: map[string]string{}}

	if strings.Contains(string(c.Request().Header.ContentType()), fiber.MIMEApplicationJSON) {
		var body map[string]any
		dec := json.NewDecoder(bytes.NewReader(c.Body()))
		dec.UseNumber()
		if err := dec.Decode(&body); err != nil {
			return nil, models.NewValidationError("Invalid request body")
		}
		for key, value := range body {
			if key == "supportingDocuments" {
				raw, err := json.Marshal(value)
				if err != nil {
					return nil, models.NewValidationError("Invalid supportingDocuments")
				}
				out.supporting = string(raw)
				continue
			}
			out.fields[key] = stringify(value)
		}
		return out, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, models.NewValidationError("Invalid form data")
	}
	for key, values := range form.Value {
		if len(values) == 0 {
			continue
		}
		if key == "supportingDocuments" {
			out.supporting = values[0]
			continue
		}
		out.fields[key] = values[0]
	}

	limit := s.maxUploadBytes()
	for field, headers := range form.File {
		if len(headers) == 0 {
			continue
		}
		fh := headers[0]
		if limit > 0 && fh.Size > limit {
			return nil, models.NewValidationError(fmt.Sprintf("File %s exceeds the %d MB limit", field, limit>>20))
		}
		out.uploads = append(out.uploads, uploadFromHeader(field, fh))
	}
	return out, nil
}

func uploadFromHeader(field string, fh *multipart.FileHeader) service.Upload {
	return service.Upload{
		Field:       field,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

func (s *Server) maxUploadBytes() int64 {
	if s.config == nil || s.config.MaxUploadSizeMB <= 0 {
		return 0
	}
	return int64(s.config.MaxUploadSizeMB) << 20
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		raw, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(raw)
	}
}
