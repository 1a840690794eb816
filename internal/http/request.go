package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
)

const maxRequestBody = 1 << 20

// requestFields holds the submitted body fields. A key is present only when
// the client sent it; JSON null counts as not sent.
type requestFields map[string]string

func (f requestFields) lookup(key string) (string, bool) {
	value, ok := f[key]
	return value, ok
}

func (f requestFields) get(key string) string {
	return f[key]
}

// readFields accepts url-encoded forms, multipart forms and flat JSON objects.
// JSON arrays of strings are joined with newlines.
func readFields(w http.ResponseWriter, r *http.Request) (requestFields, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		return readJSONFields(r.Body)
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxRequestBody); err != nil {
			return nil, err
		}
	default:
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
	}

	fields := make(requestFields, len(r.PostForm))
	for key, values := range r.PostForm {
		if len(values) > 0 {
			fields[key] = values[0]
		}
	}
	return fields, nil
}

func readJSONFields(body io.Reader) (requestFields, error) {
	decoder := json.NewDecoder(body)
	decoder.UseNumber()

	var raw map[string]any
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return requestFields{}, nil
		}
		return nil, err
	}

	fields := make(requestFields, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case nil:
		case string:
			fields[key] = v
		case json.Number:
			fields[key] = v.String()
		case bool:
			if v {
				fields[key] = "true"
			} else {
				fields[key] = ""
			}
		case []any:
			lines := make([]string, 0, len(v))
			for _, item := range v {
				s, ok := item.(string)
				if !ok {
					return nil, fmt.Errorf("field %q must contain strings", key)
				}
				lines = append(lines, s)
			}
			fields[key] = strings.Join(lines, "\n")
		default:
			return nil, fmt.Errorf("field %q has unsupported type", key)
		}
	}
	return fields, nil
}
