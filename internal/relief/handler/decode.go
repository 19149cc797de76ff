package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"

	dErrors "relief/pkg/domain-errors"
)

const maxBodyBytes = 1 << 20

var errInvalidBody = dErrors.New(dErrors.CodeBadRequest, "Invalid request body")

// decodeFields reads a JSON object or a form post into a raw field map.
// JSON numbers stay json.Number so integer columns are coerced exactly.
// An empty body decodes to an empty map.
func decodeFields(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		return decodeForm(r, mediaType)
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, errInvalidBody
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]any{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, errInvalidBody
	}
	if dec.More() {
		return nil, errInvalidBody
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

// decodeForm keeps the first value of each form key.
func decodeForm(r *http.Request, mediaType string) (map[string]any, error) {
	var err error
	if mediaType == "multipart/form-data" {
		err = r.ParseMultipartForm(maxBodyBytes)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		return nil, errInvalidBody
	}
	fields := make(map[string]any, len(r.PostForm))
	for key, values := range r.PostForm {
		if len(values) > 0 {
			fields[key] = values[0]
		}
	}
	return fields, nil
}
