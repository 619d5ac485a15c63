package upload

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
)

// ImageUpload is a profile photo taken from a request.
type ImageUpload struct {
	Data      []byte
	Filename  string
	Kgid      string
	UserEmail string
}

// imageJSON is the JSON alternative to multipart used by older clients.
type imageJSON struct {
	Image     string `json:"image"`
	Filename  string `json:"filename"`
	Kgid      string `json:"kgid"`
	UserEmail string `json:"userEmail"`
}

var kgidFilename = regexp.MustCompile(`(?i)^(\d+)\.(jpe?g|png)$`)

// KgidFromFilename reads the KGID clients encode as "<kgid>.jpg".
func KgidFromFilename(name string) string {
	m := kgidFilename.FindStringSubmatch(filepath.Base(strings.TrimSpace(name)))
	if m == nil {
		return ""
	}
	return m[1]
}

// ParseImageUpload reads a photo from a multipart form (field "file" or
// "image") or from a JSON body carrying a base64 image.
func ParseImageUpload(r *http.Request) (*ImageUpload, error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var up *ImageUpload
	var err error
	if ct == "multipart/form-data" {
		up, err = parseMultipart(r)
	} else {
		up, err = parseJSONImage(r)
	}
	if err != nil {
		return nil, err
	}

	if up.Kgid == "" {
		up.Kgid = strings.TrimSpace(r.URL.Query().Get("kgid"))
	}
	if up.Kgid == "" {
		up.Kgid = KgidFromFilename(up.Filename)
	}
	if err := CheckSize(up.Data, MaxImageBytes); err != nil {
		return nil, err
	}
	if _, err := Sniff(up.Data, ImageTypes...); err != nil {
		return nil, err
	}
	return up, nil
}

// maxMultipartBody leaves room for form fields and part headers.
const maxMultipartBody = MaxImageBytes + (1 << 20)

func parseMultipart(r *http.Request) (*ImageUpload, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxMultipartBody)
	if err := r.ParseMultipartForm(maxMultipartBody); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, ErrTooLarge
		}
		return nil, fmt.Errorf("failed to parse multipart form: %w", err)
	}
	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		file, header, err = r.FormFile("image")
	}
	if errors.Is(err, http.ErrMissingFile) {
		return nil, ErrNoFile
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read form file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded file: %w", err)
	}
	return &ImageUpload{
		Data:      data,
		Filename:  header.Filename,
		Kgid:      strings.TrimSpace(r.FormValue("kgid")),
		UserEmail: strings.TrimSpace(r.FormValue("userEmail")),
	}, nil
}

func parseJSONImage(r *http.Request) (*ImageUpload, error) {
	var body imageJSON
	// base64 inflates by a third.
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxImageBytes*2))
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("could not parse JSON: %w", err)
	}
	data, _, err := DecodeBase64(body.Image)
	if err != nil {
		return nil, err
	}
	return &ImageUpload{
		Data:      data,
		Filename:  body.Filename,
		Kgid:      strings.TrimSpace(body.Kgid),
		UserEmail: strings.TrimSpace(body.UserEmail),
	}, nil
}
