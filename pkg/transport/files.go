package transport

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/cuemby/ksm/pkg/kerr"
)

// DownloadBytes fetches an encrypted file body from its storage URL.
// File URLs are pre-signed and unauthenticated; the payload is opaque
// ciphertext the caller decrypts under the file key.
func (t *Transport) DownloadBytes(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, kerr.Wrap(kerr.KindHTTP, component, err, "failed to build download request")
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, kerr.Wrap(kerr.KindHTTP, component, err, "file download failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, kerr.New(kerr.KindFile, component, "file download returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, kerr.Wrap(kerr.KindHTTP, component, err, "failed to read file body")
	}
	return body, nil
}

// UploadMultipart POSTs the encrypted file body to the upload URL the
// server handed out, carrying its upload parameters as form fields plus
// a single "file" part. Any 2xx status is success.
func (t *Transport) UploadMultipart(ctx context.Context, url string, parameters map[string]string, encryptedFile []byte) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, value := range parameters {
		if err := w.WriteField(name, value); err != nil {
			return kerr.Wrap(kerr.KindFile, component, err, "failed to write upload field %s", name)
		}
	}
	part, err := w.CreateFormFile("file", "file")
	if err != nil {
		return kerr.Wrap(kerr.KindFile, component, err, "failed to create file part")
	}
	if _, err := part.Write(encryptedFile); err != nil {
		return kerr.Wrap(kerr.KindFile, component, err, "failed to write file part")
	}
	if err := w.Close(); err != nil {
		return kerr.Wrap(kerr.KindFile, component, err, "failed to finalize upload body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return kerr.Wrap(kerr.KindHTTP, component, err, "failed to build upload request")
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return kerr.Wrap(kerr.KindHTTP, component, err, "file upload failed")
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return kerr.New(kerr.KindFile, component, "file upload returned HTTP %d", resp.StatusCode)
	}
	return nil
}
