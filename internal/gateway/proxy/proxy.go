package proxy

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/log"
)

var client = &http.Client{Timeout: 30 * time.Second}

// ============================================================
// Proxy Handler
// ============================================================

// ProxyTo forwards every request to targetURL as is.
func ProxyTo(targetURL string) fiber.Handler {
	return func(c fiber.Ctx) error {
		return forwardRequest(c, targetURL)
	}
}

// Mount forwards requests under prefix to the same path under targetURL,
// keeping the query string.
func Mount(prefix, targetURL string) fiber.Handler {
	targetURL = strings.TrimSuffix(targetURL, "/")
	return func(c fiber.Ctx) error {
		return forwardRequest(c, Target(targetURL, prefix, c.Path(), string(c.Request().URI().QueryString())))
	}
}

// Target builds the upstream URL for path once prefix is cut off.
func Target(targetURL, prefix, path, query string) string {
	rest := strings.TrimPrefix(path, prefix)
	if !strings.HasPrefix(rest, "/") {
		rest = "/" + rest
	}
	if query != "" {
		return fmt.Sprintf("%s%s?%s", targetURL, rest, query)
	}
	return targetURL + rest
}

// forwardRequest sends any method upstream, rebuilding multipart bodies.
func forwardRequest(c fiber.Ctx, targetURL string) error {
	log.Debugf("[PROXY] %s %s -> %s (%d bytes, %s)",
		c.Method(), c.Path(), targetURL, len(c.Body()), c.Get("Content-Type"))

	contentType := c.Get("Content-Type")
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		return sendRaw(c, targetURL, contentType)
	}

	return sendMultipart(c, targetURL)
}

func sendRaw(c fiber.Ctx, targetURL, contentType string) error {
	var body io.Reader
	if len(c.Body()) > 0 {
		body = bytes.NewReader(c.Body())
	}
	req, err := http.NewRequestWithContext(c.Context(), c.Method(), targetURL, body)
	if err != nil {
		log.Errorf("[PROXY] build request error: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "proxy failed"})
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if accept := c.Get("Accept"); accept != "" {
		req.Header.Set("Accept", accept)
	}

	return do(c, req)
}

func sendMultipart(c fiber.Ctx, targetURL string) error {
	form, err := c.MultipartForm()
	if err != nil {
		log.Warnf("[PROXY] Failed to parse multipart: %v", err)
		return c.Status(400).JSON(fiber.Map{"error": "invalid multipart data"})
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for key, files := range form.File {
		for _, fileHeader := range files {
			if err := copyPart(writer, key, fileHeader); err != nil {
				log.Warnf("[PROXY] skipping file %q: %v", fileHeader.Filename, err)
			}
		}
	}

	for key, values := range form.Value {
		for _, value := range values {
			if err := writer.WriteField(key, value); err != nil {
				return c.Status(500).JSON(fiber.Map{"error": "proxy failed"})
			}
		}
	}

	if err := writer.Close(); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "proxy failed"})
	}

	req, err := http.NewRequestWithContext(c.Context(), c.Method(), targetURL, bytes.NewReader(body.Bytes()))
	if err != nil {
		log.Errorf("[PROXY] build multipart request error: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "proxy failed"})
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return do(c, req)
}

func copyPart(w *multipart.Writer, key string, fh *multipart.FileHeader) error {
	file, err := fh.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, key, fh.Filename))
	h.Set("Content-Type", fh.Header.Get("Content-Type"))

	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, file)
	return err
}

func do(c fiber.Ctx, req *http.Request) error {
	resp, err := client.Do(req)
	if err != nil {
		log.Errorf("[PROXY] upstream error: %v", err)
		return c.Status(502).JSON(fiber.Map{"error": "failed to reach upstream service"})
	}
	defer resp.Body.Close()

	return copyResponse(c, resp)
}

func copyResponse(c fiber.Ctx, resp *http.Response) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Errorf("[PROXY] Read response error: %v", err)
		return c.Status(502).JSON(fiber.Map{"error": "invalid upstream response"})
	}

	for key, values := range resp.Header {
		if len(values) > 0 {
			c.Set(key, values[0])
		}
	}

	c.Status(resp.StatusCode)
	return c.Send(data)
}
