// Package render turns model output into HTML that is safe to embed in a page.
package render

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// DefaultDownloadName 与前端下载按钮保持一致。
const DefaultDownloadName = "generated-image.jpeg"

var (
	md = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)
	policy = bluemonday.UGCPolicy()
)

// MarkdownToHTML converts Markdown to sanitized HTML.
func MarkdownToHTML(src string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return SanitizeHTML(buf.String()), nil
}

// SanitizeHTML 去掉脚本、事件属性等不安全内容。
func SanitizeHTML(s string) string {
	return strings.TrimSpace(policy.Sanitize(s))
}

// LooksLikeHTML reports whether the model already answered with markup.
func LooksLikeHTML(s string) bool {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "<") {
		return false
	}
	for _, tag := range []string{"<p", "<h", "<div", "<ul", "<ol", "<article", "<section"} {
		if strings.HasPrefix(strings.ToLower(t), tag) {
			return true
		}
	}
	return false
}

// Body renders a model-produced body, accepting either Markdown or HTML.
func Body(s string) (string, error) {
	if LooksLikeHTML(s) {
		return SanitizeHTML(s), nil
	}
	return MarkdownToHTML(s)
}

// DecodeImage decodes a base64 image payload and sniffs its content type.
func DecodeImage(b64 string) ([]byte, string, error) {
	b64 = strings.TrimSpace(b64)
	if b64 == "" {
		return nil, "", errors.New("image payload is empty")
	}
	data, err := base64.StdEncoding.DecodeString(stripDataPrefix(b64))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	return data, http.DetectContentType(data), nil
}

// DownloadName picks a file name for the given content type.
func DownloadName(mime string) string {
	switch mime {
	case "image/png":
		return "generated-image.png"
	case "image/webp":
		return "generated-image.webp"
	default:
		return DefaultDownloadName
	}
}

// ImageMIME sniffs the content type of a base64 image from its first bytes.
// It returns "" when the payload cannot be decoded.
func ImageMIME(b64 string) string {
	b64 = stripDataPrefix(strings.TrimSpace(b64))
	if len(b64) > sniffChars {
		b64 = b64[:sniffChars]
	}
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil || len(data) == 0 {
		return ""
	}
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return ""
	}
	return mime
}

// 64 个 base64 字符 = 48 字节，足够覆盖 PNG/JPEG/GIF/WebP 的文件头。
const sniffChars = 64

func stripDataPrefix(b64 string) string {
	if i := strings.Index(b64, ";base64,"); strings.HasPrefix(b64, "data:") && i > 0 {
		return b64[i+len(";base64,"):]
	}
	return b64
}

// DataURI 生成可直接放进 <img src> 的地址。
func DataURI(mime, b64 string) string {
	if strings.HasPrefix(b64, "data:") {
		return b64
	}
	if mime == "" {
		mime = "image/jpeg"
	}
	return "data:" + mime + ";base64," + b64
}
