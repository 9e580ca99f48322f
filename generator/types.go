package generator

import "fmt"

// InputType 表示用户提交的是网址还是纯文本。
type InputType string

const (
	InputURL  InputType = "url"
	InputText InputType = "text"
)

// ParseInputType validates a raw input type string.
func ParseInputType(s string) (InputType, error) {
	switch InputType(s) {
	case InputURL, InputText:
		return InputType(s), nil
	default:
		return "", fmt.Errorf("unknown input type %q", s)
	}
}

// TextContent is the text half of a content generation: two HTML articles
// plus the prompt used for the accompanying image.
type TextContent struct {
	BlogPost         string `json:"blogPost"`
	BriefingDocument string `json:"briefingDocument"`
	ImagePrompt      string `json:"imagePrompt"`
}

// Image 是图像模型返回的原始字节。
type Image struct {
	Data     []byte
	MIMEType string
}

// Source 是抓取网页后得到的正文。
type Source struct {
	URL   string
	Title string
	Text  string
}
