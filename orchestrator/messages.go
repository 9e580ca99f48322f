package orchestrator

// LoadingMessage is shown while a flow is running.
type LoadingMessage struct {
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

// Messages holds every user-facing string the orchestrator produces.
type Messages struct {
	EmptyContent     string
	EmptyText        string
	EmptyPrompt      string
	UnsupportedInput string

	ContentFailed string
	PromptFailed  string
	ImageFailed   string

	LoadingContent LoadingMessage
	LoadingPrompt  LoadingMessage
	LoadingImage   LoadingMessage
}

// English is the default catalogue.
var English = Messages{
	EmptyContent:     "please enter a valid URL or some text",
	EmptyText:        "please enter text to generate an image prompt from",
	EmptyPrompt:      "please enter an image prompt",
	UnsupportedInput: "input type must be url or text",

	ContentFailed: "content generation failed",
	PromptFailed:  "prompt generation failed",
	ImageFailed:   "image generation failed",

	LoadingContent: LoadingMessage{
		Message: "AI is analyzing and generating content...",
		Detail:  "Reading the source and writing the articles, please wait.",
	},
	LoadingPrompt: LoadingMessage{
		Message: "AI is generating an image prompt...",
		Detail:  "Turning the text into the best image prompt, please wait.",
	},
	LoadingImage: LoadingMessage{
		Message: "AI is generating an image...",
		Detail:  "Rendering the prompt into an image, this can take a while.",
	},
}

// TraditionalChinese 与原始前端的繁体中文文案一致。
var TraditionalChinese = Messages{
	EmptyContent:     "請輸入有效的網址或文字內容。",
	EmptyText:        "請輸入文字內容以生成圖像提示詞。",
	EmptyPrompt:      "請輸入圖像提示詞。",
	UnsupportedInput: "輸入類型必須是網址或文字。",

	ContentFailed: "內容生成失敗",
	PromptFailed:  "圖像提示詞生成失敗",
	ImageFailed:   "圖像生成失敗",

	LoadingContent: LoadingMessage{
		Message: "AI 正在分析並生成內容...",
		Detail:  "正在分析網頁並生成內容，請稍候。",
	},
	LoadingPrompt: LoadingMessage{
		Message: "AI 正在生成圖像提示詞...",
		Detail:  "正在根據文字生成最佳圖像提示詞，請稍候。",
	},
	LoadingImage: LoadingMessage{
		Message: "AI 正在生成圖像...",
		Detail:  "正在使用提示詞生成圖像，這可能需要一些時間。",
	},
}

// MessagesFor returns the catalogue for a locale tag, English by default.
func MessagesFor(locale string) Messages {
	switch locale {
	case "zh-TW", "zh-Hant", "zh_TW":
		return TraditionalChinese
	default:
		return English
	}
}

func (m Messages) label(s Stage) string {
	switch s {
	case StageContent:
		return m.ContentFailed
	case StagePrompt:
		return m.PromptFailed
	case StageImage:
		return m.ImageFailed
	default:
		return string(s) + " failed"
	}
}
