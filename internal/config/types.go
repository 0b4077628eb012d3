package config

import "strings"

// FallbackLanguage is used when a user's language has no message table.
const FallbackLanguage = "en"

// Messages is one language's set of user-facing texts.
// Size and Duration are sent with Markdown; Start, Help and Webm with HTML.
type Messages struct {
	Start         string `mapstructure:"start"`
	Help          string `mapstructure:"help"`
	Size          string `mapstructure:"size"`
	Duration      string `mapstructure:"duration"`
	NotSquare     string `mapstructure:"not_square"`
	Dimensions    string `mapstructure:"dimensions"`
	ContentError  string `mapstructure:"content_error"`
	Webm          string `mapstructure:"webm"`
	Text          string `mapstructure:"text"`
	Error         string `mapstructure:"error"`
	RelaySent     string `mapstructure:"relay_sent"`
	RelayFailed   string `mapstructure:"relay_failed"`
	Stats         string `mapstructure:"stats"`
	NotAuthorized string `mapstructure:"not_authorized"`
}

// Catalog maps language codes to message tables.
type Catalog map[string]Messages

// For returns the table for languageCode, falling back to English.
func (c Catalog) For(languageCode string) Messages {
	if m, ok := c[c.Language(languageCode)]; ok {
		return m
	}
	return c[FallbackLanguage]
}

// Language resolves the catalog key that will be used for languageCode.
func (c Catalog) Language(languageCode string) string {
	code := strings.ToLower(languageCode)
	if _, ok := c[code]; ok && code != "" {
		return code
	}
	return FallbackLanguage
}

// mergeCatalog overlays user-provided texts on top of the built-in ones.
// Empty user fields keep the built-in value.
func mergeCatalog(base, override Catalog) Catalog {
	out := make(Catalog, len(base)+len(override))
	for lang, m := range base {
		out[lang] = m
	}
	for lang, m := range override {
		lang = strings.ToLower(lang)
		b, ok := out[lang]
		if !ok {
			b = out[FallbackLanguage]
		}
		out[lang] = overlay(b, m)
	}
	return out
}

func overlay(b, m Messages) Messages {
	pick := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}
	pick(&b.Start, m.Start)
	pick(&b.Help, m.Help)
	pick(&b.Size, m.Size)
	pick(&b.Duration, m.Duration)
	pick(&b.NotSquare, m.NotSquare)
	pick(&b.Dimensions, m.Dimensions)
	pick(&b.ContentError, m.ContentError)
	pick(&b.Webm, m.Webm)
	pick(&b.Text, m.Text)
	pick(&b.Error, m.Error)
	pick(&b.RelaySent, m.RelaySent)
	pick(&b.RelayFailed, m.RelayFailed)
	pick(&b.Stats, m.Stats)
	pick(&b.NotAuthorized, m.NotAuthorized)
	return b
}

// DefaultCatalog returns the built-in English and Russian tables.
func DefaultCatalog() Catalog {
	return Catalog{
		"en": {
			Start: "Hi, <b>%s</b>! Send me a square video up to 1 minute long and I will turn it into a round video message.\n\n" +
				"Read more about video messages: %s",
			Help: "<b>How to use the bot</b>\n\n" +
				"1. Crop your video to a square (for example, 640×640).\n" +
				"2. Make sure it is no longer than 60 seconds and smaller than 8 MB.\n" +
				"3. Send it to me as a video, not as a file.\n\n" +
				"Send me a video message and I will turn it back into a regular video.",
			Size:          "The video is *too big*. Video messages must be smaller than 8 MB.",
			Duration:      "The video is *too long*. Video messages can be at most 60 seconds long.",
			NotSquare:     "The video is not square. Crop it so width and height are equal, then send it again.",
			Dimensions:    "The video is too large. Video messages can be at most 640×640 pixels.",
			ContentError:  "I can only convert videos. Please send your video as a video, not as a GIF or a file.",
			Webm:          "WebM files can't be converted. Please re-encode your video as <b>MP4</b> and send it as a video.",
			Text:          "Send me a square video and I will turn it into a video message. Use /help for details.",
			Error:         "Something went wrong. Please try again later.",
			RelaySent:     "Sent ✅",
			RelayFailed:   "Error ❌",
			Stats:         "Events in the last 24 hours:",
			NotAuthorized: "You are not authorized to use this command.",
		},
		"ru": {
			Start: "Привет, <b>%s</b>! Пришли мне квадратное видео длиной до минуты, и я превращу его в видеосообщение.\n\n" +
				"Подробнее о видеосообщениях: %s",
			Help: "<b>Как пользоваться ботом</b>\n\n" +
				"1. Обрежь видео до квадрата (например, 640×640).\n" +
				"2. Видео должно быть не длиннее 60 секунд и меньше 8 МБ.\n" +
				"3. Отправь его как видео, а не как файл.\n\n" +
				"Пришли видеосообщение, и я превращу его обратно в обычное видео.",
			Size:          "Видео *слишком большое*. Видеосообщение должно весить меньше 8 МБ.",
			Duration:      "Видео *слишком длинное*. Видеосообщение может длиться не больше 60 секунд.",
			NotSquare:     "Видео не квадратное. Обрежь его так, чтобы ширина и высота совпадали, и пришли снова.",
			Dimensions:    "Разрешение слишком большое. Видеосообщение может быть не больше 640×640 пикселей.",
			ContentError:  "Я умею конвертировать только видео. Отправь видео как видео, а не как GIF или файл.",
			Webm:          "Файлы WebM не поддерживаются. Перекодируй видео в <b>MP4</b> и отправь его как видео.",
			Text:          "Пришли мне квадратное видео, и я сделаю из него видеосообщение. Подробности: /help",
			Error:         "Что-то пошло не так. Попробуй ещё раз позже.",
			RelaySent:     "Отправлено ✅",
			RelayFailed:   "Ошибка ❌",
			Stats:         "События за последние 24 часа:",
			NotAuthorized: "У тебя нет доступа к этой команде.",
		},
	}
}
