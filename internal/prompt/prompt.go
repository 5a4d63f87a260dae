package prompt

// Mode is the closed set of assistant personas. Each mode carries its
// own system instruction text, so a mistyped tag can never silently
// fall through to a default prompt.
type Mode string

const (
	ModeSchool     Mode = "school"
	ModeUniversity Mode = "university"
	ModeWork       Mode = "work"
	ModeFree       Mode = "free"
	ModeSummary    Mode = "summary"
	ModeExplain    Mode = "explain"
)

// DefaultMode is the mode assigned to a never-seen user.
const DefaultMode = ModeFree

// Modes lists every mode in keyboard order.
var Modes = []Mode{ModeSchool, ModeUniversity, ModeWork, ModeFree, ModeSummary, ModeExplain}

const basePrompt = `
ВСЕГДА соблюдай эти правила форматирования:
1. НЕ используй Markdown разметку (**жирный**, *курсив*, ### заголовки)
2. НЕ используй эмодзи в основном тексте ответа
3. Используй только простые символы для структуры: -, •, цифры
4. Разделяй длинные ответы на логические блоки
5. Форматируй так, чтобы текст можно было легко копировать в Word
6. Используй пустые строки между абзацами
7. Если нужны заголовки - пиши их с новой строки без специальных символов

Отвечай на русском языке.
`

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeSchool, ModeUniversity, ModeWork, ModeFree, ModeSummary, ModeExplain:
		return true
	}
	return false
}

// SystemPrompt returns the full system instruction for the mode.
func (m Mode) SystemPrompt() string {
	switch m {
	case ModeSchool:
		return basePrompt + `
Ты - добрый и терпеливый репетитор для школьника.
Объясняй всё просто, пошагово, с примерами из жизни.

НЕ ИСПОЛЬЗУЙ и НЕ УПОМИНАЙ:
- тригонометрию, синусы/косинусы
- логарифмы, экспоненты
- дифференцирование, интегралы, производные

Если тема требует этих понятий - скажи, что это пока не входит в школьную программу.
Давай полные решения уравнений, а не только ответы.
`
	case ModeUniversity:
		return basePrompt + `
Ты - эксперт, помогающий студенту университета или колледжа.
Давай глубокие, структурированные объяснения.
Можешь использовать профессиональную терминологию, но поясняй её.
Помогай с анализом, академическим письмом, подготовкой к экзаменам.
Форматируй ответы как готовые академические тексты.
`
	case ModeWork:
		return basePrompt + `
Ты - профессиональный деловой ассистент.
Будь кратким, конкретным и практичным.
Помогай с письмами, анализом, планированием, презентациями.
Избегай жаргона, если он не уместен.
Форматируй ответы как готовые бизнес-документы.
`
	case ModeSummary:
		return basePrompt + `
Ты - мастер создания конспектов.
Преврати присланный текст в структурированный конспект:
- ключевые тезисы
- основные выводы
- важные детали
Сделай информацию легко усваиваемой.
`
	case ModeExplain:
		return basePrompt + `
Ты - эксперт по объяснению сложного простыми словами.
Используй аналогии, примеры, пошаговые объяснения.
Проверяй, понятно ли объяснение.
`
	default:
		return basePrompt + `
Ты - умный и дружелюбный собеседник.
Общайся естественно, отвечай на любые вопросы, помогай с творчеством.
`
	}
}

// Emoji returns the emoji used in dialog summaries.
func (m Mode) Emoji() string {
	switch m {
	case ModeSchool:
		return "🎒"
	case ModeUniversity:
		return "🎓"
	case ModeWork:
		return "💼"
	case ModeFree:
		return "💬"
	case ModeSummary:
		return "📚"
	case ModeExplain:
		return "🤔"
	default:
		return "❓"
	}
}

// Label returns the reply-keyboard button text for the mode.
func (m Mode) Label() string {
	switch m {
	case ModeSchool:
		return "🎒 Школьный режим"
	case ModeUniversity:
		return "🎓 Универ/Колледж"
	case ModeWork:
		return "💼 Рабочий режим"
	case ModeFree:
		return "💬 Свободный диалог"
	case ModeSummary:
		return "📚 Конспект"
	case ModeExplain:
		return "🤔 Объяснить понятно"
	default:
		return string(m)
	}
}

// DisplayName returns the short name used in confirmations.
func (m Mode) DisplayName() string {
	switch m {
	case ModeSchool:
		return "🎒 Школьный"
	case ModeUniversity:
		return "🎓 Универ/Колледж"
	case ModeWork:
		return "💼 Рабочий"
	case ModeFree:
		return "💬 Свободный"
	case ModeSummary:
		return "📚 Конспект"
	case ModeExplain:
		return "🤔 Объяснить"
	default:
		return string(m)
	}
}

// FromLabel maps a reply-keyboard button text back to its mode.
func FromLabel(text string) (Mode, bool) {
	for _, m := range Modes {
		if m.Label() == text {
			return m, true
		}
	}
	return "", false
}

// Parse validates a stored mode tag, falling back to the default for
// unknown values so old rows never break prompt construction.
func Parse(tag string) Mode {
	m := Mode(tag)
	if !m.Valid() {
		return DefaultMode
	}
	return m
}
