package parser

const escapeChar = '\\'

// Block markers.
const (
	headerChar     = '#'
	maxHeaderLevel = 6
	importOpen     = "<["
	importClose    = ']'
	codeFence      = "```"
	mathFence      = "$$$"
	quoteChar      = '>'
	pipe           = '|'
	centeredMarker = "||"
)

// Inline markers.
const (
	boldDelim        = "**"
	italicChar       = '*'
	underlineChar    = '_'
	strikeChar       = '~'
	monospaceChar    = '`'
	superscriptChar  = '^'
	mathDelim        = "$$"
	imageChar        = '!'
	bracketOpen      = '['
	bracketClose     = ']'
	parenOpen        = '('
	parenClose       = ')'
	braceOpen        = '{'
	braceClose       = '}'
	placeholderOpen  = "[["
	placeholderClose = "]]"
	bibRefOpen       = "[^"
	checkedBox       = "[x]"
	checkedBoxUpper  = "[X]"
	uncheckedBox     = "[ ]"
	emojiChar        = ':'
	colorOpen        = "§["
	colorReset       = "§[]"
	templateOpen     = "{{"
	templateClose    = "}}"
)

var (
	inlineWhitespace = []rune{' ', '\t'}
	unorderedMarkers = []rune{'-', '*', '+'}
	orderedMarkers   = []rune{'.', ')'}
	separatorChars   = []rune{'|', '-', ':', ' ', '\t'}

	// Plain text stops at these characters.
	inlineSpecial = []rune{italicChar, underlineChar, strikeChar, monospaceChar, superscriptChar}

	// Plain text stops at these characters unless they come first.
	inlineOpeners = []rune{bracketOpen, imageChar, parenOpen, '$', emojiChar, '§', braceOpen}
)

// escapable reports whether a backslash before r is dropped.
func escapable(r rune) bool {
	switch r {
	case escapeChar, '\n', headerChar, quoteChar, pipe, bracketClose, parenClose, braceClose, '-', '+':
		return true
	}
	for _, s := range inlineSpecial {
		if r == s {
			return true
		}
	}
	for _, s := range inlineOpeners {
		if r == s {
			return true
		}
	}
	return false
}

var emojis = map[string]rune{
	"+1":          '👍',
	"-1":          '👎',
	"thumbsup":    '👍',
	"thumbsdown":  '👎',
	"smile":       '😄',
	"grin":        '😁',
	"wink":        '😉',
	"heart":       '❤',
	"star":        '⭐',
	"sparkles":    '✨',
	"fire":        '🔥',
	"rocket":      '🚀',
	"tada":        '🎉',
	"bulb":        '💡',
	"memo":        '📝',
	"book":        '📖',
	"bug":         '🐛',
	"eyes":        '👀',
	"warning":     '⚠',
	"info":        'ℹ',
	"check":       '✔',
	"x":           '❌',
	"question":    '❓',
	"exclamation": '❗',
	"snake":       '🐍',
	"coffee":      '☕',
	"clock":       '🕒',
	"lock":        '🔒',
	"link":        '🔗',
}

// Emoji returns the character for an emoji name.
func Emoji(name string) (rune, bool) {
	r, ok := emojis[name]
	return r, ok
}
