package chunker

import (
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/sercha-corpus/internal/core/domain"
)

// Language names a separator profile.
type Language string

// Supported language profiles.
const (
	LanguagePython     Language = "python"
	LanguageR          Language = "r"
	LanguageGo         Language = "go"
	LanguageMarkdown   Language = "markdown"
	LanguageRST        Language = "rst"
	LanguageJavaScript Language = "js"
	LanguageJava       Language = "java"
	LanguageCPP        Language = "cpp"
	LanguageRust       Language = "rust"
	LanguageLatex      Language = "latex"
)

var separatorsByLanguage = map[Language][]string{
	LanguagePython: {
		"\nclass ", "\ndef ", "\n\tdef ", "\n    def ",
		"\n\n", "\n", " ", "",
	},
	LanguageR: {
		"\n#' ", "\nsetClass(", "\nsetMethod(", "\nsetGeneric(",
		"\n\n", "\n", " ", "",
	},
	LanguageGo: {
		"\nfunc ", "\nvar ", "\nconst ", "\ntype ",
		"\nif ", "\nfor ", "\nswitch ", "\ncase ",
		"\n\n", "\n", " ", "",
	},
	LanguageMarkdown: {
		"\n# ", "\n## ", "\n### ", "\n#### ", "\n##### ", "\n###### ",
		"```\n", "\n***\n", "\n---\n", "\n___\n",
		"\n\n", "\n", " ", "",
	},
	LanguageRST: {
		"\n=", "\n-", "\n~", "\n.. ",
		"\n\n", "\n", " ", "",
	},
	LanguageJavaScript: {
		"\nfunction ", "\nconst ", "\nlet ", "\nvar ", "\nclass ",
		"\nif ", "\nfor ", "\nwhile ", "\nswitch ", "\ncase ", "\ndefault ",
		"\n\n", "\n", " ", "",
	},
	LanguageJava: {
		"\nclass ", "\npublic ", "\nprotected ", "\nprivate ", "\nstatic ",
		"\nif ", "\nfor ", "\nwhile ", "\nswitch ", "\ncase ",
		"\n\n", "\n", " ", "",
	},
	LanguageCPP: {
		"\nclass ", "\nvoid ", "\nint ", "\nfloat ", "\ndouble ",
		"\nif ", "\nfor ", "\nwhile ", "\nswitch ", "\ncase ",
		"\n\n", "\n", " ", "",
	},
	LanguageRust: {
		"\nfn ", "\nconst ", "\nlet ", "\nif ", "\nwhile ", "\nfor ", "\nloop ", "\nmatch ",
		"\n\n", "\n", " ", "",
	},
	LanguageLatex: {
		"\n\\chapter{", "\n\\section{", "\n\\subsection{", "\n\\subsubsection{",
		"\n\\begin{enumerate}", "\n\\begin{itemize}", "\n\\begin{description}",
		"\n\\begin{verbatim}", "\n\\begin{align}",
		"$$", "$", " ", "",
	},
}

// extensions are matched case-sensitively first, then lower-cased.
var languagesByExtension = map[string]Language{
	"py":       LanguagePython,
	"R":        LanguageR,
	"r":        LanguageR,
	"go":       LanguageGo,
	"md":       LanguageMarkdown,
	"markdown": LanguageMarkdown,
	"rst":      LanguageRST,
	"js":       LanguageJavaScript,
	"jsx":      LanguageJavaScript,
	"ts":       LanguageJavaScript,
	"tsx":      LanguageJavaScript,
	"java":     LanguageJava,
	"c":        LanguageCPP,
	"cc":       LanguageCPP,
	"cpp":      LanguageCPP,
	"h":        LanguageCPP,
	"hpp":      LanguageCPP,
	"rs":       LanguageRust,
	"tex":      LanguageLatex,
}

// languagesByScheme maps address schemes whose paths are not file names.
var languagesByScheme = map[string]Language{
	domain.SchemePyModule: LanguagePython,
	domain.SchemeRPackage: LanguageR,
}

// Languages returns the supported profiles in sorted order.
func Languages() []Language {
	out := make([]Language, 0, len(separatorsByLanguage))
	for l := range separatorsByLanguage {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Separators returns a copy of the separator list for language.
func Separators(language Language) ([]string, bool) {
	seps, ok := separatorsByLanguage[language]
	if !ok {
		return nil, false
	}
	return append([]string(nil), seps...), true
}

// LanguageForExtension maps a file extension, with or without the dot.
func LanguageForExtension(ext string) (Language, bool) {
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		return "", false
	}
	if l, ok := languagesByExtension[ext]; ok {
		return l, true
	}
	l, ok := languagesByExtension[strings.ToLower(ext)]
	return l, ok
}

// LanguageForScheme maps schemes whose resources are always one language.
func LanguageForScheme(scheme string) (Language, bool) {
	l, ok := languagesByScheme[scheme]
	return l, ok
}

// FromLanguage builds a splitter with a language's separators.
func FromLanguage(language Language, opts ...Option) (*Splitter, error) {
	seps, ok := Separators(language)
	if !ok {
		return nil, fmt.Errorf("%w: no separator profile for language %q", domain.ErrUnsupportedType, language)
	}
	s := New(append(opts, WithSeparators(seps...))...)
	s.language = language
	return s, nil
}

// FromExtension builds a splitter for a file extension.
func FromExtension(ext string, opts ...Option) (*Splitter, error) {
	l, ok := LanguageForExtension(ext)
	if !ok {
		return nil, fmt.Errorf("%w: no separator profile for extension %q", domain.ErrUnsupportedType, ext)
	}
	return FromLanguage(l, opts...)
}
