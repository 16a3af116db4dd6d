package chunker

import "github.com/custodia-labs/sercha-corpus/internal/core/domain"

// ForResource picks the splitter for a resource.
// Images and examples are not split and get nil. Code resources consult
// their scheme first since module names are not file names. After that the
// address extension picks a profile, falling back to the default separators.
func ForResource(res *domain.Resource, opts ...Option) domain.Splitter {
	if !res.Kind.Splittable() {
		return nil
	}
	if l, ok := LanguageForScheme(res.Address.Scheme()); ok && res.Kind == domain.KindCode {
		if s, err := FromLanguage(l, opts...); err == nil {
			return s
		}
	}
	if l, ok := LanguageForExtension(res.Address.Ext()); ok {
		if s, err := FromLanguage(l, opts...); err == nil {
			return s
		}
	}
	return New(opts...)
}
