package duplicator

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"translation-queue/internal/cms"
)

const maxSlugAttempts = 1000

// Slugify folds accents, lowercases, and collapses anything that is not a
// letter or digit into single hyphens.
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// uniqueSlug returns slug, or slug-2, slug-3, ... whichever is free for docType.
func uniqueSlug(ctx context.Context, docs cms.Store, docType, slug string) (string, error) {
	candidate := slug
	for n := 2; n < maxSlugAttempts; n++ {
		taken, err := docs.SlugExists(ctx, docType, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", slug, n)
	}
	return "", fmt.Errorf("no free slug for %q after %d attempts", slug, maxSlugAttempts)
}
