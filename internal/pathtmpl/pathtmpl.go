// Package pathtmpl renders the time-formatted path templates used by source
// descriptors. A template mixes strftime-style time placeholders ({t:%Y%m%d})
// with plain substitution keys ({region}) taken from the descriptor fields
// and its metadata mapping.
package pathtmpl

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/lestrrat-go/strftime"

	"github.com/jgivc/earthfetch/internal/common"
)

const FileCachePrefix = "filecache::"

var (
	timePlaceholder = regexp.MustCompile(`\{t:([^}]+)\}`)
	keyPlaceholder  = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

	// filecache::<protocol>://<path containing a time placeholder>
	fileCacheURL = regexp.MustCompile(`^filecache::(https?|s?ftp)://.*\{t:[^}]+\}.*$`)
)

// IsFileCacheURL reports whether url matches the path-template source grammar.
func IsFileCacheURL(url string) bool {
	return fileCacheURL.MatchString(url)
}

func HasTimePlaceholder(tmpl string) bool {
	return timePlaceholder.MatchString(tmpl)
}

// Resolve renders tmpl for the given timestamp and substitution set. A missing
// substitution key or an empty result is a descriptor error.
func Resolve(tmpl string, t time.Time, subs map[string]string) (string, error) {
	var renderErr error

	out := timePlaceholder.ReplaceAllStringFunc(tmpl, func(m string) string {
		format := timePlaceholder.FindStringSubmatch(m)[1]

		str, err := strftime.Format(format, t)
		if err != nil {
			renderErr = fmt.Errorf("%w: cannot render time format %q: %v", common.ErrConfiguration, format, err)

			return m
		}

		return str
	})
	if renderErr != nil {
		return "", renderErr
	}

	out = keyPlaceholder.ReplaceAllStringFunc(out, func(m string) string {
		key := keyPlaceholder.FindStringSubmatch(m)[1]

		val, exists := subs[key]
		if !exists {
			renderErr = fmt.Errorf("%w: template %q: no value for key %q", common.ErrConfiguration, tmpl, key)

			return m
		}

		return val
	})
	if renderErr != nil {
		return "", renderErr
	}

	if out == "" {
		return "", fmt.Errorf("%w: template %q rendered an empty path", common.ErrConfiguration, tmpl)
	}

	return out, nil
}

// ValidateSourceURL fails unless url matches the filecache grammar required by
// the path-template strategy.
func ValidateSourceURL(url string) error {
	if !IsFileCacheURL(url) {
		return fmt.Errorf("%w: url %q must have the format filecache::<protocol>://<path containing {t:...}>",
			common.ErrConfiguration, url)
	}

	return nil
}

// ValidateCacheStorage checks the cache-storage template once, at fetcher
// construction: it must carry a time placeholder, must not contain wildcards
// and must map distinct calendar days to distinct local paths. Day-uniqueness
// is verified by rendering nine consecutive days and requiring nine distinct
// results.
func ValidateCacheStorage(tmpl string, subs map[string]string) error {
	if tmpl == "" {
		return fmt.Errorf("%w: storage_options.cache_storage must be defined", common.ErrConfiguration)
	}
	if !HasTimePlaceholder(tmpl) {
		return fmt.Errorf("%w: cache_storage %q must contain a {t:...} placeholder", common.ErrConfiguration, tmpl)
	}
	if strings.Contains(tmpl, "*") {
		return fmt.Errorf("%w: cache_storage %q must not contain wildcards", common.ErrConfiguration, tmpl)
	}

	day := time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)
	rendered := make(map[string]struct{})
	for i := 0; i < 9; i++ {
		path, err := Resolve(tmpl, day.AddDate(0, 0, i), subs)
		if err != nil {
			return err
		}

		rendered[path] = struct{}{}
	}

	if len(rendered) != 9 {
		return fmt.Errorf("%w: cache_storage %q must render a unique path for each day", common.ErrConfiguration, tmpl)
	}

	return nil
}
