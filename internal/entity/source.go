package entity

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jgivc/earthfetch/internal/common"
)

const Day = 24 * time.Hour

// Source describes one remote data source. It is built once, validated by the
// fetcher that consumes it and never mutated afterwards.
type Source struct {
	Name           string            `yaml:"name"`
	URL            string            `yaml:"url"`
	StorageOptions StorageOptions    `yaml:"storage_options"`
	Metadata       map[string]string `yaml:"metadata"`
	Variables      []string          `yaml:"variables"`
	Time           *TimeSpec         `yaml:"time"`
}

type StorageOptions struct {
	CacheStorage string `yaml:"cache_storage"`
}

type TimeSpec struct {
	Freq string `yaml:"freq"` // e.g. "1D", "8 days" or a Go duration
}

func (s *Source) Validate() error {
	if s.URL == "" {
		return fmt.Errorf("%w: url must be defined", common.ErrConfiguration)
	}
	if s.StorageOptions.CacheStorage == "" {
		return fmt.Errorf("%w: storage_options.cache_storage must be defined", common.ErrConfiguration)
	}

	return nil
}

// Freq returns the nominal sampling interval. Sources without a time block
// default to one day; a time block without freq is a descriptor error.
func (s *Source) Freq() (time.Duration, error) {
	if s.Time == nil {
		return Day, nil
	}
	if s.Time.Freq == "" {
		return 0, fmt.Errorf("%w: time.freq must be defined", common.ErrConfiguration)
	}

	d, err := ParseFreq(s.Time.Freq)
	if err != nil {
		return 0, fmt.Errorf("%w: time.freq: %v", common.ErrConfiguration, err)
	}

	return d, nil
}

// Substitutions returns the key/value pairs available to path templates:
// top-level descriptor fields with the metadata mapping merged on top.
func (s *Source) Substitutions() map[string]string {
	subs := map[string]string{
		"name": s.Name,
		"url":  s.URL,
	}
	for k, v := range s.Metadata {
		subs[k] = v
	}

	return subs
}

// ParseFreq parses sampling intervals in the day-count forms used by source
// descriptors ("1D", "8 days") as well as plain Go durations ("24h").
func ParseFreq(freq string) (time.Duration, error) {
	str := strings.TrimSpace(strings.ToLower(freq))
	for _, suffix := range []string{"days", "day", "d"} {
		if strings.HasSuffix(str, suffix) {
			nStr := strings.TrimSpace(strings.TrimSuffix(str, suffix))
			if nStr == "" {
				nStr = "1"
			}

			n, err := strconv.Atoi(nStr)
			if err != nil {
				return 0, fmt.Errorf("cannot parse %q as a day count", freq)
			}

			return time.Duration(n) * Day, nil
		}
	}

	d, err := time.ParseDuration(str)
	if err != nil {
		return 0, fmt.Errorf("cannot parse %q as a duration", freq)
	}

	return d, nil
}
