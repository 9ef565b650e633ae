package extract

import (
	"fmt"
	"strconv"
	"strings"
)

// Chain tries extractors in order and returns the first success. When all
// fail, the failure reasons are concatenated.
func Chain(extractors ...Extractor) Extractor {
	return chain{extractors: extractors}
}

type chain struct {
	extractors []Extractor
}

func (c chain) Extract(response string) Result {
	if len(c.extractors) == 0 {
		return NotFound("no extractors configured")
	}

	reasons := make([]string, 0, len(c.extractors))
	for _, e := range c.extractors {
		result := e.Extract(response)
		if result.Found {
			return result
		}
		reasons = append(reasons, result.Reason)
	}
	return NotFound("all extractors failed: " + strings.Join(reasons, "; "))
}

// NamedExtractor pairs an extractor with the key its value is stored under.
type NamedExtractor struct {
	Key       string
	Extractor Extractor
}

// Multi runs several named extractors against the same response and
// succeeds if at least one does. The first listed extractor is the primary:
// its value becomes the result value when it succeeds, otherwise the first
// successful one is promoted and recorded under the primary_key metadata
// entry. Every successful extraction is available in metadata by key.
func Multi(extractors ...NamedExtractor) (Extractor, error) {
	if len(extractors) == 0 {
		return nil, fmt.Errorf("at least one extractor is required")
	}
	seen := make(map[string]struct{}, len(extractors))
	for _, named := range extractors {
		if strings.TrimSpace(named.Key) == "" {
			return nil, fmt.Errorf("extractor key is required")
		}
		if named.Extractor == nil {
			return nil, fmt.Errorf("extractor %q is nil", named.Key)
		}
		if _, dup := seen[named.Key]; dup {
			return nil, fmt.Errorf("duplicate extractor key %q", named.Key)
		}
		seen[named.Key] = struct{}{}
	}
	return multi{extractors: append([]NamedExtractor(nil), extractors...)}, nil
}

type multi struct {
	extractors []NamedExtractor
}

func (m multi) Extract(response string) Result {
	values := make(map[string]string, len(m.extractors))
	failures := make([]string, 0, len(m.extractors))

	for _, named := range m.extractors {
		result := named.Extractor.Extract(response)
		if result.Found {
			values[named.Key] = result.Value
		} else {
			failures = append(failures, named.Key+": "+result.Reason)
		}
	}

	if len(values) == 0 {
		return NotFound("all extractions failed: " + strings.Join(failures, "; "))
	}

	primaryKey := m.extractors[0].Key
	primaryValue, ok := values[primaryKey]
	if !ok {
		// Primary missed; promote the first successful extractor.
		for _, named := range m.extractors {
			if v, found := values[named.Key]; found {
				primaryKey, primaryValue = named.Key, v
				break
			}
		}
	}

	metadata := make(map[string]string, len(values)+2)
	for k, v := range values {
		metadata[k] = v
	}
	metadata[MetaPrimaryKey] = primaryKey
	metadata["success_count"] = strconv.Itoa(len(values))

	return Extracted(primaryValue, metadata)
}

// Transform post-processes a successful extraction. The transform failing
// (returning the empty string) turns the result into NotFound; the original
// value is preserved in metadata.
func Transform(base Extractor, fn func(value string) string) Extractor {
	return transformer{base: base, fn: fn}
}

type transformer struct {
	base Extractor
	fn   func(string) string
}

func (t transformer) Extract(response string) Result {
	result := t.base.Extract(response)
	if !result.Found {
		return result
	}

	transformed := t.fn(result.Value)
	if transformed == "" {
		return NotFound("transformation yielded no value")
	}

	metadata := make(map[string]string, len(result.Metadata)+1)
	for k, v := range result.Metadata {
		metadata[k] = v
	}
	metadata[MetaOriginalValue] = result.Value

	return Extracted(transformed, metadata)
}
