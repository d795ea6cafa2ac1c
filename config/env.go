// Copyright 2024 The Envelope Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"strings"
	"unicode"
)

// EnvOptions controls how environment variable names become config keys.
type EnvOptions struct {
	// UnderscoreSeparator turns every "_" into the "." key separator.
	UnderscoreSeparator bool
	// UppercaseNames folds names that start with an uppercase letter:
	// each segment is lowercased, and a "_" followed by a letter becomes
	// that letter in uppercase, so SERVER_ADDR becomes serverAddr.
	UppercaseNames bool
	// Prefix, if set, is stripped from names. Variables without it are
	// ignored by FromEnviron.
	Prefix string
}

// EnvKey normalizes one environment variable name into a config key.
func EnvKey(name string, opts EnvOptions) string {
	key := name
	if opts.UnderscoreSeparator {
		key = strings.ReplaceAll(key, "_", ".")
	}
	if !opts.UppercaseNames || key == "" {
		return key
	}
	first := []rune(key)[0]
	if !unicode.IsUpper(first) {
		return key
	}
	segments := strings.Split(key, ".")
	for i, segment := range segments {
		segments[i] = foldSegment(segment)
	}
	return strings.Join(segments, ".")
}

func foldSegment(segment string) string {
	folded := make([]rune, 0, len(segment))
	for _, r := range segment {
		switch {
		case len(folded) == 0:
			folded = append(folded, unicode.ToLower(r))
		case folded[len(folded)-1] == '_':
			folded[len(folded)-1] = unicode.ToUpper(r)
		default:
			folded = append(folded, unicode.ToLower(r))
		}
	}
	return string(folded)
}

// FromEnviron normalizes KEY=value pairs, as returned by os.Environ, into
// a map of config keys. Later duplicates win.
func FromEnviron(environ []string, opts EnvOptions) map[string]string {
	values := make(map[string]string, len(environ))
	for _, entry := range environ {
		name, value, ok := strings.Cut(entry, "=")
		if !ok || name == "" {
			continue
		}
		if opts.Prefix != "" {
			trimmed, found := strings.CutPrefix(name, opts.Prefix)
			if !found || trimmed == "" {
				continue
			}
			name = trimmed
		}
		values[EnvKey(name, opts)] = value
	}
	return values
}
