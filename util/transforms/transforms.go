// Copyright 2025 The NLP Odyssey Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package transforms

import (
	"regexp"
	"strings"
)

var (
	nonAlphanumericRegexp = regexp.MustCompile(`[^a-zA-Z0-9]`)
	underscoreRunRegexp   = regexp.MustCompile(`_{2,}`)
)

// TransformStringFunctionStyle turns name into a lowercase identifier made
// of letters, digits and underscores, as accepted for tool and schema names.
func TransformStringFunctionStyle(name string) string {
	return strings.ToLower(nonAlphanumericRegexp.ReplaceAllString(name, "_"))
}

// Slug is like TransformStringFunctionStyle, but collapses runs of
// underscores, trims them from both ends and cuts the result to maxLen
// bytes when maxLen is positive.
func Slug(s string, maxLen int) string {
	s = underscoreRunRegexp.ReplaceAllString(TransformStringFunctionStyle(s), "_")
	s = strings.Trim(s, "_")
	if maxLen > 0 && len(s) > maxLen {
		s = strings.TrimRight(s[:maxLen], "_")
	}
	return s
}
